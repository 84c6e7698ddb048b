// Package config loads cscan.toml, the per-project scanner configuration.
//
// Файл ищется вверх от рабочей директории или
// задаётся флагом --config. Незаданные ключи берутся из Default().
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"cscan/internal/trace"
)

// FileName is the configuration file looked up from the working directory.
const FileName = "cscan.toml"

type Config struct {
	Output OutputConfig `toml:"output"`
	Scan   ScanConfig   `toml:"scan"`
	Cache  CacheConfig  `toml:"cache"`
	Trace  TraceConfig  `toml:"trace"`
}

type OutputConfig struct {
	Format         string `toml:"format"`
	Color          string `toml:"color"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

type ScanConfig struct {
	Trivia     bool     `toml:"trivia"`
	Extensions []string `toml:"extensions"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no cscan.toml exists.
func Default() Config {
	return Config{
		Output: OutputConfig{Format: "trace", Color: "auto", MaxDiagnostics: 100},
		Scan:   ScanConfig{Extensions: []string{".c", ".cs"}},
		Trace:  TraceConfig{Level: "off", Format: "auto"},
	}
}

// Manifest is a loaded configuration file.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Find walks up from startDir looking for cscan.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads cscan.toml above startDir. When none exists it
// returns the defaults and ok == false.
func Discover(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &Manifest{Config: Default()}, false, nil
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// Load decodes the file at path over Default() and validates it.
func Load(path string) (*Manifest, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Manifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
}

// Validate проверяет значения, которые не выражаются типами.
func (c Config) Validate() error {
	if !slices.Contains([]string{"trace", "pretty", "json"}, c.Output.Format) {
		return fmt.Errorf("[output].format must be trace, pretty or json, got %q", c.Output.Format)
	}
	if !slices.Contains([]string{"auto", "on", "off"}, c.Output.Color) {
		return fmt.Errorf("[output].color must be auto, on or off, got %q", c.Output.Color)
	}
	if c.Output.MaxDiagnostics < 0 {
		return fmt.Errorf("[output].max_diagnostics must not be negative")
	}
	if len(c.Scan.Extensions) == 0 {
		return fmt.Errorf("[scan].extensions must not be empty")
	}
	for _, ext := range c.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("[scan].extensions: %q must start with '.'", ext)
		}
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		return fmt.Errorf("[trace].format: %w", err)
	}
	return nil
}

// ResolveDir returns p relative to the manifest root unless it is absolute.
func (m *Manifest) ResolveDir(p string) string {
	if p == "" || filepath.IsAbs(p) || m == nil || m.Root == "" {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}
