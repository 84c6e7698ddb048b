package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"cscan/internal/config"
)

// settings: итоговые параметры запуска: defaults < cscan.toml < явно заданные флаги.
type settings struct {
	manifest *config.Manifest

	format         string
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
	trivia         bool
	extensions     []string
	cache          bool
	cacheDir       string
	trace          config.TraceConfig
}

func loadManifest(cmd *cobra.Command) (*config.Manifest, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	manifest, _, err := config.Discover(wd)
	return manifest, err
}

func resolveSettings(cmd *cobra.Command) (*settings, error) {
	manifest, err := loadManifest(cmd)
	if err != nil {
		return nil, err
	}
	cfg := manifest.Config
	flags := cmd.Flags()

	s := &settings{
		manifest:       manifest,
		format:         cfg.Output.Format,
		maxDiagnostics: cfg.Output.MaxDiagnostics,
		trivia:         cfg.Scan.Trivia,
		extensions:     cfg.Scan.Extensions,
		cache:          cfg.Cache.Enabled,
		cacheDir:       manifest.ResolveDir(cfg.Cache.Dir),
		trace:          cfg.Trace,
	}
	if cfg.Trace.Output != "-" {
		s.trace.Output = manifest.ResolveDir(cfg.Trace.Output)
	}
	colorMode := cfg.Output.Color

	stringFlags := []struct {
		name string
		dst  *string
	}{
		{"format", &s.format},
		{"color", &colorMode},
		{"trace", &s.trace.Output},
		{"trace-level", &s.trace.Level},
		{"trace-format", &s.trace.Format},
	}
	for _, f := range stringFlags {
		if flags.Lookup(f.name) == nil || !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetString(f.name); err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", f.name, err)
		}
	}

	boolFlags := []struct {
		name string
		dst  *bool
	}{
		{"trivia", &s.trivia},
		{"cache", &s.cache},
		{"quiet", &s.quiet},
		{"timings", &s.timings},
	}
	for _, f := range boolFlags {
		if flags.Lookup(f.name) == nil || !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetBool(f.name); err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", f.name, err)
		}
	}

	if flags.Changed("max-diagnostics") {
		if s.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
			return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
		if s.maxDiagnostics < 0 {
			return nil, fmt.Errorf("--max-diagnostics must not be negative")
		}
	}

	s.format = strings.ToLower(strings.TrimSpace(s.format))
	if !slices.Contains([]string{"trace", "pretty", "json"}, s.format) {
		return nil, fmt.Errorf("unknown format: %s (expected trace|pretty|json)", s.format)
	}
	if s.color, err = useColor(colorMode, cmd); err != nil {
		return nil, err
	}
	return s, nil
}

func useColor(mode string, cmd *cobra.Command) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "", "auto":
		return isTerminal(cmd.ErrOrStderr()), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
}
