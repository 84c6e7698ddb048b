package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"cscan/internal/diag"
	"cscan/internal/ident"
	"cscan/internal/source"
	"cscan/internal/token"
)

// Current schema version - increment when TokenPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит результаты сканирования по хешу содержимого файла.
// Кэшируются только сканы без фатальной ошибки.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CacheKey identifies a scan: same bytes and same trivia mode give the same tokens.
type CacheKey struct {
	Content [32]byte
	Trivia  bool
}

// TokenPayload is the on-disk form of one clean scan. Lexemes are not
// stored: they are sliced back out of the file content by span.
type TokenPayload struct {
	Schema   uint16
	Trivia   bool
	Tokens   []cachedToken
	Idents   []string
	Warnings []cachedDiag
}

type cachedToken struct {
	Kind    uint8
	Start   uint32
	End     uint32
	Line    uint32
	Col     uint32
	Value   uint64
	Slot    uint32
	Leading []cachedTrivia
}

type cachedTrivia struct {
	Kind  uint8
	Start uint32
	End   uint32
}

type cachedDiag struct {
	Code     uint16
	Severity uint8
	Start    uint32
	End      uint32
	Message  string
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a disk cache rooted at dir, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key CacheKey) string {
	hexKey := hex.EncodeToString(key.Content[:])
	if key.Trivia {
		hexKey += "-trivia"
	}
	// подкаталог "tokens": для удобства очистки
	return filepath.Join(c.dir, "tokens", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key CacheKey, payload *TokenPayload) (err error) {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// после Rename временного файла уже нет
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache. A payload with
// another schema version is a miss.
func (c *DiskCache) Get(key CacheKey, out *TokenPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("corrupt cache entry: %w", err)
	}
	if out.Schema != diskCacheSchemaVersion || out.Trivia != key.Trivia {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// scanToPayload converts a clean scan into its cached form; diags are the
// lexer's own warnings, replayed on every hit.
func scanToPayload(tokens []token.Token, idents []string, diags []diag.Diagnostic, trivia bool) *TokenPayload {
	payload := &TokenPayload{
		Schema: diskCacheSchemaVersion,
		Trivia: trivia,
		Tokens: make([]cachedToken, len(tokens)),
		Idents: idents,
	}
	for i, tok := range tokens {
		ct := cachedToken{
			Kind:  uint8(tok.Kind),
			Start: tok.Span.Start,
			End:   tok.Span.End,
			Line:  tok.Pos.Line,
			Col:   tok.Pos.Col,
			Value: tok.Value,
			Slot:  uint32(tok.Slot),
		}
		for _, tv := range tok.Leading {
			ct.Leading = append(ct.Leading, cachedTrivia{Kind: uint8(tv.Kind), Start: tv.Span.Start, End: tv.Span.End})
		}
		payload.Tokens[i] = ct
	}
	for _, d := range diags {
		payload.Warnings = append(payload.Warnings, cachedDiag{
			Code:     uint16(d.Code),
			Severity: uint8(d.Severity),
			Start:    d.Primary.Start,
			End:      d.Primary.End,
			Message:  d.Message,
		})
	}
	return payload
}

// payloadToScan restores tokens against file; diagnostics are replayed into bag.
func payloadToScan(payload *TokenPayload, file *source.File, bag *diag.Bag) ([]token.Token, *ident.Table, error) {
	size := uint32(len(file.Content))
	text := func(start, end uint32) (string, error) {
		if start > end || end > size {
			return "", fmt.Errorf("cached span %d..%d out of range for %s", start, end, file.Path)
		}
		return string(file.Content[start:end]), nil
	}

	tokens := make([]token.Token, len(payload.Tokens))
	for i, ct := range payload.Tokens {
		lexeme, err := text(ct.Start, ct.End)
		if err != nil {
			return nil, nil, err
		}
		tok := token.Token{
			Kind:  token.Kind(ct.Kind),
			Span:  source.Span{File: file.ID, Start: ct.Start, End: ct.End},
			Pos:   source.LineCol{Line: ct.Line, Col: ct.Col},
			Text:  lexeme,
			Value: ct.Value,
			Slot:  ident.Slot(ct.Slot),
		}
		for _, tv := range ct.Leading {
			tvText, err := text(tv.Start, tv.End)
			if err != nil {
				return nil, nil, err
			}
			tok.Leading = append(tok.Leading, token.Trivia{
				Kind: token.TriviaKind(tv.Kind),
				Span: source.Span{File: file.ID, Start: tv.Start, End: tv.End},
				Text: tvText,
			})
		}
		tokens[i] = tok
	}

	table := ident.NewTable()
	for _, name := range payload.Idents {
		table.Resolve(name)
	}

	for _, w := range payload.Warnings {
		bag.Add(diag.New(
			diag.Severity(w.Severity),
			diag.Code(w.Code),
			source.Span{File: file.ID, Start: w.Start, End: w.End},
			w.Message,
		))
	}
	return tokens, table, nil
}
