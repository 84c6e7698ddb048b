package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"cscan/internal/diag"
	"cscan/internal/observ"
	"cscan/internal/token"
	"cscan/internal/trace"
)

func testdataPath(parts ...string) string {
	return filepath.Join(append([]string{"..", "..", "testdata"}, parts...)...)
}

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTokenize_CleanFile(t *testing.T) {
	timer := observ.NewTimer()
	res, err := Tokenize(context.Background(), testdataPath("scan", "ok.c"), Options{MaxDiagnostics: 10, Timer: timer})
	if err != nil {
		t.Fatal(err)
	}
	if res.Err != nil {
		t.Fatalf("scan error: %v", res.Err)
	}
	last := res.Tokens[len(res.Tokens)-1]
	if last.Kind != token.EOF {
		t.Fatalf("last token = %v", last.Kind)
	}
	if got := res.Idents.Snapshot(); !reflect.DeepEqual(got, []string{"fact", "n", "acc"}) {
		t.Fatalf("idents = %v", got)
	}
	if res.Bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	if phases := timer.Report().Phases; len(phases) != 2 || phases[0].Name != "load" || phases[1].Name != "lex" {
		t.Fatalf("phases = %+v", phases)
	}
}

func TestTokenize_UnknownCharacter(t *testing.T) {
	res, err := Tokenize(context.Background(), testdataPath("scan", "unknown.c"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	lexErr, ok := ScanError(res.Err)
	if !ok {
		t.Fatalf("Err = %v, want *lexer.Error", res.Err)
	}
	if lexErr.Char != '#' || lexErr.Pos.Line != 2 || lexErr.Pos.Col != 11 {
		t.Fatalf("error = %+v", lexErr)
	}
	if !res.Bag.HasErrors() || res.Bag.Items()[0].Code != diag.LexUnknownChar {
		t.Fatalf("bag = %+v", res.Bag.Items())
	}
	// токены до ошибки: int a = 1 ; int b = a
	if len(res.Tokens) != 9 {
		t.Fatalf("got %d tokens before failure", len(res.Tokens))
	}
	for _, tok := range res.Tokens {
		if tok.Kind == token.EOF || tok.Kind == token.Invalid {
			t.Fatalf("partial result contains %v", tok.Kind)
		}
	}
}

func TestTokenize_MissingFile(t *testing.T) {
	_, err := Tokenize(context.Background(), filepath.Join(t.TempDir(), "nope.c"), Options{})
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want wrapped ErrNotExist", err)
	}
	if !strings.Contains(err.Error(), "nope.c") {
		t.Fatalf("error does not name the file: %v", err)
	}
}

func TestTokenize_Trace(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelDebug, trace.FormatText)
	ctx := trace.WithTracer(context.Background(), tr)

	if _, err := Tokenize(ctx, testdataPath("scan", "ok.c"), Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"→ tokenize", "→ load", "← load", "→ lex", "← lex {idents=3, tokens=", "← tokenize"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace lacks %q:\n%s", want, out)
		}
	}
}

func TestTokenize_CacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "big.c", "x = 99999999999999999999; // c\ny += x;\n")
	cache, err := NewDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}

	for _, trivia := range []bool{false, true} {
		opts := Options{Cache: cache, KeepTrivia: trivia}
		first, err := Tokenize(context.Background(), src, opts)
		if err != nil {
			t.Fatal(err)
		}
		second, err := Tokenize(context.Background(), src, opts)
		if err != nil {
			t.Fatal(err)
		}
		if first.Cached || !second.Cached {
			t.Fatalf("trivia=%v: cached flags %v %v", trivia, first.Cached, second.Cached)
		}
		if !reflect.DeepEqual(first.Tokens, second.Tokens) {
			t.Fatalf("trivia=%v: cached tokens differ:\n%+v\n%+v", trivia, first.Tokens, second.Tokens)
		}
		if !reflect.DeepEqual(first.Idents.Snapshot(), second.Idents.Snapshot()) {
			t.Fatalf("idents differ")
		}
		if second.Bag.Len() != 1 || second.Bag.Items()[0].Code != diag.LexNumberOverflow {
			t.Fatalf("warnings not replayed: %+v", second.Bag.Items())
		}
	}
}

func TestTokenize_CacheSkipsFailedScans(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "bad.c", "a @ b")
	cache, err := NewDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		res, err := Tokenize(context.Background(), src, Options{Cache: cache})
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached || res.Err == nil {
			t.Fatalf("cached=%v err=%v", res.Cached, res.Err)
		}
	}
}

func codesOf(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestTokenize_CorruptCacheEntryIsRewritten(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "big.c", "x = 99999999999999999999;\n")
	cache, err := NewDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Cache: cache}

	first, err := Tokenize(context.Background(), src, opts)
	if err != nil {
		t.Fatal(err)
	}
	entry := cache.pathFor(CacheKey{Content: first.File.Hash})
	if _, err := os.Stat(entry); err != nil {
		t.Fatalf("entry not written: %v", err)
	}
	if err := os.WriteFile(entry, []byte{0xc1, 0xc1, 0xc1}, 0o600); err != nil {
		t.Fatal(err)
	}

	miss, err := Tokenize(context.Background(), src, opts)
	if err != nil {
		t.Fatal(err)
	}
	if miss.Cached || miss.Err != nil {
		t.Fatalf("corrupt entry: cached=%v err=%v", miss.Cached, miss.Err)
	}
	if got := codesOf(miss.Bag); !reflect.DeepEqual(got, []diag.Code{diag.IOCacheError, diag.LexNumberOverflow}) {
		t.Fatalf("corrupt entry diagnostics = %v", got)
	}

	for i := range 2 {
		hit, err := Tokenize(context.Background(), src, opts)
		if err != nil {
			t.Fatal(err)
		}
		if !hit.Cached {
			t.Fatalf("run %d: not served from cache", i)
		}
		if got := codesOf(hit.Bag); !reflect.DeepEqual(got, []diag.Code{diag.LexNumberOverflow}) {
			t.Fatalf("run %d: diagnostics = %v", i, got)
		}
		if !reflect.DeepEqual(hit.Tokens, first.Tokens) {
			t.Fatalf("run %d: tokens differ after rewrite", i)
		}
	}
}

func TestDiskCache_SchemaMismatchAndDrop(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := CacheKey{Content: [32]byte{1, 2, 3}}
	if err := cache.Put(key, &TokenPayload{Schema: diskCacheSchemaVersion + 1}); err != nil {
		t.Fatal(err)
	}
	var out TokenPayload
	if hit, err := cache.Get(key, &out); err != nil || hit {
		t.Fatalf("stale schema: hit=%v err=%v", hit, err)
	}

	if err := cache.Put(key, &TokenPayload{Schema: diskCacheSchemaVersion, Idents: []string{"a"}}); err != nil {
		t.Fatal(err)
	}
	if hit, err := cache.Get(key, &out); err != nil || !hit || out.Idents[0] != "a" {
		t.Fatalf("hit=%v err=%v out=%+v", hit, err, out)
	}
	if hit, _ := cache.Get(CacheKey{Content: key.Content, Trivia: true}, &out); hit {
		t.Fatal("trivia mode must use its own entry")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if hit, err := cache.Get(key, &out); err != nil || hit {
		t.Fatalf("after DropAll: hit=%v err=%v", hit, err)
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) OnEvent(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func TestTokenizeDir(t *testing.T) {
	log := &eventLog{}
	dir := testdataPath("dir")
	fs, results, err := TokenizeDir(context.Background(), dir, DirOptions{Jobs: 2, Progress: log})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	wantPaths := []string{filepath.Join(dir, "a.c"), filepath.Join(dir, "nested", "b.cs")}
	for i, r := range results {
		if r.Path != wantPaths[i] {
			t.Errorf("result %d path = %q, want %q", i, r.Path, wantPaths[i])
		}
		if r.Err != nil {
			t.Errorf("%s: %v", r.Path, r.Err)
		}
		if fs.Get(r.FileID).Path == "" {
			t.Errorf("%s: file not in FileSet", r.Path)
		}
		if r.Tokens[len(r.Tokens)-1].Kind != token.EOF {
			t.Errorf("%s: no EOF", r.Path)
		}
	}
	// отдельная таблица на файл: первый идентификатор каждого файла получает слот 0
	if results[0].Idents.Snapshot()[0] != "flag" || results[1].Idents.Snapshot()[0] != "i" {
		t.Errorf("idents = %v / %v", results[0].Idents.Snapshot(), results[1].Idents.Snapshot())
	}

	done := 0
	for _, ev := range log.events {
		if ev.Status == StatusDone {
			done++
			if ev.Tokens == 0 {
				t.Errorf("done event without token count: %+v", ev)
			}
		}
	}
	if done != 2 {
		t.Fatalf("done events = %d (%+v)", done, log.events)
	}
}

func TestTokenizeDir_FailureIsPerFile(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.c", "int a;")
	writeSource(t, dir, "b.c", "int $b;")
	writeSource(t, dir, ".hidden/c.c", "@@@")
	writeSource(t, dir, "d.h", "ignored")

	_, results, err := TokenizeDir(context.Background(), dir, DirOptions{Options: Options{MaxDiagnostics: 5}, Extensions: []string{".c"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Err != nil {
		t.Fatalf("a.c: %v", results[0].Err)
	}
	if _, ok := ScanError(results[1].Err); !ok {
		t.Fatalf("b.c: err = %v", results[1].Err)
	}
}

func TestTokenizeDir_Empty(t *testing.T) {
	_, results, err := TokenizeDir(context.Background(), t.TempDir(), DirOptions{})
	if err != nil || len(results) != 0 {
		t.Fatalf("results=%v err=%v", results, err)
	}
}

func TestTokenizeDir_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := TokenizeDir(ctx, testdataPath("dir"), DirOptions{Jobs: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
