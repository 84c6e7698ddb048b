package driver

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"cscan/internal/diag"
	"cscan/internal/ident"
	"cscan/internal/lexer"
	"cscan/internal/observ"
	"cscan/internal/source"
	"cscan/internal/token"
	"cscan/internal/trace"
)

// Options configures a scan run.
type Options struct {
	MaxDiagnostics int
	KeepTrivia     bool
	Cache          *DiskCache    // nil: без кэша
	Timer          *observ.Timer // nil: без замеров
}

type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token // до EOF включительно, либо до фатальной ошибки
	Idents  *ident.Table
	Bag     *diag.Bag
	Err     error // *lexer.Error, если встретился нераспознанный символ
	Cached  bool
}

// Tokenize loads path and scans it. The returned error is only for input
// access failures; a scan stopped by an unrecognized character is reported
// in TokenizeResult.Err with the tokens produced before it.
func Tokenize(ctx context.Context, path string, opts Options) (*TokenizeResult, error) {
	span, ctx := trace.BeginCtx(ctx, trace.ScopeDriver, "tokenize")
	defer span.End("")
	span.WithExtra("path", path)

	fs := source.NewFileSet()

	endLoad := opts.Timer.Track("load")
	loadSpan, _ := trace.BeginCtx(ctx, trace.ScopePass, "load")
	fileID, err := fs.Load(path)
	if err != nil {
		loadSpan.Fail(err)
		loadSpan.End("error")
		endLoad("error")
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	file := fs.Get(fileID)
	loadSpan.WithExtra("bytes", strconv.Itoa(len(file.Content))).End("")
	endLoad(fmt.Sprintf("%d bytes", len(file.Content)))

	res := &TokenizeResult{
		FileSet: fs,
		File:    file,
		Bag:     diag.NewBag(opts.MaxDiagnostics),
	}
	scanFile(ctx, file, opts, res, "lex")
	span.WithExtra("tokens", strconv.Itoa(len(res.Tokens)))
	return res, nil
}

// scanFile fills res from the cache or by running the lexer over file.
func scanFile(ctx context.Context, file *source.File, opts Options, res *TokenizeResult, phase string) {
	if opts.Cache != nil && tryCache(ctx, file, opts, res) {
		return
	}

	endLex := opts.Timer.Track(phase)
	lexSpan, _ := trace.BeginCtx(ctx, trace.ScopePass, "lex")

	// Всё, что в bag до лексера (IO4002 от битой записи), в кэш не попадает.
	lexFrom := res.Bag.Len()
	idents := ident.NewTable()
	lx := lexer.New(file, lexer.Options{
		Reporter:   diag.BagReporter{Bag: res.Bag},
		Idents:     idents,
		KeepTrivia: opts.KeepTrivia,
	})
	tokens := make([]token.Token, 0, len(file.Content)/4+1)
	for tok := range lx.All() {
		tokens = append(tokens, tok)
	}

	res.Tokens = tokens
	res.Idents = idents
	res.Err = lx.Err()

	lexSpan.WithExtra("tokens", strconv.Itoa(len(tokens))).WithExtra("idents", strconv.Itoa(idents.Len()))
	if res.Err != nil {
		lexSpan.Fail(res.Err)
		lexSpan.End("error")
		endLex("error")
		return
	}
	lexSpan.End("")
	endLex(fmt.Sprintf("%d tokens", len(tokens)))

	if opts.Cache != nil {
		key := CacheKey{Content: file.Hash, Trivia: opts.KeepTrivia}
		if err := opts.Cache.Put(key, scanToPayload(tokens, idents.Snapshot(), res.Bag.Items()[lexFrom:], opts.KeepTrivia)); err != nil {
			reportCacheError(res.Bag, file, err)
		}
	}
}

func tryCache(ctx context.Context, file *source.File, opts Options, res *TokenizeResult) bool {
	cacheSpan, _ := trace.BeginCtx(ctx, trace.ScopePass, "cache")
	var payload TokenPayload
	hit, err := opts.Cache.Get(CacheKey{Content: file.Hash, Trivia: opts.KeepTrivia}, &payload)
	if err != nil {
		cacheSpan.Fail(err)
		cacheSpan.End("error")
		reportCacheError(res.Bag, file, err)
		return false
	}
	if !hit {
		cacheSpan.End("miss")
		return false
	}
	tokens, idents, err := payloadToScan(&payload, file, res.Bag)
	if err != nil {
		cacheSpan.Fail(err)
		cacheSpan.End("error")
		reportCacheError(res.Bag, file, err)
		return false
	}
	res.Tokens, res.Idents, res.Cached = tokens, idents, true
	cacheSpan.End("hit")
	return true
}

func reportCacheError(bag *diag.Bag, file *source.File, err error) {
	bag.Add(diag.New(diag.SevWarning, diag.IOCacheError,
		source.Span{File: file.ID}, "token cache: "+err.Error()))
}

// ScanError returns the unrecognized-character error from err, if it is one.
func ScanError(err error) (*lexer.Error, bool) {
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) {
		return lexErr, true
	}
	return nil, false
}
