package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"cscan/internal/diag"
	"cscan/internal/ident"
	"cscan/internal/source"
	"cscan/internal/token"
	"cscan/internal/trace"
)

// DirOptions configures TokenizeDir.
type DirOptions struct {
	Options
	Jobs       int      // <= 0: GOMAXPROCS
	Extensions []string // пусто: ".c" и ".cs"
	Progress   ProgressSink
}

// TokenizeDirResult содержит результат токенизации одного файла
type TokenizeDirResult struct {
	Path   string        // путь к файлу (как при обходе dir)
	FileID source.FileID // ID файла в FileSet
	Tokens []token.Token // Токены файла
	Idents *ident.Table
	Bag    *diag.Bag // Диагностики
	Err    error     // ошибка загрузки или *lexer.Error
	Cached bool
}

var defaultExtensions = []string{".c", ".cs"}

// ListSourceFiles возвращает отсортированный список файлов с нужными расширениями
func ListSourceFiles(dir string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// скрытые каталоги (.git, .cache) не обходим
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(extensions, filepath.Ext(path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Сортируем для детерминированного порядка
	slices.Sort(files)
	return files, nil
}

// TokenizeDir токенизирует все исходники в директории параллельно.
// Каждый файл получает свой лексер и свою таблицу идентификаторов;
// ошибка одного файла не останавливает остальные.
func TokenizeDir(ctx context.Context, dir string, opts DirOptions) (*source.FileSet, []TokenizeDirResult, error) {
	span, ctx := trace.BeginCtx(ctx, trace.ScopeDriver, "tokenize-dir")
	defer span.End("")

	files, err := ListSourceFiles(dir, opts.Extensions)
	if err != nil {
		span.Fail(err)
		return nil, nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	span.WithExtra("files", strconv.Itoa(len(files)))

	fileSet := source.NewFileSetWithBase(dir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	for _, path := range files {
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
	}

	// FileSet не потокобезопасен: загружаем последовательно
	endLoad := opts.Timer.Track("load")
	loadSpan, _ := trace.BeginCtx(ctx, trace.ScopePass, "load")
	fileIDs := make([]source.FileID, len(files))
	loadErrors := make([]error, len(files))
	for i, path := range files {
		fileID, err := fileSet.Load(path)
		if err != nil {
			// пустой виртуальный файл, чтобы у диагностики был путь
			loadErrors[i] = err
			fileID = fileSet.AddVirtual(path, nil)
		}
		fileIDs[i] = fileID
	}
	loadSpan.End("")
	endLoad(fmt.Sprintf("%d files", len(files)))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]TokenizeDirResult, len(files))

	endLex := opts.Timer.Track("lex")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			started := time.Now()
			file := fileSet.Get(fileIDs[i])
			res := &TokenizeResult{
				FileSet: fileSet,
				File:    file,
				Bag:     diag.NewBag(opts.MaxDiagnostics),
			}

			if loadErr := loadErrors[i]; loadErr != nil {
				res.Bag.Add(diag.NewError(diag.IOLoadFileError,
					source.Span{File: file.ID}, "failed to load file: "+loadErr.Error()))
				res.Err = loadErr
				emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: loadErr, Elapsed: time.Since(started)})
			} else {
				fileSpan, fctx := trace.BeginCtx(gctx, trace.ScopeFile, "file:"+path)
				emit(opts.Progress, Event{File: path, Stage: StageLex, Status: StatusWorking})
				scanFile(fctx, file, opts.Options, res, "lex/"+path)

				status := StatusDone
				if res.Err != nil {
					status = StatusError
					fileSpan.Fail(res.Err)
				}
				fileSpan.WithExtra("tokens", strconv.Itoa(len(res.Tokens))).End(string(status))
				emit(opts.Progress, Event{
					File:    path,
					Stage:   StageLex,
					Status:  status,
					Err:     res.Err,
					Elapsed: time.Since(started),
					Tokens:  len(res.Tokens),
				})
			}

			results[i] = TokenizeDirResult{
				Path:   path,
				FileID: file.ID,
				Tokens: res.Tokens,
				Idents: res.Idents,
				Bag:    res.Bag,
				Err:    res.Err,
				Cached: res.Cached,
			}
			return nil
		})
	}

	err = g.Wait()
	endLex("")
	if err != nil {
		span.Fail(err)
		return fileSet, results, err
	}
	return fileSet, results, nil
}
