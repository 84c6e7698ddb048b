package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cscan/internal/diag"
	"cscan/internal/diagfmt"
	"cscan/internal/driver"
	"cscan/internal/observ"
	"cscan/internal/source"
	"cscan/internal/token"
	"cscan/internal/ui"
)

func newTokenizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize [flags] file.c",
		Short: "Tokenize a source file",
		Long:  `Tokenize breaks down a source file (or, with --dir, every source file under a directory) into tokens`,
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenize,
	}
	addTokenizeFlags(cmd)
	return cmd
}

func addTokenizeFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "trace", "output format (trace|pretty|json)")
	cmd.Flags().Bool("trivia", false, "keep whitespace and comments in pretty/json output")
	cmd.Flags().Bool("dir", false, "treat the argument as a directory and tokenize every source file in it")
	cmd.Flags().Int("jobs", 0, "max parallel files in --dir mode (0 = GOMAXPROCS)")
	cmd.Flags().String("ui", "auto", "progress view in --dir mode (auto|on|off)")
	cmd.Flags().Bool("cache", false, "reuse tokens from the disk cache")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	cleanup, err := setupTracing(cmd, s)
	if err != nil {
		return err
	}
	defer cleanup()

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	var timer *observ.Timer
	if s.timings {
		timer = observ.NewTimer()
	}

	cache, err := openCache(s)
	if err != nil {
		return err
	}

	opts := driver.Options{
		MaxDiagnostics: s.maxDiagnostics,
		KeepTrivia:     s.trivia,
		Cache:          cache,
		Timer:          timer,
	}

	dirMode, err := cmd.Flags().GetBool("dir")
	if err != nil {
		return fmt.Errorf("failed to get dir flag: %w", err)
	}
	if dirMode {
		err = tokenizeDir(cmd, args[0], s, opts)
	} else {
		err = tokenizeFile(cmd, args[0], s, opts)
	}

	if timer != nil && !s.quiet {
		timer.WriteSummary(cmd.ErrOrStderr())
	}
	return err
}

func openCache(s *settings) (*driver.DiskCache, error) {
	if !s.cache {
		return nil, nil
	}
	var (
		cache *driver.DiskCache
		err   error
	)
	if s.cacheDir != "" {
		cache, err = driver.NewDiskCache(s.cacheDir)
	} else {
		cache, err = driver.OpenDiskCache("cscan")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open token cache: %w", err)
	}
	return cache, nil
}

func tokenizeFile(cmd *cobra.Command, path string, s *settings, opts driver.Options) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	result, err := driver.Tokenize(cmd.Context(), path, opts)
	if err != nil {
		fmt.Fprintf(stderr, "cscan: %v\n", err)
		return exitCode(1)
	}

	// Сначала токены (до места ошибки), потом диагностика
	switch s.format {
	case "trace":
		err = diagfmt.FormatTokensTrace(stdout, result.Tokens)
	case "pretty":
		err = diagfmt.FormatTokensPretty(stdout, result.Tokens, result.FileSet)
	case "json":
		err = diagfmt.FormatTokensJSON(stdout, tokensDoc(path, result.Tokens, result.Idents.Snapshot(), result.Bag, result.Err, result.FileSet))
	}
	if err != nil {
		return fmt.Errorf("failed to write tokens: %w", err)
	}

	printDiagnostics(stderr, s, result.Bag, result.FileSet)
	if result.Err != nil {
		return exitCode(1)
	}
	return nil
}

type dirScan struct {
	fileSet *source.FileSet
	results []driver.TokenizeDirResult
}

func tokenizeDir(cmd *cobra.Command, dir string, s *settings, opts driver.Options) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	dirOpts := driver.DirOptions{
		Options:    opts,
		Jobs:       jobs,
		Extensions: s.extensions,
	}
	scan := func(ctx context.Context, sink driver.ProgressSink) (dirScan, error) {
		o := dirOpts
		o.Progress = sink
		fileSet, results, err := driver.TokenizeDir(ctx, dir, o)
		return dirScan{fileSet: fileSet, results: results}, err
	}

	var outcome dirScan
	if !s.quiet && shouldUseTUI(mode, stderr) {
		files, listErr := driver.ListSourceFiles(dir, s.extensions)
		if listErr != nil {
			fmt.Fprintf(stderr, "cscan: %v\n", listErr)
			return exitCode(1)
		}
		outcome, err = ui.RunDirScan(cmd.Context(), "tokenize "+dir, files, stderr, scan)
	} else {
		outcome, err = scan(cmd.Context(), nil)
	}
	if err != nil {
		fmt.Fprintf(stderr, "cscan: %v\n", err)
		return exitCode(1)
	}

	var (
		docs   []diagfmt.TokensOutput
		failed int
		warned int
		total  int
	)
	for i, res := range outcome.results {
		switch {
		case res.Err != nil:
			failed++
		case res.Bag != nil && res.Bag.HasWarnings():
			warned++
		}
		total += len(res.Tokens)

		switch s.format {
		case "trace", "pretty":
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			fmt.Fprintf(stdout, "==> %s <==\n", res.Path)
			if s.format == "trace" {
				err = diagfmt.FormatTokensTrace(stdout, res.Tokens)
			} else {
				err = diagfmt.FormatTokensPretty(stdout, res.Tokens, outcome.fileSet)
			}
			if err != nil {
				return fmt.Errorf("failed to write tokens: %w", err)
			}
		case "json":
			var idents []string
			if res.Idents != nil {
				idents = res.Idents.Snapshot()
			}
			docs = append(docs, tokensDoc(res.Path, res.Tokens, idents, res.Bag, res.Err, outcome.fileSet))
		}
		printDiagnostics(stderr, s, res.Bag, outcome.fileSet)
	}
	if s.format == "json" {
		if err := diagfmt.FormatTokensJSONList(stdout, docs); err != nil {
			return fmt.Errorf("failed to write tokens: %w", err)
		}
	}

	if !s.quiet {
		fmt.Fprintf(stderr, "%d files, %d tokens, %d with warnings, %d failed\n", len(outcome.results), total, warned, failed)
	}
	if failed > 0 {
		return exitCode(1)
	}
	return nil
}

func tokensDoc(path string, tokens []token.Token, idents []string, bag *diag.Bag, scanErr error, fs *source.FileSet) diagfmt.TokensOutput {
	doc := diagfmt.BuildTokensOutput(path, tokens, idents)
	if bag != nil && bag.Len() > 0 {
		bag.Sort()
		diags := diagfmt.BuildDiagnosticsOutput(bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
		})
		doc.Diagnostics = &diags
	}
	if scanErr != nil {
		doc.Error = scanErr.Error()
	}
	return doc
}

// printDiagnostics выводит диагностику в stderr; в --quiet только ошибки.
func printDiagnostics(w io.Writer, s *settings, bag *diag.Bag, fs *source.FileSet) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	if s.quiet && !bag.HasErrors() {
		return
	}
	bag.Sort()
	bag.Dedup()
	diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
		Color:     s.color,
		Context:   1,
		ShowNotes: true,
	})
}
