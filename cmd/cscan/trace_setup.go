package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cscan/internal/trace"
)

// hideCloser не даёт трейсеру закрыть stderr команды.
type hideCloser struct{ io.Writer }

// setupTracing initializes the tracer from the resolved settings and attaches
// it to the command context. The returned cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command, s *settings) (func(), error) {
	level, err := trace.ParseLevel(s.trace.Level)
	if err != nil {
		return nil, err
	}

	// --trace без уровня: включаем фазы
	if level == trace.LevelOff && s.trace.Output != "" {
		level = trace.LevelPhase
	}

	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	format, err := trace.ParseFormat(s.trace.Format)
	if err != nil {
		return nil, err
	}

	cfg := trace.Config{
		Level:      level,
		Format:     format,
		OutputPath: s.trace.Output,
	}
	if s.trace.Output == "" || s.trace.Output == "-" {
		cfg.Output = hideCloser{cmd.ErrOrStderr()}
	}

	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func() {
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}
