// Package trace provides phase tracing for the scanner driver.
//
// The trace package records when loading, lexing and per-file work begins
// and ends, to help diagnose slow inputs and stuck directory runs.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	cscan tokenize --trace=- --trace-level=phase main.c
//
// # Tracers
//
//   - Nop: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr), text or ndjson
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only failures
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: per-file events
//   - LevelDebug: everything
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "lex", parentID)
//	defer span.End("")
package trace
