// Package trace configures the compiler's zerolog logger.
//
// Verbosity is controlled by levels:
//
//   - LevelOff: nothing
//   - LevelError: failures only
//   - LevelPhase: pipeline phase boundaries
//   - LevelDetail: per-module events (resolution, parse waves)
//   - LevelDebug: everything
//
// Usage:
//
//	log, closeFn, err := trace.New(trace.Config{Level: trace.LevelPhase, OutputPath: "-"})
//	span := trace.Phase(&log, "check")
//	defer span.End(nil)
package trace
