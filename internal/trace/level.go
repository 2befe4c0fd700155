package trace

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff    Level = iota // no tracing
	LevelError               // only failures
	LevelPhase               // pipeline phase boundaries
	LevelDetail              // module-level events
	LevelDebug               // everything
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelPhase:
		return "phase"
	case LevelDetail:
		return "detail"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off", "":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "phase":
		return LevelPhase, nil
	case "detail":
		return LevelDetail, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
	}
}

// Zerolog maps the level onto the logger threshold. Phases log at Info,
// module events at Debug.
func (l Level) Zerolog() zerolog.Level {
	switch l {
	case LevelError:
		return zerolog.ErrorLevel
	case LevelPhase:
		return zerolog.InfoLevel
	case LevelDetail:
		return zerolog.DebugLevel
	case LevelDebug:
		return zerolog.TraceLevel
	default:
		return zerolog.Disabled
	}
}
