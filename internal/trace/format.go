package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto   Format = iota // by file extension
	FormatText                 // human-readable text
	FormatNDJSON               // newline-delimited JSON
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatText:
		return "text"
	case FormatNDJSON:
		return "ndjson"
	default:
		return "unknown"
	}
}

// ParseFormat converts a string to Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	default:
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
	}
}

// detect resolves FormatAuto from the output path.
func detect(format Format, path string) Format {
	if format != FormatAuto {
		return format
	}
	if strings.HasSuffix(path, ".ndjson") || strings.HasSuffix(path, ".json") {
		return FormatNDJSON
	}
	return FormatText
}

func writerFor(w io.Writer, format Format) io.Writer {
	if format == FormatNDJSON {
		return w
	}
	return zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05.000"}
}
