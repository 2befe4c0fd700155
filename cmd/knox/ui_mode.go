package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// autoMode is the value of the tri-state --ui and --color flags.
type autoMode string

const (
	modeAuto autoMode = "auto"
	modeOn   autoMode = "on"
	modeOff  autoMode = "off"
)

func parseAutoMode(flag, value string) (autoMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return modeAuto, nil
	case "on", "always":
		return modeOn, nil
	case "off", "never":
		return modeOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

func readUIMode(value string) (autoMode, error) {
	return parseAutoMode("ui", value)
}

// shouldUseTUI: auto включает прогресс только на терминале и без --quiet.
func shouldUseTUI(mode autoMode, quiet bool) bool {
	if mode == modeAuto {
		return !quiet && isTerminal(os.Stdout)
	}
	return mode == modeOn
}

// colorEnabled resolves --color for one output stream; auto honours NO_COLOR.
func colorEnabled(value string, w io.Writer) (bool, error) {
	mode, err := parseAutoMode("color", value)
	if err != nil || mode != modeAuto {
		return mode == modeOn, err
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f) && os.Getenv("NO_COLOR") == "", nil
}
