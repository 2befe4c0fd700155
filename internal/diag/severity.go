package diag

import "strconv"

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	// SevError blocks codegen; everything below it is advisory.
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "SEVERITY(" + strconv.Itoa(int(s)) + ")"
}

// IsError reports whether a diagnostic of this severity fails the build.
func (s Severity) IsError() bool { return s >= SevError }
