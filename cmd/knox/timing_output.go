package main

import (
	"fmt"
	"io"
	"time"

	"knox/internal/buildpipeline"
	"knox/internal/observ"
)

// printStageTimings prints one line per recorded stage, then the phase summary.
func printStageTimings(out io.Writer, timings buildpipeline.Timings, timer *observ.Timer) {
	for _, stage := range buildpipeline.Stages {
		if !timings.Has(stage) {
			continue
		}
		fmt.Fprintf(out, "%-8s %.1f ms\n", stage, toMillis(timings.Duration(stage)))
	}
	if timer != nil {
		fmt.Fprint(out, timer.Summary())
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
