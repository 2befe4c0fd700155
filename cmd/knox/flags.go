package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	color          string
	quiet          bool
	timings        bool
	maxDiagnostics int
	jobs           int
}

func readGlobalFlags(cmd *cobra.Command) (globalFlags, error) {
	pf := cmd.Root().PersistentFlags()
	var (
		g   globalFlags
		err error
	)
	if g.color, err = pf.GetString("color"); err != nil {
		return g, fmt.Errorf("failed to get color flag: %w", err)
	}
	if g.quiet, err = pf.GetBool("quiet"); err != nil {
		return g, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if g.timings, err = pf.GetBool("timings"); err != nil {
		return g, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if g.maxDiagnostics, err = pf.GetInt("max-diagnostics"); err != nil {
		return g, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if g.jobs, err = pf.GetInt("jobs"); err != nil {
		return g, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if _, err := colorEnabled(g.color, io.Discard); err != nil {
		return g, err
	}
	return g, nil
}

func (g globalFlags) colorFor(w io.Writer) bool {
	on, _ := colorEnabled(g.color, w)
	return on
}
