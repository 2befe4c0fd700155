package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"knox/internal/buildpipeline"
	"knox/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [path]",
	Short: "Apply suggested fixes from diagnostics",
	Long:  "Fix checks the package at path and applies the quick fixes attached to its diagnostics.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply every non-overlapping fix instead of the first one")
	fixCmd.Flags().String("id", "", "apply only the fix with this id (see `knox diag --fixes --format json`)")
	fixCmd.Flags().Bool("dry-run", false, "print the fixed files instead of writing them")
}

func runFix(cmd *cobra.Command, args []string) error {
	flags, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	id, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	opts := fix.ApplyOptions{DryRun: dryRun}
	switch {
	case id != "":
		opts.Mode, opts.TargetID = fix.ApplyModeID, id
	case all:
		opts.Mode = fix.ApplyModeAll
	}

	res, err := buildpipeline.Build(cmd.Context(), &buildpipeline.BuildRequest{
		Root:           packageRoot(args),
		MaxDiagnostics: flags.maxDiagnostics,
		Jobs:           flags.jobs,
		Logger:         loggerFrom(cmd),
		StopAfter:      buildpipeline.StageCheck,
	})
	if err != nil && !errors.Is(err, buildpipeline.ErrDiagnostics) {
		return err
	}

	applied, err := fix.Apply(res.Graph.FileSet, res.Diagnostics.Items(), opts)
	out := cmd.OutOrStdout()
	for _, s := range applied.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", s.ID, s.Reason)
	}
	if errors.Is(err, fix.ErrNoFixes) {
		if !flags.quiet {
			fmt.Fprintln(out, "nothing to fix")
		}
		return nil
	}
	if err != nil {
		return err
	}
	for _, a := range applied.Applied {
		if !flags.quiet {
			fmt.Fprintf(out, "fixed %s: %s (%s)\n", a.PrimaryPath, a.Title, a.Code.ID())
		}
	}
	if dryRun {
		for _, ch := range applied.FileChanges {
			fmt.Fprintf(out, "--- %s\n%s", ch.Path, ch.Content)
		}
	}
	return nil
}
