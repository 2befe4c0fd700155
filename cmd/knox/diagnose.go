package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"knox/internal/buildpipeline"
	"knox/internal/diag"
	"knox/internal/diagfmt"
	"knox/internal/source"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] [path]",
	Short: "Check a knox package and report diagnostics",
	Long:  "Diag resolves and type-checks the package at path without generating code.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|json|yaml)")
	diagCmd.Flags().Bool("notes", true, "include notes")
	diagCmd.Flags().Bool("fixes", false, "include suggested fixes")
	diagCmd.Flags().Bool("preview", false, "show fix previews")
	diagCmd.Flags().Bool("positions", true, "include line/column in json and yaml output")
}

type diagOptions struct {
	format    string
	notes     bool
	fixes     bool
	preview   bool
	positions bool
}

func readDiagOptions(cmd *cobra.Command) (diagOptions, error) {
	var (
		o   diagOptions
		err error
	)
	if o.format, err = cmd.Flags().GetString("format"); err != nil {
		return o, err
	}
	o.format = strings.ToLower(o.format)
	switch o.format {
	case "pretty", "json", "yaml":
	default:
		return o, fmt.Errorf("unknown format: %s", o.format)
	}
	if o.notes, err = cmd.Flags().GetBool("notes"); err != nil {
		return o, err
	}
	if o.fixes, err = cmd.Flags().GetBool("fixes"); err != nil {
		return o, err
	}
	if o.preview, err = cmd.Flags().GetBool("preview"); err != nil {
		return o, err
	}
	if o.positions, err = cmd.Flags().GetBool("positions"); err != nil {
		return o, err
	}
	return o, nil
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	flags, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	opts, err := readDiagOptions(cmd)
	if err != nil {
		return err
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
	if flags.timings {
		printStageTimings(cmd.ErrOrStderr(), res.Timings, nil)
	}
	if err := writeDiagnostics(cmd.OutOrStdout(), res.Diagnostics, res.Graph.FileSet, flags, opts); err != nil {
		return err
	}
	if res.Diagnostics.HasErrors() {
		return fmt.Errorf("%s", diagfmt.Summary(res.Diagnostics))
	}
	return nil
}

func writeDiagnostics(w io.Writer, bag *diag.Bag, fs *source.FileSet, flags globalFlags, opts diagOptions) error {
	jsonOpts := diagfmt.JSONOpts{
		IncludePositions: opts.positions,
		PathMode:         diagfmt.PathModeAuto,
		Max:              flags.maxDiagnostics,
		IncludeNotes:     opts.notes,
		IncludeFixes:     opts.fixes,
		IncludePreviews:  opts.preview,
	}
	switch opts.format {
	case "json":
		return diagfmt.JSON(w, bag, fs, jsonOpts)
	case "yaml":
		return diagfmt.YAML(w, bag, fs, jsonOpts)
	}
	diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
		Color:       flags.colorFor(w),
		Context:     1,
		PathMode:    diagfmt.PathModeAuto,
		ShowNotes:   opts.notes,
		ShowFixes:   opts.fixes,
		ShowPreview: opts.preview,
	})
	if !flags.quiet && bag.Len() > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, diagfmt.Summary(bag))
	}
	return nil
}

func printPretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, flags globalFlags) {
	_ = writeDiagnostics(w, bag, fs, flags, diagOptions{format: "pretty", notes: true})
}
