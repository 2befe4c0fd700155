package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"knox/internal/buildpipeline"
	"knox/internal/observ"
	"knox/internal/project"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [path]",
	Short: "Build a knox package into a .wasm module",
	Long:  "Build compiles the package at path (default: current directory) using knox.toml when present.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  buildExecution,
}

func init() {
	buildCmd.Flags().StringP("output", "o", "", "output file (default: target/<package>.wasm)")
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	buildCmd.Flags().String("emit-surface", "", "write the export/import surface as msgpack to this file")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	flags, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	surfacePath, err := cmd.Flags().GetString("emit-surface")
	if err != nil {
		return err
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	root := packageRoot(args)
	if output == "" {
		output = filepath.Join(root, "target", packageName(root)+".wasm")
	}

	timer := observ.NewTimer()
	req := &buildpipeline.BuildRequest{
		Root:           root,
		Output:         output,
		SurfacePath:    surfacePath,
		MaxDiagnostics: flags.maxDiagnostics,
		Jobs:           flags.jobs,
		Logger:         loggerFrom(cmd),
		Timer:          timer,
	}

	var res buildpipeline.BuildResult
	if shouldUseTUI(uiModeValue, flags.quiet) {
		res, err = runBuildWithUI(cmd.Context(), cmd.OutOrStdout(), "build "+packageName(root), req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), req)
	}

	if res.Diagnostics != nil && res.Diagnostics.Len() > 0 && res.Graph != nil {
		printPretty(cmd.ErrOrStderr(), res.Diagnostics, res.Graph.FileSet, flags)
	}
	if flags.timings {
		printStageTimings(cmd.ErrOrStderr(), res.Timings, timer)
	}
	if err != nil {
		if errors.Is(err, buildpipeline.ErrDiagnostics) {
			return fmt.Errorf("build failed: %w", err)
		}
		return err
	}
	if !flags.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "built %s (%d bytes)\n", res.OutputPath, len(res.Wasm.Binary))
	}
	return nil
}

func packageRoot(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return "."
	}
	return args[0]
}

// packageName берёт [package].name из knox.toml, иначе имя каталога.
func packageName(root string) string {
	path := filepath.Join(root, project.ManifestName)
	if _, err := os.Stat(path); err == nil {
		if m, err := project.LoadManifest(path); err == nil {
			return m.Name
		}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "out"
	}
	return filepath.Base(abs)
}
