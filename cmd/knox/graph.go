package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"knox/internal/buildpipeline"
	"knox/internal/driver"
)

var graphCmd = &cobra.Command{
	Use:   "graph [flags] [path]",
	Short: "Print the module import graph of a package",
	Long:  "Graph resolves every module reachable from the entry and prints imports, import cycles and check order.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGraph,
}

func init() {
	graphCmd.Flags().String("format", "text", "output format (text|json|yaml)")
}

type graphModule struct {
	ID      string   `json:"id" yaml:"id"`
	Path    string   `json:"path" yaml:"path"`
	Imports []string `json:"imports,omitempty" yaml:"imports,omitempty"`
}

type graphView struct {
	Entry   string        `json:"entry" yaml:"entry"`
	Modules []graphModule `json:"modules" yaml:"modules"`
	// Cycles lists import cycles, one module list per cycle.
	Cycles [][]string `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	// Batches is the check order; modules of a batch can be checked in parallel.
	Batches [][]string `json:"batches" yaml:"batches"`
}

func runGraph(cmd *cobra.Command, args []string) error {
	flags, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "text" && format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format: %s", format)
	}

	res, err := buildpipeline.Build(cmd.Context(), &buildpipeline.BuildRequest{
		Root:           packageRoot(args),
		MaxDiagnostics: flags.maxDiagnostics,
		Jobs:           flags.jobs,
		Logger:         loggerFrom(cmd),
		StopAfter:      buildpipeline.StageResolve,
	})
	if err != nil && !errors.Is(err, buildpipeline.ErrDiagnostics) {
		return err
	}
	if res.Diagnostics != nil && res.Diagnostics.Len() > 0 {
		printPretty(cmd.ErrOrStderr(), res.Diagnostics, res.Graph.FileSet, flags)
	}
	return renderGraph(cmd.OutOrStdout(), graphViewOf(res.Graph), format)
}

func graphViewOf(g *driver.ModuleGraph) graphView {
	var view graphView
	if entry := g.Entry(); entry != nil {
		view.Entry = entry.ID.String()
	}
	for _, mod := range g.Modules {
		gm := graphModule{ID: mod.ID.String(), Path: mod.Path}
		for _, imp := range mod.Meta.Imports {
			gm.Imports = append(gm.Imports, imp.Target.String())
		}
		view.Modules = append(view.Modules, gm)
	}
	for _, comp := range g.Cond.Components {
		if !comp.Cyclic {
			continue
		}
		cycle := make([]string, 0, len(comp.Nodes))
		for _, id := range comp.Nodes {
			cycle = append(cycle, g.Index.Module(id).String())
		}
		view.Cycles = append(view.Cycles, cycle)
	}
	for _, batch := range g.Batches() {
		var names []string
		for _, group := range batch {
			for _, mod := range group {
				names = append(names, mod.ID.String())
			}
		}
		view.Batches = append(view.Batches, names)
	}
	return view
}

func renderGraph(w io.Writer, view graphView, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "entry: %s\n", view.Entry)
	for _, mod := range view.Modules {
		fmt.Fprintf(&b, "%s (%s)\n", mod.ID, mod.Path)
		for _, imp := range mod.Imports {
			fmt.Fprintf(&b, "  -> %s\n", imp)
		}
	}
	for _, cycle := range view.Cycles {
		fmt.Fprintf(&b, "cycle: %s\n", strings.Join(cycle, ", "))
	}
	for i, batch := range view.Batches {
		fmt.Fprintf(&b, "batch %d: %s\n", i, strings.Join(batch, " "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
