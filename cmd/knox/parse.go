package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"knox/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.kx",
	Short: "Parse a knox source file and print its syntax tree",
	Long:  `Parse builds and desugars the syntax tree of one file; imports are not followed`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().Bool("stats", false, "print generated accessor counts")
}

func runParse(cmd *cobra.Command, args []string) error {
	flags, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	stats, err := cmd.Flags().GetBool("stats")
	if err != nil {
		return fmt.Errorf("failed to get stats flag: %w", err)
	}

	result, err := driver.Parse(args[0], flags.maxDiagnostics)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}
	if result.Bag.Len() > 0 {
		printPretty(cmd.ErrOrStderr(), result.Bag, result.FileSet, flags)
	}
	if err := result.Builder.Dump(cmd.OutOrStdout(), result.FileID); err != nil {
		return err
	}
	if stats {
		fmt.Fprintf(cmd.OutOrStdout(), "accessors: %d getters, %d setters, %d conflicts\n",
			result.Desugar.Getters, result.Desugar.Setters, result.Desugar.Conflicts)
	}
	if result.Bag.HasErrors() {
		return fmt.Errorf("%d syntax errors", result.Bag.ErrorCount())
	}
	return nil
}
