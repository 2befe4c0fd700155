package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"knox/internal/diagfmt"
	"knox/internal/driver"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.kx",
	Short: "Tokenize a knox source file",
	Long:  `Tokenize breaks down a knox source file into its constituent tokens`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	tokenizeCmd.Flags().Bool("trivia", false, "keep comments as leading trivia")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	trivia, err := cmd.Flags().GetBool("trivia")
	if err != nil {
		return fmt.Errorf("failed to get trivia flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	flags, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}

	result, err := driver.Tokenize(filePath, flags.maxDiagnostics, trivia)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	// Диагностика в stderr, токены в stdout
	if result.Bag.Len() > 0 {
		printPretty(cmd.ErrOrStderr(), result.Bag, result.FileSet, flags)
	}

	if format == "json" {
		return diagfmt.FormatTokensJSON(cmd.OutOrStdout(), result.Tokens)
	}
	return diagfmt.FormatTokensPretty(cmd.OutOrStdout(), result.Tokens, result.FileSet)
}
