package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"knox/internal/prof"
	"knox/internal/trace"
)

var (
	closeTrace    = func() error { return nil }
	stopProfiling = func() error { return nil }
	finalizeOnce  sync.Once
)

// setupLogging builds the zerolog logger from --trace flags and puts it in
// the command context, where zerolog.Ctx finds it.
func setupLogging(cmd *cobra.Command, _ []string) error {
	flags, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	color.NoColor = !flags.colorFor(os.Stdout)

	pf := cmd.Root().PersistentFlags()
	levelStr, err := pf.GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	output, err := pf.GetString("trace-file")
	if err != nil {
		return fmt.Errorf("failed to get trace-file flag: %w", err)
	}
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	log, closeFn, err := trace.New(trace.Config{Level: level, OutputPath: output})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	closeTrace = closeFn

	cpuPath, err := pf.GetString("cpu-profile")
	if err != nil {
		return fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memPath, err := pf.GetString("mem-profile")
	if err != nil {
		return fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	profiling, err := prof.Start(prof.Config{CPUPath: cpuPath, MemPath: memPath})
	if err != nil {
		return err
	}
	stopProfiling = profiling.Stop
	finalizeOnce.Do(func() {
		cobra.OnFinalize(func() {
			if err := stopProfiling(); err != nil {
				fmt.Fprintf(os.Stderr, "profiling: %v\n", err)
			}
			_ = closeTrace()
		})
	})
	cmd.SetContext(log.WithContext(cmd.Context()))
	return nil
}

func loggerFrom(cmd *cobra.Command) *zerolog.Logger {
	return zerolog.Ctx(cmd.Context())
}
