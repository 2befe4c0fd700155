// Package prof writes pprof profiles of a compiler run.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Config names the profile files; empty paths are skipped.
type Config struct {
	CPUPath string
	MemPath string
}

// Session is an active profiling run.
type Session struct {
	cpu     *os.File
	memPath string
}

// Start begins CPU profiling when cfg.CPUPath is set. The heap profile is
// written by Stop.
func Start(cfg Config) (*Session, error) {
	s := &Session{memPath: cfg.MemPath}
	if cfg.CPUPath == "" {
		return s, nil
	}
	f, err := os.Create(cfg.CPUPath)
	if err != nil {
		return nil, fmt.Errorf("cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("cpu profile: %w", err)
	}
	s.cpu = f
	return s, nil
}

// Stop ends the CPU profile and writes the heap profile. Safe to call twice.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.cpu != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpu.Close())
		s.cpu = nil
	}
	if s.memPath != "" {
		errs = append(errs, writeMem(s.memPath))
		s.memPath = ""
	}
	return errors.Join(errs...)
}

func writeMem(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
