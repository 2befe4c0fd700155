package driver

import (
	"time"

	"knox/internal/ast"
	"knox/internal/desugar"
	"knox/internal/diag"
	"knox/internal/project"
	"knox/internal/source"
	"knox/internal/symbols"
)

// ModuleStatus is the resolver's three-state marker.
type ModuleStatus uint8

const (
	StatusUnvisited ModuleStatus = iota
	StatusInProgress
	StatusResolved
)

func (s ModuleStatus) String() string {
	switch s {
	case StatusUnvisited:
		return "unvisited"
	case StatusInProgress:
		return "in-progress"
	case StatusResolved:
		return "resolved"
	default:
		return "status(?)"
	}
}

// Module is one parsed and desugared source file.
type Module struct {
	ID      project.ModuleID
	Path    string
	File    *source.File
	Builder *ast.Builder
	AST     ast.FileID
	Desugar desugar.Result
	// SyntaxErrors counts lexer and parser errors of the file.
	SyntaxErrors uint
	ParseTime    time.Duration

	Imports []symbols.ImportBinding
	Meta    project.ModuleMeta
	Status  ModuleStatus
	Bag     *diag.Bag
}

// Reporter returns the reporter that feeds the module's bag.
func (m *Module) Reporter() diag.Reporter {
	return diag.BagReporter{Bag: m.Bag}
}
