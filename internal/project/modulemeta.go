package project

import (
	"knox/internal/source"
)

// ImportMeta is one resolved import edge.
type ImportMeta struct {
	Target ModuleID
	Span   source.Span
}

// ModuleMeta is what the resolver records per module for graph building.
type ModuleMeta struct {
	ID          ModuleID
	File        source.FileID
	FilePath    string
	Span        source.Span
	Imports     []ImportMeta
	ContentHash Digest // хеш содержимого файла (из FileSet)
	ModuleHash  Digest // агрегированный хеш с учётом зависимостей
}
