package diagfmt

import (
	"path/filepath"

	"knox/internal/source"
)

func displayPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		if f.Flags&source.FileVirtual == 0 {
			if abs, err := filepath.Abs(f.Path); err == nil {
				return filepath.ToSlash(abs)
			}
		}
		return f.Path
	case PathModeRelative:
		return f.DisplayPath(fs.BaseDir())
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		if base := fs.BaseDir(); base != "" {
			return f.DisplayPath(base)
		}
		return f.Path
	}
}
