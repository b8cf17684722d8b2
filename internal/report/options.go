package report

import (
	"path/filepath"

	"github.com/MarkBennett/dart-sub004/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto uses a relative path when the file lies under BaseDir.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode maps a flag value to a PathMode.
func ParsePathMode(s string) (PathMode, bool) {
	switch s {
	case "", "auto":
		return PathModeAuto, true
	case "absolute":
		return PathModeAbsolute, true
	case "relative":
		return PathModeRelative, true
	case "basename":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

// TextFunc returns the analysed text of src, or nil when it is unknown.
type TextFunc func(src source.Source) []byte

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   int // lines of context above the primary line
	PathMode  PathMode
	BaseDir   string
	ShowNotes bool
	Max       int // 0 - без ограничения
}

// JSONOpts configures JSON and msgpack output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // добавить line/col
	PathMode         PathMode
	BaseDir          string
	Max              int
	IncludeNotes     bool
}

// FormatPath renders the path of src according to mode.
func FormatPath(src source.Source, mode PathMode, base string) string {
	p := filepath.FromSlash(src.Path())
	if src.IsExternal() {
		return src.Path()
	}
	switch mode {
	case PathModeAbsolute:
		return p
	case PathModeBasename:
		return filepath.Base(p)
	case PathModeRelative:
		if rel, err := filepath.Rel(base, p); err == nil {
			return rel
		}
		return p
	default:
		if base == "" {
			return p
		}
		if rel, err := filepath.Rel(base, p); err == nil && !filepath.IsAbs(rel) && rel != ".." && !hasParentPrefix(rel) {
			return rel
		}
		return p
	}
}

func hasParentPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
