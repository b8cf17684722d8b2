package source

import (
	"path"
	"path/filepath"
	"strings"
)

// Source identifies one file under analysis. The zero value is "no source".
// Identity is the normalized path, so two Sources for the same file compare
// equal and can be used as map keys.
type Source struct {
	path string
}

// New returns the Source for p. Paths are cleaned and slash-separated;
// "dart:" and "package:" URIs are kept verbatim and denote external sources.
func New(p string) Source {
	if isExternalURI(p) {
		return Source{path: p}
	}
	return Source{path: normalizePath(p)}
}

func (s Source) Path() string   { return s.path }
func (s Source) String() string { return s.path }
func (s Source) IsZero() bool   { return s.path == "" }

// IsExternal reports whether s is an SDK or package URI that is never read
// through a Provider.
func (s Source) IsExternal() bool {
	return isExternalURI(s.path)
}

// Within reports whether s lives under the directory root. An empty root
// contains everything.
func (s Source) Within(root string) bool {
	if root == "" {
		return true
	}
	if s.IsExternal() {
		return false
	}
	root = normalizePath(root)
	if root == "/" || s.path == root {
		return true
	}
	return strings.HasPrefix(s.path, strings.TrimSuffix(root, "/")+"/")
}

// Resolve interprets an import/export/part URI relative to s.
func (s Source) Resolve(uri string) (Source, bool) {
	if uri == "" {
		return Source{}, false
	}
	if isExternalURI(uri) {
		return Source{path: uri}, true
	}
	if strings.Contains(uri, ":") {
		// other schemes (http:, file:) are not supported
		return Source{}, false
	}
	if path.IsAbs(uri) {
		return New(uri), true
	}
	return New(path.Join(path.Dir(s.path), uri)), true
}

func isExternalURI(p string) bool {
	return strings.HasPrefix(p, "dart:") || strings.HasPrefix(p, "package:")
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
