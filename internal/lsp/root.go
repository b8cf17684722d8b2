package lsp

import (
	"os"
	"path/filepath"
)

// resolveStartDir turns a workspace folder or an opened file into the
// directory where manifest discovery starts.
func resolveStartDir(path string) string {
	if path == "" {
		return "."
	}
	path = filepath.FromSlash(path)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}
