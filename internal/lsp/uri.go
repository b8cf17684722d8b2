package lsp

import (
	"net/url"
	"path/filepath"

	"github.com/MarkBennett/dart-sub004/internal/source"
)

func uriToPath(uri string) string {
	if uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "" && parsed.Scheme != "file" {
		return ""
	}
	path := parsed.Path
	if parsed.Scheme == "" {
		path = uri
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

func pathToURI(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// sourceOf maps a document URI to the engine's source identity. Non-file
// URIs map to the zero Source.
func sourceOf(uri string) source.Source {
	path := uriToPath(uri)
	if path == "" {
		return source.Source{}
	}
	return source.New(path)
}

func uriOf(src source.Source) string {
	return pathToURI(filepath.FromSlash(src.Path()))
}
