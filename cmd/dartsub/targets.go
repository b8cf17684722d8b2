package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/project"
	"github.com/MarkBennett/dart-sub004/internal/source"
)

// loadManifest discovers analysis.toml starting from the first path
// argument, or the working directory when there is none.
func loadManifest(args []string) (*project.Manifest, error) {
	start := "."
	if len(args) > 0 {
		start = args[0]
		if info, err := os.Stat(start); err != nil || !info.IsDir() {
			start = filepath.Dir(start)
		}
	}
	m, err := project.Discover(start)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	return m, nil
}

// collectTargets maps command line paths to sources. Directories expand to
// the workspace files beneath them; no paths means the whole workspace.
// Paths that cannot be read become IOContentUnavailable diagnostics.
func collectTargets(ctx context.Context, ws project.WorkspaceConfig, args []string) ([]source.Source, []diag.Diagnostic, error) {
	if len(args) == 0 {
		srcs, err := ws.Roots(ctx)
		return srcs, nil, err
	}

	var (
		out     []source.Source
		missing []diag.Diagnostic
		all     []source.Source
		listed  bool
		seen    = make(map[source.Source]bool)
	)
	add := func(src source.Source) {
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			missing = append(missing, diag.Diagnostic{
				Severity: diag.SevError,
				Code:     diag.IOContentUnavailable,
				Message:  fmt.Sprintf("cannot read %s: %v", arg, unwrapPathError(err)),
				Source:   source.New(abs),
			})
			continue
		}
		if !info.IsDir() {
			add(source.New(abs))
			continue
		}
		if !listed {
			if all, err = ws.Roots(ctx); err != nil {
				return nil, nil, err
			}
			listed = true
		}
		for _, src := range all {
			if src.Within(abs) {
				add(src)
			}
		}
	}
	return out, missing, nil
}

func unwrapPathError(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
