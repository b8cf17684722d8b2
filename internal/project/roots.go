package project

import (
	"context"

	"github.com/MarkBennett/dart-sub004/internal/source"
)

// Roots lists the workspace sources as analysis roots. Parts among them are
// redirected to their library by the engine.
func (c WorkspaceConfig) Roots(ctx context.Context) ([]source.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	paths, err := c.Sources()
	if err != nil {
		return nil, err
	}
	out := make([]source.Source, 0, len(paths))
	for _, p := range paths {
		out = append(out, source.New(p))
	}
	return out, nil
}
