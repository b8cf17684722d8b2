package workspace

import (
	"github.com/MarkBennett/dart-sub004/internal/project/dag"
	"github.com/MarkBennett/dart-sub004/internal/source"
)

func buildGraph(deps map[source.Source][]source.Source) (dag.Index, dag.Graph) {
	nodes := make([]dag.Node, 0, len(deps))
	for lib, ds := range deps {
		n := dag.Node{Name: lib.Path()}
		for _, d := range ds {
			n.Deps = append(n.Deps, d.Path())
		}
		nodes = append(nodes, n)
	}
	idx := dag.BuildIndex(nodes)
	g, _ := dag.BuildGraph(idx, nodes)
	return idx, g
}

func toSources(names []string) []source.Source {
	out := make([]source.Source, len(names))
	for i, name := range names {
		out[i] = source.New(name)
	}
	return out
}

// ResolveOrder groups libraries into strongly connected components,
// dependencies first. deps maps each library to the libraries it imports
// or exports; targets that are not keys of deps are ignored.
func ResolveOrder(deps map[source.Source][]source.Source) [][]source.Source {
	idx, g := buildGraph(deps)
	comps := dag.StronglyConnected(g)
	out := make([][]source.Source, 0, len(comps))
	for _, comp := range comps {
		out = append(out, toSources(idx.Names(comp)))
	}
	return out
}

// ImportCycles returns the import cycles among the recorded libraries.
func (c *Context) ImportCycles() [][]source.Source {
	c.mu.RLock()
	deps := make(map[source.Source][]source.Source, len(c.libraries))
	for root, lib := range c.libraries {
		deps[root] = lib.Dependencies()
	}
	c.mu.RUnlock()

	idx, g := buildGraph(deps)
	if !dag.ToposortKahn(g).Cyclic {
		return nil
	}
	var out [][]source.Source
	for _, comp := range dag.StronglyConnected(g) {
		if len(comp) > 1 {
			out = append(out, toSources(idx.Names(comp)))
		}
	}
	return out
}
