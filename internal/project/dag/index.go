package dag

import "sort"

type NodeID uint32

// Index assigns dense ids to node names in sorted order so that every
// traversal over the graph is deterministic.
type Index struct {
	NameToID map[string]NodeID
	IDToName []string
}

// Node is one library (or any named unit) with its outgoing dependencies.
type Node struct {
	Name string
	Deps []string
}

// собрать уникальные имена, sort.Strings, раздать ID по порядку
func BuildIndex(nodes []Node) Index {
	uniq := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.Name != "" {
			uniq[n.Name] = struct{}{}
		}
		for _, dep := range n.Deps {
			if dep != "" {
				uniq[dep] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	sort.Strings(names)

	nameToID := make(map[string]NodeID, len(names))
	for i, name := range names {
		nameToID[name] = NodeID(i) //nolint:gosec // bounded by len(names)
	}
	return Index{NameToID: nameToID, IDToName: names}
}

// Names maps ids back to names.
func (idx Index) Names(ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[int(id)]
	}
	return out
}
