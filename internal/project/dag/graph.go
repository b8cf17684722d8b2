package dag

import "slices"

type Graph struct {
	Edges   [][]NodeID // Edges[from] = []to, from depends on to
	Indeg   []int      // входящие степени по присутствующим узлам
	Present []bool     // узел объявлен, а не только упомянут как зависимость
}

// IssueKind classifies problems found while building a graph.
type IssueKind uint8

const (
	IssueMissing IssueKind = iota + 1 // dependency on a node that was never declared
	IssueSelf                         // node depends on itself
	IssueDuplicate                    // node declared twice
)

type Issue struct {
	Kind IssueKind
	From string
	To   string
}

// BuildGraph wires nodes into a graph. Self edges and duplicate edges are
// dropped; edges to undeclared nodes are kept but reported.
func BuildGraph(idx Index, nodes []Node) (Graph, []Issue) {
	count := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]NodeID, count),
		Indeg:   make([]int, count),
		Present: make([]bool, count),
	}
	var issues []Issue
	declared := make([]*Node, count)
	for i := range nodes {
		n := &nodes[i]
		id, ok := idx.NameToID[n.Name]
		if !ok {
			continue
		}
		if g.Present[id] {
			issues = append(issues, Issue{Kind: IssueDuplicate, From: n.Name})
			continue
		}
		g.Present[id] = true
		declared[id] = n
	}

	for from, n := range declared {
		if n == nil {
			continue
		}
		seen := make(map[NodeID]struct{}, len(n.Deps))
		for _, dep := range n.Deps {
			to, ok := idx.NameToID[dep]
			if !ok {
				continue
			}
			if int(to) == from {
				issues = append(issues, Issue{Kind: IssueSelf, From: n.Name, To: dep})
				continue
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			g.Edges[from] = append(g.Edges[from], to)
			if g.Present[to] {
				g.Indeg[to]++
			} else {
				issues = append(issues, Issue{Kind: IssueMissing, From: n.Name, To: dep})
			}
		}
		slices.Sort(g.Edges[from])
	}
	return g, issues
}
