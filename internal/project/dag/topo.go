package dag

import "slices"

type Topo struct {
	Order   []NodeID   // dependents before dependencies
	Batches [][]NodeID // волны независимых узлов
	Cyclic  bool
	Cycles  []NodeID // узлы, оставшиеся в цикле
}

// ToposortKahn orders present nodes so that a node comes before everything it
// depends on. Nodes on cycles are left out of Order and listed in Cycles.
func ToposortKahn(g Graph) *Topo {
	count := len(g.Edges)
	indeg := slices.Clone(g.Indeg)
	topo := &Topo{}

	var current []NodeID
	active := 0
	for i := 0; i < count; i++ {
		if !g.Present[i] {
			continue
		}
		active++
		if indeg[i] == 0 {
			current = append(current, NodeID(i)) //nolint:gosec // bounded by count
		}
	}

	visited := 0
	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)
		topo.Order = append(topo.Order, batch...)
		visited += len(batch)

		var next []NodeID
		for _, id := range batch {
			for _, to := range g.Edges[id] {
				if !g.Present[to] {
					continue
				}
				indeg[to]--
				if indeg[to] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited < active {
		topo.Cyclic = true
		for i := 0; i < count; i++ {
			if g.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, NodeID(i)) //nolint:gosec // bounded by count
			}
		}
	}
	return topo
}
