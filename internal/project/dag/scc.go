package dag

import "slices"

// StronglyConnected returns the strongly connected components of the present
// nodes, dependencies first: every component appears after all components it
// depends on have appeared. Members of a component are sorted by id.
//
// Import cycles are legal, so each component is handled as one unit.
func StronglyConnected(g Graph) [][]NodeID {
	count := len(g.Edges)
	const unvisited = -1
	index := make([]int, count)
	low := make([]int, count)
	onStack := make([]bool, count)
	for i := range index {
		index[i] = unvisited
	}
	var (
		stack []NodeID
		out   [][]NodeID
		next  int
	)

	// Iterative Tarjan; frame.edge is the next edge to explore.
	type frame struct {
		node NodeID
		edge int
	}
	for root := 0; root < count; root++ {
		if !g.Present[root] || index[root] != unvisited {
			continue
		}
		call := []frame{{node: NodeID(root)}} //nolint:gosec // bounded by count
		index[root], low[root] = next, next
		next++
		stack = append(stack, NodeID(root)) //nolint:gosec // bounded by count
		onStack[root] = true

		for len(call) > 0 {
			top := &call[len(call)-1]
			v := top.node
			if top.edge < len(g.Edges[v]) {
				w := g.Edges[v][top.edge]
				top.edge++
				if !g.Present[w] {
					continue
				}
				if index[w] == unvisited {
					index[w], low[w] = next, next
					next++
					stack = append(stack, w)
					onStack[w] = true
					call = append(call, frame{node: w})
				} else if onStack[w] {
					low[v] = min(low[v], index[w])
				}
				continue
			}
			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1].node
				low[parent] = min(low[parent], low[v])
			}
			if low[v] == index[v] {
				var comp []NodeID
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				slices.Sort(comp)
				out = append(out, comp)
			}
		}
	}
	return out
}
