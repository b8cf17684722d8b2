package dag

import (
	"reflect"
	"testing"
)

func build(nodes []Node) (Index, Graph, []Issue) {
	idx := BuildIndex(nodes)
	g, issues := BuildGraph(idx, nodes)
	return idx, g, issues
}

func sccNames(idx Index, comps [][]NodeID) [][]string {
	out := make([][]string, len(comps))
	for i, c := range comps {
		out[i] = idx.Names(c)
	}
	return out
}

func TestBuildIndexIncludesDeps(t *testing.T) {
	idx := BuildIndex([]Node{{Name: "main", Deps: []string{"util", "math"}}, {Name: "util"}})
	want := []string{"main", "math", "util"}
	if !reflect.DeepEqual(idx.IDToName, want) {
		t.Fatalf("got %v, want %v", idx.IDToName, want)
	}
}

func TestBuildGraphIssues(t *testing.T) {
	_, g, issues := build([]Node{
		{Name: "a", Deps: []string{"a", "b", "b", "missing"}},
		{Name: "b"},
		{Name: "b"},
	})
	kinds := map[IssueKind]int{}
	for _, is := range issues {
		kinds[is.Kind]++
	}
	if kinds[IssueSelf] != 1 || kinds[IssueMissing] != 1 || kinds[IssueDuplicate] != 1 {
		t.Fatalf("unexpected issues: %+v", issues)
	}
	if len(g.Edges[0]) != 2 {
		t.Fatalf("expected deduplicated edges a->b, a->missing, got %v", g.Edges[0])
	}
}

func TestToposortKahn(t *testing.T) {
	idx, g, _ := build([]Node{
		{Name: "app", Deps: []string{"lib"}},
		{Name: "lib", Deps: []string{"core"}},
		{Name: "core"},
		{Name: "x", Deps: []string{"y"}},
		{Name: "y", Deps: []string{"x"}},
	})
	topo := ToposortKahn(g)
	if got := idx.Names(topo.Order); !reflect.DeepEqual(got, []string{"app", "lib", "core"}) {
		t.Fatalf("order: %v", got)
	}
	if !topo.Cyclic || !reflect.DeepEqual(idx.Names(topo.Cycles), []string{"x", "y"}) {
		t.Fatalf("cycles: %v", idx.Names(topo.Cycles))
	}
}

func TestStronglyConnectedDepsFirst(t *testing.T) {
	idx, g, _ := build([]Node{
		{Name: "app", Deps: []string{"a"}},
		{Name: "a", Deps: []string{"b"}},
		{Name: "b", Deps: []string{"a", "core"}},
		{Name: "core"},
	})
	got := sccNames(idx, StronglyConnected(g))
	want := [][]string{{"core"}, {"a", "b"}, {"app"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
