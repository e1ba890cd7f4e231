package level

import (
	"fmt"
	"strings"
)

// CycleWarning reports a group of nodes whose connections form a cycle.
//
// Cycles are legal: the evaluator cuts the connection that closes a cycle
// and counts it as 0 flow. They are reported because that connection is
// usually wasted budget.
type CycleWarning struct {
	Path    []string `json:"path"` // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"`
}

// AnalyzeCycles finds every cycle group in def's connections.
//
// It finds strongly connected components with Tarjan's algorithm and
// reports each component of two or more nodes, and each self loop, once.
// Nodes and connections are visited in declaration order, so the result is
// deterministic. Connections naming unknown nodes are ignored.
//
// An acyclic level returns an empty list.
func AnalyzeCycles(def *Definition) []CycleWarning {
	g := newNameGraph(def)

	warnings := []CycleWarning{}
	for _, scc := range g.tarjanSCC() {
		if len(scc) == 1 && !g.hasSelfLoop(scc[0]) {
			continue
		}
		path := g.cyclePath(scc)
		warnings = append(warnings, CycleWarning{
			Path:    path,
			Message: fmt.Sprintf("cycle detected: %s", strings.Join(path, " -> ")),
		})
	}
	return warnings
}

// nameGraph is the connection graph of a definition, by node name.
type nameGraph struct {
	order []string            // declaration order
	index map[string]int      // name -> declaration index
	succ  map[string][]string // connection order
}

func newNameGraph(def *Definition) *nameGraph {
	g := &nameGraph{
		index: make(map[string]int, len(def.Nodes)),
		succ:  make(map[string][]string, len(def.Nodes)),
	}
	for _, n := range def.Nodes {
		if _, dup := g.index[n.Name]; dup {
			continue
		}
		g.index[n.Name] = len(g.order)
		g.order = append(g.order, n.Name)
	}
	for _, c := range def.Connections {
		_, okFrom := g.index[c.From]
		_, okTo := g.index[c.To]
		if okFrom && okTo {
			g.succ[c.From] = append(g.succ[c.From], c.To)
		}
	}
	return g
}

func (g *nameGraph) hasSelfLoop(name string) bool {
	for _, next := range g.succ[name] {
		if next == name {
			return true
		}
	}
	return false
}

// tarjanSCC returns the strongly connected components, ordered by the
// declaration index of their first member. Members are in declaration order.
func (g *nameGraph) tarjanSCC() [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.succ[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, g.sorted(scc))
		}
	}

	for _, name := range g.order {
		if _, visited := indices[name]; !visited {
			strongConnect(name)
		}
	}

	// Components complete in reverse topological order; report them in
	// declaration order instead.
	for i := 1; i < len(sccs); i++ {
		for j := i; j > 0 && g.index[sccs[j][0]] < g.index[sccs[j-1][0]]; j-- {
			sccs[j], sccs[j-1] = sccs[j-1], sccs[j]
		}
	}
	return sccs
}

func (g *nameGraph) sorted(names []string) []string {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && g.index[names[j]] < g.index[names[j-1]]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return names
}

// cyclePath returns a shortest cycle through the first member of scc,
// staying inside scc: [start, ..., start].
func (g *nameGraph) cyclePath(scc []string) []string {
	start := scc[0]
	if len(scc) == 1 {
		return []string{start, start}
	}

	member := make(map[string]bool, len(scc))
	for _, name := range scc {
		member[name] = true
	}

	parent := map[string]string{}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.succ[cur] {
			if !member[next] {
				continue
			}
			if next == start {
				path := []string{start}
				for n := cur; n != start; n = parent[n] {
					path = append(path, n)
				}
				path = append(path, start)
				// path is start, back-to-front members, start; flip the middle.
				for i, j := 1, len(path)-2; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			if _, seen := parent[next]; !seen {
				parent[next] = cur
				queue = append(queue, next)
			}
		}
	}
	return []string{start, start}
}
