// Directed file-level include graph. Nodes are canonical paths, edges
// point from includer to included file. Neighbor order is insertion
// order so traversals are deterministic across runs.
package graph

import (
	"sync"

	"github.com/standardbeagle/cppdeps/internal/types"
)

// Graph stores adjacency sets plus reverse-dependency counters. AddEdge
// is safe under concurrent writers; reads taken after the analysis
// barrier need no coordination but are locked anyway for safety.
type Graph struct {
	mu      sync.RWMutex
	order   []string                       // nodes in first-touch order
	adj     map[string][]string            // insertion-ordered neighbors
	adjSet  map[string]map[string]struct{} // membership for dedup
	reverse map[string]int                 // distinct includers per target
}

func New() *Graph {
	return &Graph{
		adj:     make(map[string][]string),
		adjSet:  make(map[string]map[string]struct{}),
		reverse: make(map[string]int),
	}
}

// AddEdge records from → to. Idempotent: duplicate edges neither grow
// the adjacency set nor bump the reverse counter, so the counter is the
// distinct fan-in. Self-edges are dropped. Returns true when the edge
// was new.
func (g *Graph) AddEdge(from, to string) bool {
	if from == to {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	set, ok := g.adjSet[from]
	if !ok {
		set = make(map[string]struct{})
		g.adjSet[from] = set
		g.order = append(g.order, from)
	}
	if _, dup := set[to]; dup {
		return false
	}
	set[to] = struct{}{}
	g.adj[from] = append(g.adj[from], to)
	g.reverse[to]++
	return true
}

// Neighbors returns a copy of from's outgoing targets in insertion order.
func (g *Graph) Neighbors(from string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.adj[from]))
	copy(out, g.adj[from])
	return out
}

// OutDegree is the number of distinct files from includes.
func (g *Graph) OutDegree(from string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.adj[from])
}

// ReverseCount is the distinct fan-in of to.
func (g *Graph) ReverseCount(to string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reverse[to]
}

// EdgeCount is the total number of distinct edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, targets := range g.adj {
		n += len(targets)
	}
	return n
}

// DetectCycles runs a depth-first walk over every file in the supplied
// order, maintaining a visited set and an on-stack set. Reaching a node
// already on the stack reports the stack suffix from that node as one
// cycle. This reports at most one cycle per re-visitation event rather
// than an exhaustive cycle basis; a dense cyclic cluster may surface as
// one or a few overlapping cycles.
func (g *Graph) DetectCycles(files []string) []types.Cycle {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var cycles []types.Cycle
	visited := make(map[string]bool)
	onStack := make(map[string]int) // node -> stack index
	var stack []string

	var dfs func(node string)
	dfs = func(node string) {
		visited[node] = true
		onStack[node] = len(stack)
		stack = append(stack, node)

		for _, dep := range g.adj[node] {
			if idx, ok := onStack[dep]; ok {
				cycle := make(types.Cycle, len(stack)-idx)
				copy(cycle, stack[idx:])
				cycles = append(cycles, cycle)
				continue
			}
			if !visited[dep] {
				dfs(dep)
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, node)
	}

	for _, f := range files {
		if !visited[f] {
			dfs(f)
		}
	}

	return cycles
}

// UnusedHeaders returns, in the given catalog order, every header that
// is never the target of any include edge (reverse-dependency count
// zero). Headers referenced only through angle-bracket includes still
// count as unused, since those never resolve.
func (g *Graph) UnusedHeaders(headers []types.SourceFile) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []string
	for _, h := range headers {
		if g.reverse[h.Path] == 0 {
			out = append(out, h.Path)
		}
	}
	return out
}

// Snapshot is the immutable adjacency view handed to result consumers.
type Snapshot struct {
	Adjacency     map[string][]string `json:"adjacency"`
	ReverseCounts map[string]int      `json:"reverse_counts"`
	EdgeCount     int                 `json:"edge_count"`
}

// Snapshot copies the graph for the result bundle.
func (g *Graph) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := &Snapshot{
		Adjacency:     make(map[string][]string, len(g.adj)),
		ReverseCounts: make(map[string]int, len(g.reverse)),
	}
	for from, targets := range g.adj {
		cp := make([]string, len(targets))
		copy(cp, targets)
		snap.Adjacency[from] = cp
		snap.EdgeCount += len(cp)
	}
	for to, n := range g.reverse {
		snap.ReverseCounts[to] = n
	}
	return snap
}
