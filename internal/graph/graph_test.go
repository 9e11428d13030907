package graph

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cppdeps/internal/types"
)

func TestAddEdge_Idempotent(t *testing.T) {
	g := New()

	assert.True(t, g.AddEdge("a.cpp", "a.h"))
	assert.False(t, g.AddEdge("a.cpp", "a.h"))
	assert.False(t, g.AddEdge("a.cpp", "a.h"))

	assert.Equal(t, 1, g.OutDegree("a.cpp"))
	assert.Equal(t, 1, g.ReverseCount("a.h"))
	assert.Equal(t, 1, g.EdgeCount())
}

func TestAddEdge_DropsSelfEdges(t *testing.T) {
	g := New()
	assert.False(t, g.AddEdge("a.h", "a.h"))
	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, 0, g.ReverseCount("a.h"))
}

func TestAddEdge_ReverseCountIsDistinctFanIn(t *testing.T) {
	g := New()
	g.AddEdge("a.cpp", "common.h")
	g.AddEdge("b.cpp", "common.h")
	g.AddEdge("c.cpp", "common.h")
	g.AddEdge("a.cpp", "common.h")

	assert.Equal(t, 3, g.ReverseCount("common.h"))
}

func TestNeighbors_InsertionOrder(t *testing.T) {
	g := New()
	g.AddEdge("main.cpp", "z.h")
	g.AddEdge("main.cpp", "a.h")
	g.AddEdge("main.cpp", "m.h")

	assert.Equal(t, []string{"z.h", "a.h", "m.h"}, g.Neighbors("main.cpp"))
}

func TestAddEdge_ConcurrentWriters(t *testing.T) {
	g := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.AddEdge("a.cpp", "a.h")
			g.AddEdge("b.cpp", "a.h")
			g.AddEdge("a.cpp", "b.h")
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, 2, g.ReverseCount("a.h"))
}

func TestDetectCycles_AcyclicGraph(t *testing.T) {
	g := New()
	g.AddEdge("main.cpp", "a.h")
	g.AddEdge("main.cpp", "b.h")
	g.AddEdge("a.h", "b.h")
	g.AddEdge("b.h", "c.h")

	cycles := g.DetectCycles([]string{"a.h", "b.h", "c.h", "main.cpp"})
	assert.Empty(t, cycles)
}

func TestDetectCycles_TwoNodeCycle(t *testing.T) {
	g := New()
	g.AddEdge("x.h", "y.h")
	g.AddEdge("y.h", "x.h")

	cycles := g.DetectCycles([]string{"x.h", "y.h"})
	require.Len(t, cycles, 1)
	assert.Equal(t, types.Cycle{"x.h", "y.h"}, cycles[0])
}

func TestDetectCycles_LongerCycle(t *testing.T) {
	g := New()
	g.AddEdge("a.h", "b.h")
	g.AddEdge("b.h", "c.h")
	g.AddEdge("c.h", "a.h")

	cycles := g.DetectCycles([]string{"a.h", "b.h", "c.h"})
	require.Len(t, cycles, 1)
	assert.Equal(t, types.Cycle{"a.h", "b.h", "c.h"}, cycles[0])
}

func TestDetectCycles_DeterministicAcrossRuns(t *testing.T) {
	g := New()
	g.AddEdge("a.h", "b.h")
	g.AddEdge("b.h", "a.h")
	g.AddEdge("c.h", "d.h")
	g.AddEdge("d.h", "c.h")

	order := []string{"a.h", "b.h", "c.h", "d.h"}
	first := g.DetectCycles(order)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, g.DetectCycles(order))
	}
	require.Len(t, first, 2)
}

func TestUnusedHeaders(t *testing.T) {
	g := New()
	g.AddEdge("main.cpp", "used.h")

	headers := []types.SourceFile{
		{Path: "orphan.h", Class: types.FileClassHeader},
		{Path: "used.h", Class: types.FileClassHeader},
		{Path: "zzz.h", Class: types.FileClassHeader},
	}
	assert.Equal(t, []string{"orphan.h", "zzz.h"}, g.UnusedHeaders(headers))
}

func TestSnapshot_Copies(t *testing.T) {
	g := New()
	g.AddEdge("a.cpp", "a.h")
	g.AddEdge("a.h", "b.h")

	snap := g.Snapshot()
	assert.Equal(t, 2, snap.EdgeCount)
	assert.Equal(t, []string{"a.h"}, snap.Adjacency["a.cpp"])
	assert.Equal(t, 1, snap.ReverseCounts["b.h"])

	// Mutating the snapshot must not reach the graph.
	snap.Adjacency["a.cpp"][0] = "mutated"
	assert.Equal(t, []string{"a.h"}, g.Neighbors("a.cpp"))
}
