// Package search implements the high-level anytime best-first search over
// joint HetConfig configurations, arena-owned HNodes, and the incremental
// "advance one committed step" mode.
package search

import (
	"math/rand"
	"sort"

	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
	"github.com/elektrokombinacija/hetmapf/internal/hetconfig"
	"github.com/elektrokombinacija/hetmapf/internal/pibt"
)

// HNode is a high-level search node. Its neighbor set is bidirectional:
// whenever a successor is created or rewired, the edge is added on both
// ends. Parent is a hint for fast extraction; rewrite can reassign it to a
// cheaper neighbor, and ExtractPath follows Parent links only.
type HNode struct {
	ID     int
	Config hetconfig.HetConfig
	Parent *HNode
	G, H   float64

	Neighbors  []*HNode
	Priorities []float64
	Order      []int

	enumerator *pibt.Enumerator
}

// F is the node's f = g + h value.
func (n *HNode) F() float64 { return n.G + n.H }

// addEdge wires a bidirectional neighbor relation.
func addEdge(a, b *HNode) {
	a.Neighbors = append(a.Neighbors, b)
	b.Neighbors = append(b.Neighbors, a)
}

// arena owns every HNode for the lifetime of one search; nothing outside
// package search ever frees an individual node.
type arena struct {
	nodes []*HNode
}

func (ar *arena) newNode(config hetconfig.HetConfig, parent *HNode, g, h float64, inst *fleet.Instance, priorities []float64) *HNode {
	order := priorityOrder(priorities)
	n := &HNode{
		ID:         len(ar.nodes),
		Config:     config,
		Parent:     parent,
		G:          g,
		H:          h,
		Priorities: priorities,
		Order:      order,
		enumerator: pibt.NewEnumerator(inst, order, config),
	}
	ar.nodes = append(ar.nodes, n)
	return n
}

// priorityOrder sorts agent indices by priority descending, stable
// tie-break by id.
func priorityOrder(priorities []float64) []int {
	order := make([]int, len(priorities))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return priorities[order[i]] > priorities[order[j]]
	})
	return order
}

// initialPriorities seeds every agent with priority 0. PIBT-style planners
// typically bump priority for agents that failed to move on the prior step;
// here `order` is HNode-local state fixed once at creation time, so a flat
// initial vector (tie-broken by id) is the base case.
func initialPriorities(n int) []float64 {
	return make([]float64, n)
}

// popNextConstraint draws the next low-level partial constraint for n,
// possibly nil once n's LNode queue is drained.
func popNextConstraint(n *HNode, rng *rand.Rand) *pibt.LNode {
	return n.enumerator.PopNext(rng)
}

// history builds a HistoryFunc over n's ancestor chain, returning each
// agent's last up-to-10 visited fleet cells, most recent last. Ancestor
// walking uses Parent, which is only a hint post-rewrite, but history is a
// heuristic tie-breaker (lookahead's oscillation penalty) and tolerates a
// truncated or stale chain.
func history(n *HNode) pibt.HistoryFunc {
	const maxHistory = 10
	return func(agent int) []grid.VertexID {
		var out []grid.VertexID
		cur := n
		for cur != nil && len(out) < maxHistory {
			out = append([]grid.VertexID{cur.Config.Agents[agent].Position}, out...)
			cur = cur.Parent
		}
		return out
	}
}
