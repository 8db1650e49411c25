package pibt

import (
	"math/rand"

	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
	"github.com/elektrokombinacija/hetmapf/internal/hetconfig"
)

// LNode is a low-level partial constraint: depth is the number of
// currently-fixed agents, who[d]/where[d] give the d-th agent's fixed
// fleet-vertex. The root LNode has depth 0.
type LNode struct {
	Parent *LNode
	Depth  int
	Who    []int
	Where  []grid.VertexID
}

// Fixes converts an LNode's who/where arrays into Fix values for the
// generator.
func (l *LNode) Fixes() []Fix {
	out := make([]Fix, l.Depth)
	for d := 0; d < l.Depth; d++ {
		out[d] = Fix{Agent: l.Who[d], Position: l.Where[d]}
	}
	return out
}

// Enumerator lazily yields partial constraints for one HNode, fixing one
// more agent's cell at each expansion.
type Enumerator struct {
	inst   *fleet.Instance
	order  []int
	config hetconfig.HetConfig
	queue  []*LNode
}

// NewEnumerator seeds the FIFO with a single empty (depth-0) constraint.
func NewEnumerator(inst *fleet.Instance, order []int, config hetconfig.HetConfig) *Enumerator {
	return &Enumerator{
		inst:   inst,
		order:  order,
		config: config,
		queue:  []*LNode{{Depth: 0}},
	}
}

// PopNext removes the head LNode and, if it is not yet fully fixed,
// enqueues its geometrically-pruned children before returning it. Returns
// nil once the queue is drained.
func (e *Enumerator) PopNext(rng *rand.Rand) *LNode {
	if len(e.queue) == 0 {
		return nil
	}
	l := e.queue[0]
	e.queue = e.queue[1:]

	if l.Depth >= len(e.order) {
		return l
	}

	agent := e.order[l.Depth]
	occupied := e.committedCells(l)

	if e.config.Agents[agent].Kappa > 0 {
		stay := e.config.Agents[agent].Position
		if !overlaps(e.inst, agent, stay, occupied) {
			e.queue = append(e.queue, e.child(l, agent, stay))
		}
		return l
	}

	current := e.config.Agents[agent].Position
	fm := e.inst.FleetOf(fleet.AgentID(agent))
	opts := append([]grid.VertexID{current}, fm.Graph.Vertex(current).NeighborIDs()...)
	rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })

	for _, u := range opts {
		if !overlaps(e.inst, agent, u, occupied) {
			e.queue = append(e.queue, e.child(l, agent, u))
		}
	}

	return l
}

func (e *Enumerator) child(l *LNode, agent int, pos grid.VertexID) *LNode {
	who := make([]int, l.Depth+1)
	where := make([]grid.VertexID, l.Depth+1)
	copy(who, l.Who)
	copy(where, l.Where)
	who[l.Depth] = agent
	where[l.Depth] = pos
	return &LNode{Parent: l, Depth: l.Depth + 1, Who: who, Where: where}
}

// committedCells returns the base cells already committed by l's fixed
// agents, plus the footprint of every unconstrained speed-gated agent
// (kappa>0), which is guaranteed to stay.
func (e *Enumerator) committedCells(l *LNode) map[grid.BaseCellID]bool {
	occupied := make(map[grid.BaseCellID]bool)
	fixed := make(map[int]bool, l.Depth)
	for d := 0; d < l.Depth; d++ {
		fixed[l.Who[d]] = true
		for _, bc := range footprintOf(e.inst, l.Who[d], l.Where[d]) {
			occupied[bc] = true
		}
	}
	for a := 0; a < e.inst.N(); a++ {
		if fixed[a] || e.config.Agents[a].Kappa <= 0 {
			continue
		}
		for _, bc := range footprintOf(e.inst, a, e.config.Agents[a].Position) {
			occupied[bc] = true
		}
	}
	return occupied
}

func overlaps(inst *fleet.Instance, agent int, cell grid.VertexID, occupied map[grid.BaseCellID]bool) bool {
	for _, bc := range footprintOf(inst, agent, cell) {
		if occupied[bc] {
			return true
		}
	}
	return false
}

func footprintOf(inst *fleet.Instance, agent int, cell grid.VertexID) []grid.BaseCellID {
	fm := inst.FleetOf(fleet.AgentID(agent))
	v := fm.Graph.Vertex(cell)
	if v == nil {
		return nil
	}
	return grid.BaseCellsOfVertex(v, fm.CellSize, inst.Base.Width)
}
