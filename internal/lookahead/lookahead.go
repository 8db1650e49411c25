// Package lookahead implements the bounded space-time best-first search
// that supplies ranked move candidates to the push generator.
package lookahead

import (
	"container/heap"
	"math/rand"
	"sort"

	"github.com/elektrokombinacija/hetmapf/internal/distance"
	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
	"github.com/elektrokombinacija/hetmapf/internal/reservation"
)

// Candidate is a ranked first-step option for one agent, per spec's
// CandidatePath.
type Candidate struct {
	Path           []grid.VertexID
	FirstStep      grid.VertexID
	BlockingAgents []int
	Cost           float64
}

// DefaultDepth is max(2, cell_size): a bigger footprint needs more lookahead
// to find an escape route.
func DefaultDepth(cellSize int) int {
	if cellSize > 2 {
		return cellSize
	}
	return 2
}

type stState struct {
	t    int
	cell grid.VertexID
}

type node struct {
	state  stState
	cost   float64
	parent *stState
	index  int
}

type nodeHeap []*node

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x interface{}) { n := x.(*node); n.index = len(*h); *h = append(*h, n) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// GoalLockFunc reports whether an agent is currently holding its goal lock
// and must not be displaced.
type GoalLockFunc func(agent int) bool

// Search runs a bounded space-time best-first search for one agent and
// returns ranked, deduplicated-by-first-step candidates, including the
// always-present wait-in-place option.
//
// history is the agent's last (up to 10) visited cells, most recent last,
// used for the oscillation penalty.
func Search(
	inst *fleet.Instance,
	oracle *distance.Oracle,
	resv *reservation.Table,
	agent int,
	start grid.VertexID,
	history []grid.VertexID,
	depth int,
	rng *rand.Rand,
	goalLocked GoalLockFunc,
) []Candidate {
	fm := inst.FleetOf(fleet.AgentID(agent))
	g := fm.Graph

	dist := func(v grid.VertexID) int { return oracle.Distance(agent, v) }

	cost := func(cell grid.VertexID, tm int) float64 {
		nb := countParkedNonSelf(resv, inst, agent, cell, tm)
		nbTerm := nb
		if nbTerm > 3 {
			nbTerm = 3
		}
		osc := 0
		if nb <= 2 {
			osc = 2 * countInHistory(history, cell)
		}
		return float64(dist(cell)) + float64(nbTerm) + float64(osc)
	}

	open := &nodeHeap{}
	heap.Init(open)
	startNode := &node{state: stState{t: 0, cell: start}, cost: cost(start, 0)}
	heap.Push(open, startNode)

	bestCost := map[stState]float64{startNode.state: startNode.cost}
	cameFrom := map[stState]stState{}
	popped := 0

	for open.Len() > 0 && popped < depth {
		cur := heap.Pop(open).(*node)
		if bc, ok := bestCost[cur.state]; ok && cur.cost > bc {
			continue
		}
		popped++

		options := append([]grid.VertexID{cur.state.cell}, shuffledNeighbors(g, cur.state.cell, rng)...)
		for _, next := range options {
			if cur.state.cell != next {
				if resv.MoveCollides(agent, cur.state.cell, next, cur.state.t) {
					continue
				}
				if occupantsLocked(resv, inst, agent, next, cur.state.t+1, goalLocked) {
					continue
				}
			}
			ns := stState{t: cur.state.t + 1, cell: next}
			nc := cost(next, ns.t)
			if prev, ok := bestCost[ns]; ok && prev <= nc {
				continue
			}
			bestCost[ns] = nc
			cameFrom[ns] = cur.state
			heap.Push(open, &node{state: ns, cost: nc, parent: &cur.state})
		}
	}

	return project(inst, agent, start, bestCost, cameFrom, resv, dist)
}

func shuffledNeighbors(g *grid.Graph, cell grid.VertexID, rng *rand.Rand) []grid.VertexID {
	v := g.Vertex(cell)
	if v == nil {
		return nil
	}
	nbrs := append([]grid.VertexID{}, v.NeighborIDs()...)
	rng.Shuffle(len(nbrs), func(i, j int) { nbrs[i], nbrs[j] = nbrs[j], nbrs[i] })
	return nbrs
}

func countParkedNonSelf(resv *reservation.Table, inst *fleet.Instance, agent int, cell grid.VertexID, tm int) int {
	occ := resv.GetOccupants(agent, cell, tm)
	n := 0
	for a := range occ {
		if a != agent {
			n++
		}
	}
	return n
}

func occupantsLocked(resv *reservation.Table, inst *fleet.Instance, agent int, cell grid.VertexID, tm int, goalLocked GoalLockFunc) bool {
	if goalLocked == nil {
		return false
	}
	for other := range resv.GetOccupants(agent, cell, tm) {
		if other != agent && goalLocked(other) {
			return true
		}
	}
	return false
}

func countInHistory(history []grid.VertexID, cell grid.VertexID) int {
	n := 0
	for _, h := range history {
		if h == cell {
			n++
		}
	}
	return n
}

// project reduces the reached (t,cell) table to best-per-first-step
// candidates, following parents back to the immediate successor of start,
// then sorts by end-cell distance-to-goal and blocker count, truncating to
// the smallest set covering all distinct first steps.
func project(
	inst *fleet.Instance,
	agent int,
	start grid.VertexID,
	bestCost map[stState]float64,
	cameFrom map[stState]stState,
	resv *reservation.Table,
	dist func(grid.VertexID) int,
) []Candidate {
	type entry struct {
		firstStep grid.VertexID
		endCell   grid.VertexID
		path      []grid.VertexID
		cost      float64
	}

	byFirstStep := make(map[grid.VertexID]entry)

	for state, c := range bestCost {
		if state.t == 0 {
			continue
		}
		path := reconstruct(state, cameFrom)
		if len(path) < 2 {
			continue
		}
		first := path[1]
		if prev, ok := byFirstStep[first]; !ok || c < prev.cost {
			byFirstStep[first] = entry{firstStep: first, endCell: state.cell, path: path, cost: c}
		}
	}

	// wait-in-place is always added.
	waitCost := float64(dist(start))
	if prev, ok := byFirstStep[start]; !ok || waitCost < prev.cost {
		byFirstStep[start] = entry{firstStep: start, endCell: start, path: []grid.VertexID{start}, cost: waitCost}
	}

	out := make([]Candidate, 0, len(byFirstStep))
	for _, e := range byFirstStep {
		blockers := blockingAgents(resv, inst, agent, e.path)
		out = append(out, Candidate{
			Path:           e.path,
			FirstStep:      e.firstStep,
			BlockingAgents: blockers,
			Cost:           e.cost,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		di, dj := dist(out[i].endCell()), dist(out[j].endCell())
		if di != dj {
			return di < dj
		}
		return len(out[i].BlockingAgents) < len(out[j].BlockingAgents)
	})

	return out
}

func (c Candidate) endCell() grid.VertexID {
	if len(c.Path) == 0 {
		return c.FirstStep
	}
	return c.Path[len(c.Path)-1]
}

func reconstruct(state stState, cameFrom map[stState]stState) []grid.VertexID {
	var cells []grid.VertexID
	cur := state
	for {
		cells = append([]grid.VertexID{cur.cell}, cells...)
		prev, ok := cameFrom[cur]
		if !ok {
			break
		}
		cur = prev
	}
	return cells
}

func blockingAgents(resv *reservation.Table, inst *fleet.Instance, agent int, path []grid.VertexID) []int {
	seen := make(map[int]bool)
	var out []int
	for t, cell := range path {
		for a := range resv.GetOccupants(agent, cell, t) {
			if a == agent || seen[a] {
				continue
			}
			seen[a] = true
			out = append(out, a)
		}
	}
	sort.Ints(out)
	return out
}
