// Package reservation implements the ephemeral space-time reservation table
// that arbitrates footprint and swap conflicts across heterogeneous fleets
// during one push-generator call.
package reservation

import (
	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
	"github.com/elektrokombinacija/hetmapf/internal/hetconfig"
)

// NoFleet is the endpoint sentinel meaning "no endpoint yet".
const NoFleet fleet.FleetID = -1

// Endpoint is an agent's last explicitly reserved (fleet, cell, time); after
// end_time the agent is considered parked at cell forever.
type Endpoint struct {
	FleetID fleet.FleetID
	Cell    grid.VertexID
	EndTime int
}

type timeCellKey struct {
	t    int
	cell grid.BaseCellID
}

// Table is a per-generator-call ephemeral reservation structure. It is
// created fresh for every invocation of the push generator and never shared
// across calls.
type Table struct {
	inst *fleet.Instance

	stMap        map[timeCellKey]map[int]bool // (time, base_cell) -> set of agent ids
	endpoints    []Endpoint                   // per agent
	parkedAtCell map[grid.BaseCellID]map[int]bool
	processed    []bool
}

// New creates an empty reservation table for inst's agents.
func New(inst *fleet.Instance) *Table {
	n := inst.N()
	t := &Table{
		inst:         inst,
		stMap:        make(map[timeCellKey]map[int]bool),
		endpoints:    make([]Endpoint, n),
		parkedAtCell: make(map[grid.BaseCellID]map[int]bool),
		processed:    make([]bool, n),
	}
	for i := range t.endpoints {
		t.endpoints[i] = Endpoint{FleetID: NoFleet}
	}
	return t
}

func (t *Table) footprint(a int, cell grid.VertexID) []grid.BaseCellID {
	fm := t.inst.FleetOf(fleet.AgentID(a))
	v := fm.Graph.Vertex(cell)
	if v == nil {
		return nil
	}
	return grid.BaseCellsOfVertex(v, fm.CellSize, t.inst.Base.Width)
}

func (t *Table) mark(tm int, cell grid.BaseCellID, agent int) {
	key := timeCellKey{tm, cell}
	set := t.stMap[key]
	if set == nil {
		set = make(map[int]bool)
		t.stMap[key] = set
	}
	set[agent] = true
}

// SeedTransient records each agent's start cell at time=0 and sets its
// endpoint to (its fleet, its start cell, end_time=0), but does NOT mark it
// processed: BFS at t=0 sees current positions, but unprocessed agents do
// not yet block t=1+.
func (t *Table) SeedTransient(c hetconfig.HetConfig) {
	for a := 0; a < t.inst.N(); a++ {
		cell := c.Agents[a].Position
		for _, bc := range t.footprint(a, cell) {
			t.mark(0, bc, a)
		}
		t.setEndpoint(a, Endpoint{FleetID: t.inst.Agents[a].FleetID, Cell: cell, EndTime: 0})
	}
}

func (t *Table) setEndpoint(a int, ep Endpoint) {
	old := t.endpoints[a]
	if old.FleetID != NoFleet {
		t.unpark(a, old.Cell)
	}
	t.endpoints[a] = ep
	t.park(a, ep.Cell)
}

func (t *Table) park(a int, cell grid.VertexID) {
	for _, bc := range t.footprint(a, cell) {
		set := t.parkedAtCell[bc]
		if set == nil {
			set = make(map[int]bool)
			t.parkedAtCell[bc] = set
		}
		set[a] = true
	}
}

func (t *Table) unpark(a int, cell grid.VertexID) {
	for _, bc := range t.footprint(a, cell) {
		if set := t.parkedAtCell[bc]; set != nil {
			delete(set, a)
		}
	}
}

// ReserveStay is ReservePath with a constant-cell path of length
// t_end-t_start+1.
func (t *Table) ReserveStay(agent int, cell grid.VertexID, tStart, tEnd int) {
	n := tEnd - tStart + 1
	positions := make([]grid.VertexID, n)
	for i := range positions {
		positions[i] = cell
	}
	t.ReservePath(agent, tStart, positions)
}

// ReservePath records positions[k] at tStart+k for every k, filling any gap
// since the agent's prior endpoint with that endpoint's cell, updates the
// endpoint to the last cell reserved, and marks the agent processed.
func (t *Table) ReservePath(agent int, tStart int, positions []grid.VertexID) {
	if len(positions) == 0 {
		return
	}

	old := t.endpoints[agent]
	if old.FleetID != NoFleet && old.EndTime < tStart {
		for tm := old.EndTime + 1; tm < tStart; tm++ {
			for _, bc := range t.footprint(agent, old.Cell) {
				t.mark(tm, bc, agent)
			}
		}
	}

	for k, cell := range positions {
		tm := tStart + k
		for _, bc := range t.footprint(agent, cell) {
			t.mark(tm, bc, agent)
		}
	}

	last := positions[len(positions)-1]
	t.setEndpoint(agent, Endpoint{
		FleetID: t.inst.Agents[agent].FleetID,
		Cell:    last,
		EndTime: tStart + len(positions) - 1,
	})
	t.processed[agent] = true
}

// ResetAgent overwrites the agent's endpoint and rewires parkedAtCell,
// leaving st_map untouched — stale entries from a failed push cascade are
// acceptable (they are only ever too pessimistic, never too optimistic).
func (t *Table) ResetAgent(agent int, cell grid.VertexID) {
	t.setEndpoint(agent, Endpoint{FleetID: t.inst.Agents[agent].FleetID, Cell: cell, EndTime: t.endpoints[agent].EndTime})
}

// Endpoint returns agent's current endpoint.
func (t *Table) Endpoint(agent int) Endpoint {
	return t.endpoints[agent]
}

// Processed reports whether agent's endpoint is treated as a permanent
// obstacle for future times.
func (t *Table) Processed(agent int) bool {
	return t.processed[agent]
}

// MarkProcessed flags agent's endpoint as a permanent future obstacle.
func (t *Table) MarkProcessed(agent int) {
	t.processed[agent] = true
}

// IsOccupied reports whether base_cell is occupied at time by any agent
// other than except (except == -1 means no exception), either by an
// explicit st_map entry or by a processed agent parked overlapping the cell
// with end_time < time.
func (t *Table) IsOccupied(cell grid.BaseCellID, tm int, except int) bool {
	if set := t.stMap[timeCellKey{tm, cell}]; set != nil {
		for a := range set {
			if a != except {
				return true
			}
		}
	}
	if set := t.parkedAtCell[cell]; set != nil {
		for a := range set {
			if a == except || !t.processed[a] {
				continue
			}
			if t.endpoints[a].EndTime < tm {
				return true
			}
		}
	}
	return false
}

// MoveCollides reports a vertex conflict (any base cell of toCell occupied
// at time+1 excluding self) OR a swap conflict (some other agent is at
// toCell at time AND at fromCell at time+1).
func (t *Table) MoveCollides(agent int, fromCell, toCell grid.VertexID, tm int) bool {
	for _, bc := range t.footprint(agent, toCell) {
		if t.IsOccupied(bc, tm+1, agent) {
			return true
		}
	}

	occupantsAtTo := t.GetOccupants(agent, toCell, tm)
	for other := range occupantsAtTo {
		if other == agent {
			continue
		}
		occupantsAtFromNext := t.GetOccupants(agent, fromCell, tm+1)
		if occupantsAtFromNext[other] {
			return true
		}
	}
	return false
}

// GetOccupants returns the deduplicated set of agents occupying cell at time
// (union of explicit st_map entries and processed parked agents whose
// endpoint overlaps cell with end_time < time).
func (t *Table) GetOccupants(agent int, cell grid.VertexID, tm int) map[int]bool {
	out := make(map[int]bool)
	for _, bc := range t.footprint(agent, cell) {
		if set := t.stMap[timeCellKey{tm, bc}]; set != nil {
			for a := range set {
				out[a] = true
			}
		}
		if set := t.parkedAtCell[bc]; set != nil {
			for a := range set {
				if t.processed[a] && t.endpoints[a].EndTime < tm {
					out[a] = true
				}
			}
		}
	}
	return out
}
