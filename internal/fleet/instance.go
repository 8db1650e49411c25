// Package fleet holds the Instance data model: the base grid, the derived
// fleet graphs, and per-agent start/goal/footprint/speed metadata.
package fleet

import (
	"fmt"

	"github.com/elektrokombinacija/hetmapf/internal/grid"
)

// AgentID identifies one agent in an Instance.
type AgentID int

// FleetID identifies a distinct cell size class.
type FleetID int

// Kind is a descriptive robot archetype carried on each agent. It never
// influences search semantics — only CellSize and SpeedPeriod do that. The
// scenario parser always sets KindGround, and neither genscenario nor the
// CLI reads it.
type Kind int

const (
	KindGround Kind = iota
	KindRailMounted
	KindAerial
)

func (k Kind) String() string {
	switch k {
	case KindRailMounted:
		return "rail-mounted"
	case KindAerial:
		return "aerial"
	default:
		return "ground"
	}
}

// AgentInfo is an agent's immutable-after-setup metadata.
type AgentInfo struct {
	FleetID  FleetID
	CellSize int
	Kind     Kind // descriptive only, see package doc
}

// FleetMeta carries the per-fleet cell size and speed period.
type FleetMeta struct {
	CellSize     int
	SpeedPeriod  int
	Graph        *grid.Graph
}

// Instance is the base grid, one fleet graph per fleet, per-agent start and
// goal vertices (on that agent's fleet graph), per-agent info, and derived
// bounds.
type Instance struct {
	Base   *grid.Graph
	Fleets map[FleetID]*FleetMeta

	Agents []AgentInfo
	Start  []grid.VertexID // per agent, on agent's fleet graph
	Goal   []grid.VertexID // per agent, on agent's fleet graph
}

// N returns the number of agents.
func (inst *Instance) N() int { return len(inst.Agents) }

// FleetOf returns the fleet metadata for an agent.
func (inst *Instance) FleetOf(a AgentID) *FleetMeta {
	return inst.Fleets[inst.Agents[a].FleetID]
}

// CellSize returns agent a's footprint side length.
func (inst *Instance) CellSize(a AgentID) int {
	return inst.Agents[a].CellSize
}

// SpeedPeriod returns agent a's speed period (ticks per fleet-cell crossing).
func (inst *Instance) SpeedPeriod(a AgentID) int {
	return inst.FleetOf(a).SpeedPeriod
}

// StartVertex and GoalVertex resolve an agent's fleet-graph vertex pointers.
func (inst *Instance) StartVertex(a AgentID) *grid.Vertex {
	return inst.FleetOf(a).Graph.Vertex(inst.Start[a])
}

func (inst *Instance) GoalVertex(a AgentID) *grid.Vertex {
	return inst.FleetOf(a).Graph.Vertex(inst.Goal[a])
}

// Validate checks that every start and goal is non-obstacle on the agent's
// fleet graph, and that start/goal footprints are pairwise non-overlapping
// on the base grid.
func (inst *Instance) Validate() error {
	for a := range inst.Agents {
		fm := inst.FleetOf(AgentID(a))
		if fm == nil {
			return fmt.Errorf("fleet: agent %d has unknown fleet %d", a, inst.Agents[a].FleetID)
		}
		if fm.Graph.Vertex(inst.Start[a]) == nil {
			return fmt.Errorf("fleet: agent %d start vertex %d is not passable", a, inst.Start[a])
		}
		if fm.Graph.Vertex(inst.Goal[a]) == nil {
			return fmt.Errorf("fleet: agent %d goal vertex %d is not passable", a, inst.Goal[a])
		}
	}

	if err := checkFootprintsDisjoint(inst, inst.Start); err != nil {
		return fmt.Errorf("fleet: start footprints overlap: %w", err)
	}
	if err := checkFootprintsDisjoint(inst, inst.Goal); err != nil {
		return fmt.Errorf("fleet: goal footprints overlap: %w", err)
	}
	return nil
}

func checkFootprintsDisjoint(inst *Instance, positions []grid.VertexID) error {
	owner := make(map[grid.BaseCellID]AgentID)
	for a := range inst.Agents {
		fm := inst.FleetOf(AgentID(a))
		v := fm.Graph.Vertex(positions[a])
		if v == nil {
			continue
		}
		for _, bc := range grid.BaseCellsOfVertex(v, fm.CellSize, inst.Base.Width) {
			if other, ok := owner[bc]; ok {
				return fmt.Errorf("agents %d and %d both cover base cell %d", other, a, bc)
			}
			owner[bc] = AgentID(a)
		}
	}
	return nil
}
