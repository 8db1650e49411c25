// Package validate re-checks a produced solution against the same
// invariants the search engine is supposed to maintain internally, for
// offline auditing of a previously produced solution file.
package validate

import (
	"fmt"

	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
	"github.com/elektrokombinacija/hetmapf/internal/hetconfig"
)

// Violation describes one invariant breach at a specific timestep.
type Violation struct {
	Timestep int
	Message  string
}

func (v Violation) Error() string {
	return fmt.Sprintf("t=%d: %s", v.Timestep, v.Message)
}

// Solution checks footprint disjointness, edge validity, swap freedom, and
// start/goal endpoints across an entire config sequence, returning every
// violation found (not just the first).
func Solution(inst *fleet.Instance, configs []hetconfig.HetConfig) []Violation {
	var out []Violation
	if len(configs) == 0 {
		return []Violation{{Timestep: 0, Message: "empty solution"}}
	}

	out = append(out, checkEndpoint(inst, configs[0], inst.Start, 0, "start")...)
	out = append(out, checkEndpoint(inst, configs[len(configs)-1], inst.Goal, len(configs)-1, "goal")...)

	for t, c := range configs {
		out = append(out, checkFootprints(inst, c, t)...)
		if t == 0 {
			continue
		}
		out = append(out, checkEdges(inst, configs[t-1], c, t)...)
		out = append(out, checkSwaps(inst, configs[t-1], c, t)...)
	}
	return out
}

func checkEndpoint(inst *fleet.Instance, c hetconfig.HetConfig, want []grid.VertexID, t int, label string) []Violation {
	var out []Violation
	for i, a := range c.Agents {
		if a.Position != want[i] {
			out = append(out, Violation{Timestep: t, Message: fmt.Sprintf("agent %d not at %s (got %d, want %d)", i, label, a.Position, want[i])})
		}
	}
	return out
}

func checkFootprints(inst *fleet.Instance, c hetconfig.HetConfig, t int) []Violation {
	var out []Violation
	owner := make(map[grid.BaseCellID]int)
	for i, a := range c.Agents {
		fm := inst.FleetOf(fleet.AgentID(i))
		v := fm.Graph.Vertex(a.Position)
		if v == nil {
			out = append(out, Violation{Timestep: t, Message: fmt.Sprintf("agent %d at invalid vertex %d", i, a.Position)})
			continue
		}
		for _, bc := range grid.BaseCellsOfVertex(v, fm.CellSize, inst.Base.Width) {
			if other, ok := owner[bc]; ok {
				out = append(out, Violation{Timestep: t, Message: fmt.Sprintf("agents %d and %d overlap at base cell %d", other, i, bc)})
				continue
			}
			owner[bc] = i
		}
	}
	return out
}

func checkEdges(inst *fleet.Instance, from, to hetconfig.HetConfig, t int) []Violation {
	var out []Violation
	for i := range from.Agents {
		if from.Agents[i].Position == to.Agents[i].Position {
			continue
		}
		fm := inst.FleetOf(fleet.AgentID(i))
		v := fm.Graph.Vertex(from.Agents[i].Position)
		if v == nil {
			continue
		}
		ok := false
		for _, nb := range v.NeighborIDs() {
			if nb == to.Agents[i].Position {
				ok = true
				break
			}
		}
		if !ok {
			out = append(out, Violation{Timestep: t, Message: fmt.Sprintf("agent %d jumped to a non-neighbor cell", i)})
		}
	}
	return out
}

func checkSwaps(inst *fleet.Instance, from, to hetconfig.HetConfig, t int) []Violation {
	var out []Violation
	n := len(from.Agents)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			iTo := footprintOf(inst, i, to.Agents[i].Position)
			jFrom := footprintOf(inst, j, from.Agents[j].Position)
			jTo := footprintOf(inst, j, to.Agents[j].Position)
			iFrom := footprintOf(inst, i, from.Agents[i].Position)
			if overlap(iTo, jFrom) && overlap(jTo, iFrom) {
				out = append(out, Violation{Timestep: t, Message: fmt.Sprintf("agents %d and %d swapped cells", i, j)})
			}
		}
	}
	return out
}

func footprintOf(inst *fleet.Instance, agent int, cell grid.VertexID) []grid.BaseCellID {
	fm := inst.FleetOf(fleet.AgentID(agent))
	v := fm.Graph.Vertex(cell)
	if v == nil {
		return nil
	}
	return grid.BaseCellsOfVertex(v, fm.CellSize, inst.Base.Width)
}

func overlap(a, b []grid.BaseCellID) bool {
	set := make(map[grid.BaseCellID]bool, len(a))
	for _, x := range a {
		set[x] = true
	}
	for _, y := range b {
		if set[y] {
			return true
		}
	}
	return false
}
