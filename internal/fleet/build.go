package fleet

import (
	"sort"

	"github.com/elektrokombinacija/hetmapf/internal/grid"
)

// AgentSpec is the raw per-agent description used to assemble an Instance,
// independent of the scenario file grammar that produces it.
type AgentSpec struct {
	CellSize    int
	SpeedPeriod int
	Kind        Kind
	StartX, StartY int
	GoalX, GoalY   int
}

// Build assembles an Instance from a base grid and a list of raw agent
// specs. Fleet ids are assigned by sorted cell_size order, so that agents
// sharing a cell_size always land in the same fleet and the fleet id
// ordering is deterministic regardless of input order (matches the scenario
// format's documented assignment rule).
func Build(base *grid.Graph, specs []AgentSpec) *Instance {
	sizes := distinctSizes(specs)

	fleets := make(map[FleetID]*FleetMeta, len(sizes))
	sizeToFleet := make(map[int]FleetID, len(sizes))
	for i, sz := range sizes {
		id := FleetID(i)
		sizeToFleet[sz] = id
	}

	speedBySize := make(map[int]int, len(sizes))
	for _, sp := range specs {
		if cur, ok := speedBySize[sp.CellSize]; !ok || sp.SpeedPeriod > cur {
			// a fleet's speed_period is uniform in practice; keep the max
			// seen in case callers pass slightly inconsistent specs.
			if !ok {
				speedBySize[sp.CellSize] = sp.SpeedPeriod
			} else if sp.SpeedPeriod > cur {
				speedBySize[sp.CellSize] = sp.SpeedPeriod
			}
		}
	}

	for _, sz := range sizes {
		id := sizeToFleet[sz]
		fleets[id] = &FleetMeta{
			CellSize:    sz,
			SpeedPeriod: maxInt(1, speedBySize[sz]),
			Graph:       grid.NewTiled(base, sz),
		}
	}

	inst := &Instance{
		Base:   base,
		Fleets: fleets,
		Agents: make([]AgentInfo, len(specs)),
		Start:  make([]grid.VertexID, len(specs)),
		Goal:   make([]grid.VertexID, len(specs)),
	}

	for i, sp := range specs {
		fid := sizeToFleet[sp.CellSize]
		g := fleets[fid].Graph
		inst.Agents[i] = AgentInfo{FleetID: fid, CellSize: sp.CellSize, Kind: sp.Kind}
		if v := g.At(sp.StartX, sp.StartY); v != nil {
			inst.Start[i] = v.ID
		} else {
			inst.Start[i] = -1
		}
		if v := g.At(sp.GoalX, sp.GoalY); v != nil {
			inst.Goal[i] = v.ID
		} else {
			inst.Goal[i] = -1
		}
	}

	return inst
}

func distinctSizes(specs []AgentSpec) []int {
	seen := make(map[int]bool)
	var sizes []int
	for _, sp := range specs {
		if !seen[sp.CellSize] {
			seen[sp.CellSize] = true
			sizes = append(sizes, sp.CellSize)
		}
	}
	sort.Ints(sizes)
	return sizes
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
