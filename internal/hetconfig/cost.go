package hetconfig

import (
	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
)

// Heuristic computes h(C) = sum_i [ d_i(C.position_i) * speed_period(i) +
// C.kappa_i ]: a fleet step costs speed_period wall-clock ticks, and a
// non-zero phase adds its own count.
func Heuristic(c HetConfig, inst *fleet.Instance, dist func(agent int, v grid.VertexID) int) float64 {
	h := 0.0
	for i, a := range c.Agents {
		d := dist(i, a.Position)
		h += float64(d*inst.SpeedPeriod(fleet.AgentID(i)) + a.Kappa)
	}
	return h
}

// EdgeCost computes g(C->C') = the number of agents not at-goal in both C
// and C'. "At goal" means position==goal AND kappa==0.
func EdgeCost(from, to HetConfig, inst *fleet.Instance) float64 {
	cost := 0.0
	for i := range from.Agents {
		atGoalBoth := AtGoal(from, inst, i) && AtGoal(to, inst, i)
		if !atGoalBoth {
			cost++
		}
	}
	return cost
}
