package planner

import "github.com/elektrokombinacija/hetmapf/internal/hetconfig"

// Solution is a full-horizon plan: one joint configuration per timestep,
// root-to-goal.
type Solution struct {
	Configs   []hetconfig.HetConfig
	Feasible  bool
	Expanded  int
	GoalF     float64
}

// Makespan is the number of committed transitions (len(Configs)-1), or 0
// for an empty or single-config solution.
func (s *Solution) Makespan() int {
	if len(s.Configs) == 0 {
		return 0
	}
	return len(s.Configs) - 1
}
