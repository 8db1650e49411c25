package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
	"github.com/elektrokombinacija/hetmapf/internal/hetconfig"
)

func openGrid(t *testing.T, n int) *grid.Graph {
	t.Helper()
	lines := make([]string, 0, n+3)
	lines = append(lines, "height "+itoa(n), "width "+itoa(n), "map")
	for y := 0; y < n; y++ {
		row := make([]byte, n)
		for x := range row {
			row[x] = '.'
		}
		lines = append(lines, string(row))
	}
	g, err := grid.NewFromMap(lines)
	require.NoError(t, err)
	return g
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestSolutionAcceptsValidTwoStepPlan(t *testing.T) {
	base := openGrid(t, 4)
	inst := fleet.Build(base, []fleet.AgentSpec{
		{CellSize: 1, SpeedPeriod: 1, StartX: 0, StartY: 0, GoalX: 1, GoalY: 0},
	})
	fm := inst.FleetOf(0)
	c0 := hetconfig.FromStart(inst)
	c1 := hetconfig.HetConfig{Agents: []hetconfig.AgentState{{Position: fm.Graph.At(1, 0).ID}}}

	violations := Solution(inst, []hetconfig.HetConfig{c0, c1})
	require.Empty(t, violations)
}

func TestSolutionFlagsNonNeighborJump(t *testing.T) {
	base := openGrid(t, 4)
	inst := fleet.Build(base, []fleet.AgentSpec{
		{CellSize: 1, SpeedPeriod: 1, StartX: 0, StartY: 0, GoalX: 2, GoalY: 0},
	})
	fm := inst.FleetOf(0)
	c0 := hetconfig.FromStart(inst)
	c1 := hetconfig.HetConfig{Agents: []hetconfig.AgentState{{Position: fm.Graph.At(2, 0).ID}}}

	violations := Solution(inst, []hetconfig.HetConfig{c0, c1})
	require.NotEmpty(t, violations)
}

func TestSolutionFlagsFootprintOverlap(t *testing.T) {
	base := openGrid(t, 4)
	inst := fleet.Build(base, []fleet.AgentSpec{
		{CellSize: 1, SpeedPeriod: 1, StartX: 0, StartY: 0, GoalX: 0, GoalY: 0},
		{CellSize: 1, SpeedPeriod: 1, StartX: 1, StartY: 0, GoalX: 1, GoalY: 0},
	})
	fm := inst.FleetOf(0)
	overlap := hetconfig.HetConfig{Agents: []hetconfig.AgentState{
		{Position: fm.Graph.At(0, 0).ID},
		{Position: fm.Graph.At(0, 0).ID},
	}}
	violations := Solution(inst, []hetconfig.HetConfig{overlap})
	require.NotEmpty(t, violations)
}

func TestSolutionRejectsEmpty(t *testing.T) {
	base := openGrid(t, 4)
	inst := fleet.Build(base, nil)
	violations := Solution(inst, nil)
	require.NotEmpty(t, violations)
}
