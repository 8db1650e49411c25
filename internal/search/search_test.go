package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/hetmapf/internal/distance"
	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
	"github.com/elektrokombinacija/hetmapf/internal/hetconfig"
)

func openGrid(t *testing.T, n int) *grid.Graph {
	t.Helper()
	lines := []string{fmtLine("height", n), fmtLine("width", n), "map"}
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

func fmtLine(prefix string, n int) string {
	digits := []byte{}
	if n == 0 {
		digits = []byte{'0'}
	}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return prefix + " " + string(digits)
}

func TestEngineEmptyInstanceIsImmediatelyGoal(t *testing.T) {
	base := openGrid(t, 4)
	inst := fleet.Build(base, nil)
	oracle := distance.Build(inst)

	e := NewEngine(inst, oracle, DefaultParams())
	require.NotNil(t, e.Best())
	require.True(t, hetconfig.IsGoal(e.Best().Config, inst))

	for i := 0; i < 20; i++ {
		exhausted, _ := e.Step()
		if exhausted {
			return
		}
	}
	t.Fatal("expected an empty-instance engine to exhaust within 20 steps")
}

func TestEngineSingleAgentAlreadyAtGoal(t *testing.T) {
	base := openGrid(t, 4)
	inst := fleet.Build(base, []fleet.AgentSpec{
		{CellSize: 1, SpeedPeriod: 1, StartX: 0, StartY: 0, GoalX: 0, GoalY: 0},
	})
	oracle := distance.Build(inst)

	e := NewEngine(inst, oracle, DefaultParams())
	require.NotNil(t, e.Best())
	require.Equal(t, 0.0, e.Best().G)
}

func TestEngineTwoAgentCrossingFindsGoal(t *testing.T) {
	base := openGrid(t, 8)
	inst := fleet.Build(base, []fleet.AgentSpec{
		{CellSize: 1, SpeedPeriod: 1, StartX: 0, StartY: 0, GoalX: 7, GoalY: 0},
		{CellSize: 1, SpeedPeriod: 1, StartX: 7, StartY: 0, GoalX: 0, GoalY: 0},
	})
	oracle := distance.Build(inst)

	params := DefaultParams()
	params.AnytimeEnabled = false
	e := NewEngine(inst, oracle, params)

	found := false
	for i := 0; i < 20000; i++ {
		exhausted, goal := e.Step()
		if goal != nil {
			found = true
			break
		}
		if exhausted {
			break
		}
	}
	require.True(t, found, "expected the two crossing agents to find a goal")

	path := ExtractPath(e.Best())
	require.True(t, hetconfig.IsGoal(path[len(path)-1], inst))
	require.True(t, path[0].Equal(hetconfig.FromStart(inst)))
}
