package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/hetmapf/internal/config"
	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
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

func TestNewAcceptsDegenerateSingleCellFleet(t *testing.T) {
	base := openGrid(t, 4)
	inst := fleet.Build(base, []fleet.AgentSpec{
		{CellSize: 4, SpeedPeriod: 1, StartX: 0, StartY: 0, GoalX: 0, GoalY: 0},
	})
	// cell_size == base width collapses the fleet graph to one vertex; with
	// start == goal the instance is trivially solvable.
	_, err := New(inst, time.Time{}, 1, config.Default(), nil)
	require.NoError(t, err)
}

func TestSolveTwoAgentCrossing(t *testing.T) {
	base := openGrid(t, 8)
	inst := fleet.Build(base, []fleet.AgentSpec{
		{CellSize: 1, SpeedPeriod: 1, StartX: 0, StartY: 0, GoalX: 7, GoalY: 0},
		{CellSize: 1, SpeedPeriod: 1, StartX: 7, StartY: 0, GoalX: 0, GoalY: 0},
	})
	params := config.Default()
	params.AnytimeEnabled = false

	p, err := New(inst, time.Time{}, 7, params, nil)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.NoError(t, err)
	require.True(t, sol.Feasible)
	require.NotEmpty(t, sol.Configs)
	require.Equal(t, inst.Goal[0], sol.Configs[len(sol.Configs)-1].Agents[0].Position)
	require.Equal(t, inst.Goal[1], sol.Configs[len(sol.Configs)-1].Agents[1].Position)
}

func TestSolveDeadlineExceededReturnsBestSoFar(t *testing.T) {
	base := openGrid(t, 8)
	inst := fleet.Build(base, []fleet.AgentSpec{
		{CellSize: 1, SpeedPeriod: 1, StartX: 0, StartY: 0, GoalX: 7, GoalY: 0},
		{CellSize: 1, SpeedPeriod: 1, StartX: 7, StartY: 0, GoalX: 0, GoalY: 0},
	})
	p, err := New(inst, time.Now().Add(time.Nanosecond), 3, config.Default(), nil)
	require.NoError(t, err)

	sol, err := p.Solve(context.Background())
	require.True(t, errors.Is(err, ErrDeadlineExceeded))
	require.NotNil(t, sol)
}

func TestIncrementalAdvanceReachesGoal(t *testing.T) {
	base := openGrid(t, 8)
	inst := fleet.Build(base, []fleet.AgentSpec{
		{CellSize: 1, SpeedPeriod: 1, StartX: 0, StartY: 0, GoalX: 2, GoalY: 0},
	})
	p, err := New(inst, time.Time{}, 5, config.Default(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		status, err := p.Search(ctx, 50)
		require.NoError(t, err)
		next := p.ExtractNextStep()
		p.Advance(next)
		if status == GoalFound {
			require.Equal(t, inst.Goal[0], next.Agents[0].Position)
			return
		}
	}
	t.Fatal("expected a single agent on an open grid to reach its goal within 20 steps")
}
