package reservation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
	"github.com/elektrokombinacija/hetmapf/internal/hetconfig"
)

func smallInstance(t *testing.T) *fleet.Instance {
	t.Helper()
	lines := []string{
		"height 4",
		"width 4",
		"map",
		"....",
		"....",
		"....",
		"....",
	}
	base, err := grid.NewFromMap(lines)
	require.NoError(t, err)

	inst := fleet.Build(base, []fleet.AgentSpec{
		{CellSize: 1, SpeedPeriod: 1, StartX: 0, StartY: 0, GoalX: 3, GoalY: 3},
		{CellSize: 1, SpeedPeriod: 1, StartX: 3, StartY: 0, GoalX: 0, GoalY: 3},
	})
	return inst
}

func TestSeedTransientThenReservePathMatchesReservePathAlone(t *testing.T) {
	inst := smallInstance(t)
	c := hetconfig.FromStart(inst)

	start := inst.FleetOf(0).Graph.At(0, 0).ID
	next := inst.FleetOf(0).Graph.At(1, 0).ID

	tbl := New(inst)
	tbl.SeedTransient(c)
	tbl.ReservePath(0, 1, []grid.VertexID{next})

	want := New(inst)
	want.ReservePath(0, 0, []grid.VertexID{start})
	want.ReservePath(0, 1, []grid.VertexID{next})

	require.Equal(t, want.Endpoint(0), tbl.Endpoint(0))
	require.True(t, tbl.Processed(0))
}

func TestResetAgentIdempotent(t *testing.T) {
	inst := smallInstance(t)
	cell := inst.FleetOf(0).Graph.At(2, 2).ID

	tbl := New(inst)
	tbl.ResetAgent(0, cell)
	first := tbl.Endpoint(0)
	tbl.ResetAgent(0, cell)
	second := tbl.Endpoint(0)

	require.Equal(t, first, second)
	require.True(t, tbl.parkedAtCell[baseCellOf(t, inst, cell)][0])
}

func baseCellOf(t *testing.T, inst *fleet.Instance, v grid.VertexID) grid.BaseCellID {
	t.Helper()
	vertex := inst.FleetOf(0).Graph.Vertex(v)
	cells := grid.BaseCellsOfVertex(vertex, inst.CellSize(0), inst.Base.Width)
	require.Len(t, cells, 1)
	return cells[0]
}

func TestMoveCollidesDetectsSwap(t *testing.T) {
	inst := smallInstance(t)
	tbl := New(inst)

	a0 := inst.FleetOf(0).Graph.At(1, 0).ID
	a1 := inst.FleetOf(0).Graph.At(2, 0).ID

	// Agent 1 currently at a1, will move to a0 at time 0->1.
	tbl.ReservePath(1, 0, []grid.VertexID{a1})
	tbl.ReservePath(1, 1, []grid.VertexID{a0})

	// Agent 0 at a0 wants to move to a1 at time 0->1: a swap.
	require.True(t, tbl.MoveCollides(0, a0, a1, 0))
}

func TestIsOccupiedHonorsProcessedParkedAgent(t *testing.T) {
	inst := smallInstance(t)
	tbl := New(inst)

	cell := inst.FleetOf(0).Graph.At(1, 1).ID
	tbl.ReservePath(0, 0, []grid.VertexID{cell})

	bc := baseCellOf(t, inst, cell)
	require.True(t, tbl.IsOccupied(bc, 5, -1), "processed parked agent should block future ticks")
	require.False(t, tbl.IsOccupied(bc, 5, 0), "exempted agent should not block itself")
}
