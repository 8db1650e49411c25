package pibt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/hetmapf/internal/distance"
	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
	"github.com/elektrokombinacija/hetmapf/internal/hetconfig"
)

func openGrid(t *testing.T, n int) *grid.Graph {
	t.Helper()
	lines := []string{"height 0", "width 0", "map"}
	lines[0] = "height " + itoa(n)
	lines[1] = "width " + itoa(n)
	rows := make([]string, n)
	for i := range rows {
		row := make([]byte, n)
		for j := range row {
			row[j] = '.'
		}
		rows[i] = string(row)
	}
	lines = append(lines, rows...)
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

func twoCrossingAgents(t *testing.T) (*fleet.Instance, *distance.Oracle) {
	t.Helper()
	base := openGrid(t, 8)
	inst := fleet.Build(base, []fleet.AgentSpec{
		{CellSize: 1, SpeedPeriod: 1, StartX: 0, StartY: 0, GoalX: 7, GoalY: 0},
		{CellSize: 1, SpeedPeriod: 1, StartX: 7, StartY: 0, GoalX: 0, GoalY: 0},
	})
	return inst, distance.Build(inst)
}

func TestGenerateHardConstraintRespected(t *testing.T) {
	inst, oracle := twoCrossingAgents(t)
	src := hetconfig.FromStart(inst)
	rng := rand.New(rand.NewSource(1))

	fm := inst.FleetOf(0)
	want := fm.Graph.At(1, 0).ID

	gen := &Generator{Inst: inst, Oracle: oracle}
	out, ok := gen.Generate(src, []Fix{{Agent: 0, Position: want}}, []int{0, 1}, rng, nil)
	require.True(t, ok)
	require.Equal(t, want, out.Agents[0].Position)
}

func TestGenerateSpeedGatedHoldsThenClearsKappa(t *testing.T) {
	base := openGrid(t, 4)
	inst := fleet.Build(base, []fleet.AgentSpec{
		{CellSize: 2, SpeedPeriod: 2, StartX: 0, StartY: 0, GoalX: 1, GoalY: 0},
	})
	oracle := distance.Build(inst)

	src := hetconfig.FromStart(inst)
	src.Agents[0].Kappa = 1

	gen := &Generator{Inst: inst, Oracle: oracle}
	rng := rand.New(rand.NewSource(2))
	out, ok := gen.Generate(src, nil, []int{0}, rng, nil)
	require.True(t, ok)
	require.Equal(t, src.Agents[0].Position, out.Agents[0].Position)
	require.Equal(t, 0, out.Agents[0].Kappa)
}

func TestGenerateTwoAgentSwapFindsConflictFreeSuccessor(t *testing.T) {
	inst, oracle := twoCrossingAgents(t)
	src := hetconfig.FromStart(inst)
	rng := rand.New(rand.NewSource(3))

	order := []int{0, 1}
	for step := 0; step < 10; step++ {
		enumerator := NewEnumerator(inst, order, src)
		l := enumerator.PopNext(rng)
		require.NotNil(t, l)

		gen := &Generator{Inst: inst, Oracle: oracle}
		out, ok := gen.Generate(src, l.Fixes(), order, rng, nil)
		require.True(t, ok, "step %d", step)
		requireFootprintDisjoint(t, inst, out)
		requireEdgeValid(t, inst, src, out)
		requireNoSwap(t, inst, src, out)
		src = out
		if hetconfig.IsGoal(src, inst) {
			return
		}
	}
}

func requireFootprintDisjoint(t *testing.T, inst *fleet.Instance, c hetconfig.HetConfig) {
	t.Helper()
	owner := make(map[grid.BaseCellID]int)
	for a := 0; a < inst.N(); a++ {
		for _, bc := range footprintOf(inst, a, c.Agents[a].Position) {
			if other, ok := owner[bc]; ok {
				t.Fatalf("agents %d and %d both cover base cell %d", other, a, bc)
			}
			owner[bc] = a
		}
	}
}

func requireEdgeValid(t *testing.T, inst *fleet.Instance, from, to hetconfig.HetConfig) {
	t.Helper()
	for a := 0; a < inst.N(); a++ {
		if from.Agents[a].Position == to.Agents[a].Position {
			continue
		}
		fm := inst.FleetOf(fleet.AgentID(a))
		v := fm.Graph.Vertex(from.Agents[a].Position)
		ok := false
		for _, nb := range v.NeighborIDs() {
			if nb == to.Agents[a].Position {
				ok = true
			}
		}
		require.True(t, ok, "agent %d moved to a non-neighbor", a)
	}
}

func requireNoSwap(t *testing.T, inst *fleet.Instance, from, to hetconfig.HetConfig) {
	t.Helper()
	for i := 0; i < inst.N(); i++ {
		for j := i + 1; j < inst.N(); j++ {
			iTo := footprintOf(inst, i, to.Agents[i].Position)
			jFrom := footprintOf(inst, j, from.Agents[j].Position)
			jTo := footprintOf(inst, j, to.Agents[j].Position)
			iFrom := footprintOf(inst, i, from.Agents[i].Position)
			if setsOverlap(iTo, jFrom) && setsOverlap(jTo, iFrom) {
				t.Fatalf("swap conflict between agents %d and %d", i, j)
			}
		}
	}
}

func setsOverlap(a, b []grid.BaseCellID) bool {
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
