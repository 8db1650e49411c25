// Package pibt implements the priority-inheritance push generator (PIBT)
// and the low-level constraint enumerator that feeds it.
package pibt

import (
	"math/rand"
	"sort"

	"github.com/elektrokombinacija/hetmapf/internal/distance"
	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
	"github.com/elektrokombinacija/hetmapf/internal/hetconfig"
	"github.com/elektrokombinacija/hetmapf/internal/lookahead"
	"github.com/elektrokombinacija/hetmapf/internal/reservation"
)

// DefaultMaxPushDepth bounds the priority-inheritance recursion depth.
const DefaultMaxPushDepth = 6

// Fix is one pre-fixed hard constraint handed to the generator by the
// low-level enumerator.
type Fix struct {
	Agent    int
	Position grid.VertexID
}

// HistoryFunc returns an agent's last (up to 10) visited cells, most recent
// last, used by the lookahead's oscillation penalty.
type HistoryFunc func(agent int) []grid.VertexID

// Generator synthesizes conflict-free successor configurations. It is
// strictly single-threaded per invocation; every call allocates its own
// reservation table and bitmaps. The RNG is supplied by the caller, and
// StageFailures and MaxDepth are written on the Generator itself, so
// concurrent calls share no mutable state only when each uses its own
// Generator value and RNG.
type Generator struct {
	Inst     *fleet.Instance
	Oracle   *distance.Oracle
	GoalLock bool
	MaxDepth int // defaults to DefaultMaxPushDepth when 0

	// StageFailures counts generator aborts by phase. A persistently
	// nonzero "sweep" count signals the sweep pass is masking real
	// infeasibility rather than recovering from order artifacts.
	StageFailures StageCounters
}

// StageCounters tallies abort reasons across generator calls.
type StageCounters struct {
	HardConstraint int
	GoalLockPass   int
	SpeedGatePass  int
	PriorityPass   int
	Sweep          int
}

type working struct {
	assigned []bool
	pos      []grid.VertexID
	kappa    []int
}

func newWorking(n int) *working {
	return &working{
		assigned: make([]bool, n),
		pos:      make([]grid.VertexID, n),
		kappa:    make([]int, n),
	}
}

// Generate runs the full hard-constraint, goal-lock, speed-gate, priority,
// and sweep phase sequence and returns the resulting HetConfig plus whether
// it succeeded.
func (g *Generator) Generate(source hetconfig.HetConfig, fixed []Fix, order []int, rng *rand.Rand, history HistoryFunc) (hetconfig.HetConfig, bool) {
	n := g.Inst.N()
	if g.MaxDepth == 0 {
		g.MaxDepth = DefaultMaxPushDepth
	}

	resv := reservation.New(g.Inst)
	resv.SeedTransient(source)

	w := newWorking(n)
	occupiedNext := make(map[grid.BaseCellID]int) // base cell -> agent id

	markNext := func(agent int, cell grid.VertexID) {
		for _, bc := range g.footprint(agent, cell) {
			occupiedNext[bc] = agent
		}
	}
	freeNext := func(agent int, cell grid.VertexID) bool {
		for _, bc := range g.footprint(agent, cell) {
			if owner, ok := occupiedNext[bc]; ok && owner != agent {
				return false
			}
		}
		return true
	}

	// Phase 2: honor hard constraints.
	for _, f := range fixed {
		i := f.Agent
		from := source.Agents[i].Position
		kappa := g.phaseKappa(source.Agents[i].Kappa, from, f.Position, i)
		if !freeNext(i, f.Position) {
			g.StageFailures.HardConstraint++
			return hetconfig.HetConfig{}, false
		}
		if resv.MoveCollides(i, from, f.Position, 0) {
			g.StageFailures.HardConstraint++
			return hetconfig.HetConfig{}, false
		}
		markNext(i, f.Position)
		w.assigned[i] = true
		w.pos[i] = f.Position
		w.kappa[i] = kappa
		resv.ReservePath(i, 0, []grid.VertexID{from, f.Position})
		resv.MarkProcessed(i)
	}

	// Phase 3: goal-lock pre-pass (mode-gated).
	if g.GoalLock {
		for i := 0; i < n; i++ {
			if w.assigned[i] || !g.isGoalLocked(source, i) {
				continue
			}
			cell := source.Agents[i].Position
			if !freeNext(i, cell) {
				g.StageFailures.GoalLockPass++
				return hetconfig.HetConfig{}, false
			}
			markNext(i, cell)
			w.assigned[i] = true
			w.pos[i] = cell
			w.kappa[i] = 0
			resv.ReserveStay(i, cell, 0, 0)
			resv.MarkProcessed(i)
		}
	}

	// Phase 4: speed-gated pre-pass.
	for i := 0; i < n; i++ {
		if w.assigned[i] || source.Agents[i].Kappa <= 0 {
			continue
		}
		cell := source.Agents[i].Position
		if !freeNext(i, cell) {
			g.StageFailures.SpeedGatePass++
			return hetconfig.HetConfig{}, false
		}
		markNext(i, cell)
		w.assigned[i] = true
		w.pos[i] = cell
		w.kappa[i] = nextKappa(source.Agents[i].Kappa, g.Inst.SpeedPeriod(fleet.AgentID(i)))
		resv.ReserveStay(i, cell, 0, 0)
		resv.MarkProcessed(i)
	}

	ctx := &pushCtx{
		gen:          g,
		source:       source,
		w:            w,
		resv:         resv,
		occupiedNext: occupiedNext,
		markNext:     markNext,
		freeNext:     freeNext,
		rng:          rng,
		history:      history,
	}

	// Phase 5: priority pass. A failed push here is not fatal by itself —
	// the sweep pass gets one more attempt — but every occurrence is
	// counted, since a persistently nonzero rate signals the generator's
	// parameters (push depth, speed ratios) are mismatched to the fleet.
	for _, i := range order {
		if w.assigned[i] {
			continue
		}
		if !ctx.push(i, map[int]bool{}, map[grid.BaseCellID]bool{}, g.MaxDepth) {
			g.StageFailures.PriorityPass++
		}
	}

	// Phase 6: sweep pass.
	var stillUnassigned []int
	for i := 0; i < n; i++ {
		if !w.assigned[i] {
			stillUnassigned = append(stillUnassigned, i)
		}
	}
	for _, i := range stillUnassigned {
		if w.assigned[i] {
			continue
		}
		if !ctx.push(i, map[int]bool{}, map[grid.BaseCellID]bool{}, g.MaxDepth) {
			g.StageFailures.Sweep++
			return hetconfig.HetConfig{}, false
		}
	}

	out := hetconfig.New(n)
	for i := 0; i < n; i++ {
		out.Agents[i] = hetconfig.AgentState{Position: w.pos[i], Kappa: w.kappa[i]}
	}
	return out, true
}

func (g *Generator) footprint(agent int, cell grid.VertexID) []grid.BaseCellID {
	fm := g.Inst.FleetOf(fleet.AgentID(agent))
	v := fm.Graph.Vertex(cell)
	if v == nil {
		return nil
	}
	return grid.BaseCellsOfVertex(v, fm.CellSize, g.Inst.Base.Width)
}

func (g *Generator) isGoalLocked(c hetconfig.HetConfig, agent int) bool {
	return hetconfig.AtGoal(c, g.Inst, agent)
}

// phaseKappa derives an agent's post-move phase counter: a held speed gate
// keeps counting, a fresh move into a multi-tick cell opens a new gate, and
// a single-tick move or a wait resets to zero.
func (g *Generator) phaseKappa(sourceKappa int, from, to grid.VertexID, agent int) int {
	sp := g.Inst.SpeedPeriod(fleet.AgentID(agent))
	if sourceKappa > 0 {
		return (sourceKappa + 1) % sp
	}
	if to != from && sp > 1 {
		return 1
	}
	return 0
}

func nextKappa(kappa, sp int) int {
	return (kappa + 1) % sp
}

// pushCtx bundles the state threaded through the recursive push calls.
type pushCtx struct {
	gen          *Generator
	source       hetconfig.HetConfig
	w            *working
	resv         *reservation.Table
	occupiedNext map[grid.BaseCellID]int
	markNext     func(agent int, cell grid.VertexID)
	freeNext     func(agent int, cell grid.VertexID) bool
	rng          *rand.Rand
	history      HistoryFunc
}

// push tries to place agent i into a conflict-free next cell, recursively
// pushing any unassigned agent that blocks its best candidate and undoing
// the whole sub-cascade on failure.
func (ctx *pushCtx) push(i int, inChain map[int]bool, keepOut map[grid.BaseCellID]bool, depth int) bool {
	g := ctx.gen

	if depth <= 0 || inChain[i] || (g.GoalLock && g.isGoalLocked(ctx.source, i)) {
		return false
	}

	if ctx.source.Agents[i].Kappa > 0 {
		cell := ctx.source.Agents[i].Position
		if !ctx.freeNext(i, cell) {
			return false
		}
		ctx.markNext(i, cell)
		ctx.w.assigned[i] = true
		ctx.w.pos[i] = cell
		ctx.w.kappa[i] = nextKappa(ctx.source.Agents[i].Kappa, g.Inst.SpeedPeriod(fleet.AgentID(i)))
		ctx.resv.ReserveStay(i, cell, 0, 0)
		ctx.resv.MarkProcessed(i)
		return true
	}

	inChain[i] = true

	currentCell := ctx.source.Agents[i].Position
	ctx.resv.ResetAgent(i, currentCell)

	var hist []grid.VertexID
	if ctx.history != nil {
		hist = ctx.history(i)
	}
	depthBudget := lookahead.DefaultDepth(g.Inst.CellSize(fleet.AgentID(i)))
	candidates := lookahead.Search(g.Inst, g.Oracle, ctx.resv, i, currentCell, hist, depthBudget, ctx.rng, func(a int) bool {
		return g.GoalLock && g.isGoalLocked(ctx.source, a)
	})

	for _, cand := range candidates {
		u := cand.FirstStep
		if !ctx.freeNext(i, u) {
			continue
		}
		if ctx.wouldSwap(i, currentCell, u) {
			continue
		}
		if inKeepOut(g, i, u, keepOut) {
			continue
		}

		ctx.w.pos[i] = u // tentative, footprint not marked yet

		ok := true
		if u != currentCell {
			blockers := unassignedBlockers(ctx.w, cand.BlockingAgents)
			sort.Ints(blockers)

			for _, bc := range g.footprint(i, u) {
				keepOut[bc] = true
			}

			snapshotChain := cloneBoolMap(inChain)
			snapshotUnassigned := snapshotUnassignedPositions(ctx.w, ctx.source)

			for _, j := range blockers {
				if ctx.w.assigned[j] {
					continue
				}
				if !ctx.push(j, inChain, keepOut, subDepth(depth, g.Inst.CellSize(fleet.AgentID(i)), g.Inst.CellSize(fleet.AgentID(j)))) {
					ok = false
					break
				}
			}

			if ok && !ctx.freeNext(i, u) {
				ok = false
			}

			if !ok {
				ctx.undoSince(snapshotUnassigned)
				restoreBoolMap(inChain, snapshotChain)
				ctx.w.pos[i] = grid.VertexID(0)
				continue
			}
		}

		ctx.markNext(i, u)
		ctx.w.assigned[i] = true
		ctx.resv.ReservePath(i, 0, cand.Path)
		ctx.resv.MarkProcessed(i)
		ctx.w.kappa[i] = g.phaseKappa(ctx.source.Agents[i].Kappa, currentCell, u, i)
		return true
	}

	delete(inChain, i)
	if ctx.freeNext(i, currentCell) {
		ctx.markNext(i, currentCell)
		ctx.w.assigned[i] = true
		ctx.w.pos[i] = currentCell
		ctx.w.kappa[i] = 0
		ctx.resv.ReserveStay(i, currentCell, 0, 0)
		ctx.resv.MarkProcessed(i)
	}
	return false
}

func (ctx *pushCtx) wouldSwap(i int, from, to grid.VertexID) bool {
	return ctx.resv.MoveCollides(i, from, to, 0)
}

func inKeepOut(g *Generator, agent int, cell grid.VertexID, keepOut map[grid.BaseCellID]bool) bool {
	for _, bc := range g.footprint(agent, cell) {
		if keepOut[bc] {
			return true
		}
	}
	return false
}

func unassignedBlockers(w *working, blockers []int) []int {
	var out []int
	for _, j := range blockers {
		if !w.assigned[j] {
			out = append(out, j)
		}
	}
	return out
}

type snapshotEntry struct {
	agent int
	cell  grid.VertexID
	kappa int
}

func snapshotUnassignedPositions(w *working, source hetconfig.HetConfig) []snapshotEntry {
	var out []snapshotEntry
	for a := range w.assigned {
		if !w.assigned[a] {
			out = append(out, snapshotEntry{agent: a, cell: source.Agents[a].Position})
		}
	}
	return out
}

// undoSince reverts every agent that became assigned after the snapshot was
// taken, resetting its reservation endpoint to its source cell. Ghost
// entries left behind by the failed sub-cascade's space-time marks are
// intentionally kept: they can only make a later candidate look more
// contested than it is, never less.
func (ctx *pushCtx) undoSince(snapshot []snapshotEntry) {
	for _, e := range snapshot {
		if !ctx.w.assigned[e.agent] {
			continue
		}
		for _, bc := range ctx.gen.footprint(e.agent, ctx.w.pos[e.agent]) {
			if ctx.occupiedNext[bc] == e.agent {
				delete(ctx.occupiedNext, bc)
			}
		}
		ctx.w.assigned[e.agent] = false
		ctx.w.pos[e.agent] = e.cell
		ctx.w.kappa[e.agent] = 0
		ctx.resv.ResetAgent(e.agent, e.cell)
	}
}

func cloneBoolMap(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func restoreBoolMap(m map[int]bool, snapshot map[int]bool) {
	for k := range m {
		if !snapshot[k] {
			delete(m, k)
		}
	}
	for k, v := range snapshot {
		m[k] = v
	}
}

// subDepth computes max(depth-1, ceil(cellSize_i/cellSize_j)) so a small
// blocker gets enough lookahead to escape a bigger pusher's footprint.
func subDepth(depth, cellSizeI, cellSizeJ int) int {
	ratio := ceilDiv(cellSizeI, cellSizeJ)
	if depth-1 > ratio {
		return depth - 1
	}
	return ratio
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		b = 1
	}
	return (a + b - 1) / b
}
