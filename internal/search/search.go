package search

import (
	"math"
	"math/rand"

	"github.com/elektrokombinacija/hetmapf/internal/distance"
	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/hetconfig"
	"github.com/elektrokombinacija/hetmapf/internal/obslog"
	"github.com/elektrokombinacija/hetmapf/internal/pibt"
	"go.uber.org/zap"
)

// Params bundles the anytime search's tunable knobs.
type Params struct {
	AnytimeEnabled    bool
	GoalLock          bool
	RandomInsertProb1 float64 // chance, on a re-explored node, to push H_init onto OPEN instead of it
	RandomInsertProb2 float64 // chance, once a goal exists, to pop a random OPEN element instead of the lowest-F one
	Seed              int64
}

// DefaultParams mirrors the published reference configuration.
func DefaultParams() Params {
	return Params{
		AnytimeEnabled:    true,
		GoalLock:          true,
		RandomInsertProb1: 0.01,
		RandomInsertProb2: 0.01,
	}
}

// Result is what Run returns: the best (or first, if AnytimeEnabled is
// false) goal node found, or nil if OPEN emptied without reaching the goal.
type Result struct {
	Goal      *HNode
	Expanded  int
	BestFSeen float64
}

// Engine owns one search's arena, tables, and RNG across possibly many
// Step calls, so callers can run it incrementally (search.Engine.Step) or
// to completion (search.Run).
type Engine struct {
	inst   *fleet.Instance
	oracle *distance.Oracle
	params Params
	rng    *rand.Rand

	// Logger receives the warnings RecordStageDeltas emits; nil is a valid
	// no-op value, so a bare NewEngine works without one.
	Logger *zap.SugaredLogger

	arena    arena
	open     []*HNode // unsorted slice, scanned for argmin F each pop — fine at het-MAPF node counts
	explored map[uint32][]*HNode
	start    *HNode
	best     *HNode

	done     bool
	expanded int
}

// NewEngine builds the root HNode from the instance's start configuration
// and initializes OPEN/EXPLORED.
func NewEngine(inst *fleet.Instance, oracle *distance.Oracle, params Params) *Engine {
	return NewEngineFromConfig(inst, oracle, params, hetconfig.FromStart(inst))
}

// NewEngineFromConfig roots the search at an arbitrary configuration,
// supporting the incremental mode's re-anchoring after each committed step.
func NewEngineFromConfig(inst *fleet.Instance, oracle *distance.Oracle, params Params, root hetconfig.HetConfig) *Engine {
	e := &Engine{
		inst:     inst,
		oracle:   oracle,
		params:   params,
		rng:      rand.New(rand.NewSource(params.Seed)),
		explored: make(map[uint32][]*HNode),
	}
	h := hetconfig.Heuristic(root, inst, e.oracle.Distance)
	rootNode := e.arena.newNode(root, nil, 0, h, inst, initialPriorities(inst.N()))
	e.open = append(e.open, rootNode)
	e.explored[rootNode.Config.Hash()] = []*HNode{rootNode}
	e.start = rootNode
	if hetconfig.IsGoal(root, inst) {
		e.best = rootNode
	}
	return e
}

// Best returns the best goal node found so far, or nil.
func (e *Engine) Best() *HNode { return e.best }

// Start returns the engine's root node.
func (e *Engine) Start() *HNode { return e.start }

// Expanded returns the number of Step calls that performed an expansion.
func (e *Engine) Expanded() int { return e.expanded }

// SetLogger attaches a logger the engine uses for operational warnings
// (PIBT sweep-failure reports). A nil logger, the zero value, is fine.
func (e *Engine) SetLogger(logger *zap.SugaredLogger) { e.Logger = logger }

// popBest removes and returns the lowest-F node in OPEN, ties broken by
// insertion order (stable pop from the front among equal F).
func (e *Engine) popBest() *HNode {
	if len(e.open) == 0 {
		return nil
	}
	bi := 0
	for i := 1; i < len(e.open); i++ {
		if e.open[i].F() < e.open[bi].F() {
			bi = i
		}
	}
	n := e.open[bi]
	e.open = append(e.open[:bi], e.open[bi+1:]...)
	return n
}

// popRandom removes and returns a uniformly random node from OPEN.
func (e *Engine) popRandom() *HNode {
	if len(e.open) == 0 {
		return nil
	}
	idx := e.rng.Intn(len(e.open))
	n := e.open[idx]
	e.open = append(e.open[:idx], e.open[idx+1:]...)
	return n
}

// lookup returns an EXPLORED node matching config's hash and value, or nil.
func (e *Engine) lookup(config hetconfig.HetConfig) *HNode {
	for _, n := range e.explored[config.Hash()] {
		if n.Config.Equal(config) {
			return n
		}
	}
	return nil
}

// Step performs one high-level iteration: selects the next OPEN node
// (normally the lowest-F one, occasionally — once a goal exists — a random
// one), prunes it if it can no longer beat the best goal found, draws its
// next low-level constraint, runs the push generator, and inserts or
// rewires the resulting successor. It reports whether OPEN is now empty
// (search exhausted) and whatever goal has been found so far, if any.
func (e *Engine) Step() (exhausted bool, goal *HNode) {
	if e.done {
		return true, e.best
	}
	if len(e.open) == 0 {
		e.done = true
		return true, e.best
	}

	var n *HNode
	if e.best != nil && e.rng.Float64() < e.params.RandomInsertProb2 {
		n = e.popRandom()
	} else {
		n = e.popBest()
	}

	// Prune: n can no longer improve on the best goal already found.
	if e.best != nil && n.F() >= e.best.F() {
		if len(e.open) == 0 {
			e.done = true
		}
		return e.done, e.best
	}

	lnode := popNextConstraint(n, e.rng)
	if lnode == nil {
		// n's low-level queue is drained; it contributes nothing more.
		if e.best != nil && !e.params.AnytimeEnabled {
			e.done = true
		}
		return false, e.best
	}
	// n may still have more constraints to try later.
	e.open = append(e.open, n)
	e.expanded++

	gen := &pibt.Generator{Inst: e.inst, Oracle: e.oracle, GoalLock: e.params.GoalLock}
	successor, ok := gen.Generate(n.Config, lnode.Fixes(), n.Order, e.rng, history(n))
	obslog.RecordStageDeltas(e.Logger, obslog.StageDeltas{
		HardConstraint: gen.StageFailures.HardConstraint,
		GoalLockPass:   gen.StageFailures.GoalLockPass,
		SpeedGatePass:  gen.StageFailures.SpeedGatePass,
		PriorityPass:   gen.StageFailures.PriorityPass,
		Sweep:          gen.StageFailures.Sweep,
	})
	if ok {
		e.insertSuccessor(n, successor)
	}

	if e.best != nil && !e.params.AnytimeEnabled {
		e.done = true
	}
	return false, e.best
}

// insertSuccessor implements the lookup-or-insert rule. If the successor
// configuration is already EXPLORED at some H′, the edge H–H′ is added,
// H′ is relaxed in place if the new path is cheaper, and H′ — or, with
// probability RandomInsertProb1, the search root — is pushed back onto
// OPEN so exploration continues from there. Otherwise a fresh HNode is
// inserted into both EXPLORED and OPEN.
func (e *Engine) insertSuccessor(parent *HNode, config hetconfig.HetConfig) {
	edgeCost := hetconfig.EdgeCost(parent.Config, config, e.inst)
	g := parent.G + edgeCost

	if existing := e.lookup(config); existing != nil {
		addEdge(parent, existing)
		if g < existing.G {
			existing.G = g
			existing.Parent = parent
			e.relaxNeighbors(existing)
		}
		e.maybeGoal(existing)

		if e.rng.Float64() < e.params.RandomInsertProb1 {
			e.open = append(e.open, e.start)
		} else {
			e.open = append(e.open, existing)
		}
		return
	}

	h := hetconfig.Heuristic(config, e.inst, e.oracle.Distance)
	successor := e.arena.newNode(config, parent, g, h, e.inst, append([]float64{}, parent.Priorities...))
	addEdge(parent, successor)
	key := config.Hash()
	e.explored[key] = append(e.explored[key], successor)
	e.open = append(e.open, successor)
	e.maybeGoal(successor)
}

// relaxNeighbors propagates n's just-improved g outward through its
// neighbor graph breadth-first, pushing every descendant whose g strictly
// improves back onto OPEN — unless a goal already exists and the
// descendant's f can no longer beat it, in which case pushing it would be
// wasted work.
func (e *Engine) relaxNeighbors(n *HNode) {
	frontier := []*HNode{n}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		for _, nb := range cur.Neighbors {
			cand := cur.G + hetconfig.EdgeCost(cur.Config, nb.Config, e.inst)
			if cand < nb.G {
				nb.G = cand
				nb.Parent = cur
				if e.best == nil || nb.F() < e.best.F() {
					e.open = append(e.open, nb)
				}
				frontier = append(frontier, nb)
			}
		}
	}
}

func (e *Engine) maybeGoal(n *HNode) {
	if !hetconfig.IsGoal(n.Config, e.inst) {
		return
	}
	if e.best == nil || n.F() < e.best.F() {
		e.best = n
	}
}

// Run drives Step to completion (OPEN exhausted, or a goal found with
// AnytimeEnabled false) and returns the best goal node reached.
func Run(inst *fleet.Instance, oracle *distance.Oracle, params Params, maxExpansions int) Result {
	e := NewEngine(inst, oracle, params)
	for i := 0; maxExpansions <= 0 || i < maxExpansions; i++ {
		exhausted, _ := e.Step()
		if exhausted {
			break
		}
	}
	best := math.Inf(1)
	if e.best != nil {
		best = e.best.F()
	}
	return Result{Goal: e.best, Expanded: e.expanded, BestFSeen: best}
}

// ExtractPath walks a goal HNode back to the root via Parent, returning the
// chain of configurations root-to-goal.
func ExtractPath(goal *HNode) []hetconfig.HetConfig {
	var out []hetconfig.HetConfig
	for n := goal; n != nil; n = n.Parent {
		out = append([]hetconfig.HetConfig{n.Config}, out...)
	}
	return out
}
