// Package planner exposes the het-MAPF solving surface: full-horizon
// search, the incremental one-step real-time mode, and the error and
// status vocabulary callers (CLI, tests, embedders) program against.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elektrokombinacija/hetmapf/internal/config"
	"github.com/elektrokombinacija/hetmapf/internal/distance"
	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/hetconfig"
	"github.com/elektrokombinacija/hetmapf/internal/obslog"
	"github.com/elektrokombinacija/hetmapf/internal/search"
)

// Errors surfaced to callers. ErrInvalidInstance wraps validation detail via
// fmt.Errorf("%w: %s", ErrInvalidInstance, detail); ErrNoSolution and
// ErrDeadlineExceeded are returned bare or wrapped, never compared to with
// ==.
var (
	ErrInvalidInstance  = errors.New("hetmapf: invalid instance")
	ErrNoSolution       = errors.New("hetmapf: no solution")
	ErrDeadlineExceeded = errors.New("hetmapf: deadline exceeded")
)

// Status is the incremental search's coarse progress report.
type Status int

const (
	Searching Status = iota
	GoalFound
	NoSolution
)

func (s Status) String() string {
	switch s {
	case GoalFound:
		return "GoalFound"
	case NoSolution:
		return "NoSolution"
	default:
		return "Searching"
	}
}

// Planner is the stateful façade: one Planner per instance, reused across
// both full-horizon Solve calls and an incremental Search/ExtractNextStep/
// Advance loop.
type Planner struct {
	inst     *fleet.Instance
	oracle   *distance.Oracle
	params   config.Params
	seed     int64
	deadline time.Time
	logger   *zap.SugaredLogger

	committed hetconfig.HetConfig
	engine    *search.Engine
}

// New validates inst, builds the distance oracle, and seeds the search
// engine at inst's start configuration. logger may be nil, in which case a
// no-op logger is used.
func New(inst *fleet.Instance, deadline time.Time, seed int64, params config.Params, logger *zap.SugaredLogger) (*Planner, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInstance, err)
	}

	oracle := distance.Build(inst)
	for a := 0; a < inst.N(); a++ {
		if !oracle.Reachable(a, inst.Start[a]) {
			return nil, fmt.Errorf("%w: agent %d's goal is unreachable from its start", ErrInvalidInstance, a)
		}
	}

	p := &Planner{
		inst:      inst,
		oracle:    oracle,
		params:    params,
		seed:      seed,
		deadline:  deadline,
		logger:    logger,
		committed: hetconfig.FromStart(inst),
	}
	p.engine = search.NewEngineFromConfig(inst, oracle, p.searchParams(seed), p.committed)
	p.engine.SetLogger(logger)
	return p, nil
}

func (p *Planner) searchParams(seed int64) search.Params {
	return search.Params{
		AnytimeEnabled:    p.params.AnytimeEnabled,
		GoalLock:          p.params.GoalLock,
		RandomInsertProb1: p.params.RandomInsertProb1,
		RandomInsertProb2: p.params.RandomInsertProb2,
		Seed:              seed,
	}
}

func (p *Planner) deadlineCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.deadline.IsZero() {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, p.deadline)
}

// Solve runs the anytime search to completion (OPEN exhausted, context
// canceled, or deadline reached) and returns the best plan found. When
// PIBTInstances > 1 and MultiThreadedPIBT is set, it races that many
// independently-seeded engines and keeps the best result.
func (p *Planner) Solve(ctx context.Context) (*Solution, error) {
	cctx, cancel := p.deadlineCtx(ctx)
	defer cancel()

	instances := p.params.PIBTInstances
	if instances < 1 {
		instances = 1
	}
	if instances == 1 || !p.params.MultiThreadedPIBT {
		sol, err := p.runToCompletion(cctx, p.engine)
		return sol, err
	}
	return p.solveEnsemble(cctx, instances)
}

func (p *Planner) solveEnsemble(ctx context.Context, instances int) (*Solution, error) {
	g, gctx := errgroup.WithContext(ctx)
	results := make([]*Solution, instances)
	errs := make([]error, instances)

	for i := 0; i < instances; i++ {
		i := i
		g.Go(func() error {
			eng := search.NewEngineFromConfig(p.inst, p.oracle, p.searchParams(p.seed+int64(i)), p.committed)
			eng.SetLogger(p.logger)
			sol, err := p.runToCompletion(gctx, eng)
			results[i] = sol
			errs[i] = err
			return nil // siblings keep racing even if one fails
		})
	}
	_ = g.Wait()

	var best *Solution
	var bestErr error = ErrNoSolution
	for i, sol := range results {
		if sol != nil && sol.Feasible && (best == nil || sol.GoalF < best.GoalF) {
			best = sol
			bestErr = errs[i]
		}
	}
	if best != nil {
		return best, bestErr
	}
	return results[0], errs[0]
}

func (p *Planner) runToCompletion(ctx context.Context, eng *search.Engine) (*Solution, error) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Debugw("solve deadline reached", "expanded", eng.Expanded())
			return p.deadlineResult(eng)
		default:
		}

		start := time.Now()
		before := eng.Expanded()
		exhausted, goal := eng.Step()
		obslog.SearchIterationSeconds.Observe(time.Since(start).Seconds())
		obslog.HNodesExpanded.Add(float64(eng.Expanded() - before))
		if goal != nil {
			obslog.GoalFCurrent.Set(goal.F())
		}

		if exhausted {
			if goal == nil {
				p.logger.Infow("search exhausted without a goal", "expanded", eng.Expanded())
				return nil, ErrNoSolution
			}
			p.logger.Infow("search complete", "expanded", eng.Expanded(), "goal_f", goal.F())
			return solutionFrom(goal, eng.Expanded()), nil
		}
	}
}

func (p *Planner) deadlineResult(eng *search.Engine) (*Solution, error) {
	if goal := eng.Best(); goal != nil {
		return solutionFrom(goal, eng.Expanded()), ErrDeadlineExceeded
	}
	return &Solution{Feasible: false}, ErrDeadlineExceeded
}

func solutionFrom(goal *search.HNode, expanded int) *Solution {
	return &Solution{
		Configs:  search.ExtractPath(goal),
		Feasible: true,
		Expanded: expanded,
		GoalF:    goal.F(),
	}
}

// SolveOneStep runs up to budget high-level expansions, commits the first
// step of the best plan found (if any), and returns the committed config.
// It is Search+ExtractNextStep+Advance fused into one call for callers that
// don't need manual control over commitment.
func (p *Planner) SolveOneStep(ctx context.Context, budget int) (hetconfig.HetConfig, error) {
	status, err := p.Search(ctx, budget)
	if err != nil {
		return hetconfig.HetConfig{}, err
	}
	next := p.ExtractNextStep()
	p.Advance(next)
	if status == NoSolution {
		return next, ErrNoSolution
	}
	return next, nil
}

// Search runs up to budget Step calls against the planner's current engine
// and reports coarse progress: GoalFound once any goal has been reached,
// NoSolution once OPEN empties without one, Searching otherwise.
func (p *Planner) Search(ctx context.Context, budget int) (Status, error) {
	cctx, cancel := p.deadlineCtx(ctx)
	defer cancel()

	for i := 0; budget <= 0 || i < budget; i++ {
		select {
		case <-cctx.Done():
			if p.engine.Best() != nil {
				return GoalFound, nil
			}
			return Searching, nil
		default:
		}

		before := p.engine.Expanded()
		exhausted, goal := p.engine.Step()
		obslog.HNodesExpanded.Add(float64(p.engine.Expanded() - before))
		if goal != nil {
			obslog.GoalFCurrent.Set(goal.F())
		}
		if exhausted {
			if goal != nil {
				return GoalFound, nil
			}
			return NoSolution, nil
		}
		if goal != nil && !p.params.AnytimeEnabled {
			return GoalFound, nil
		}
	}

	if p.engine.Best() != nil {
		return GoalFound, nil
	}
	return Searching, nil
}

// ExtractNextStep returns the first committed step of the best plan found
// so far from the current root, or the current committed config unchanged
// if no goal has been found yet.
func (p *Planner) ExtractNextStep() hetconfig.HetConfig {
	goal := p.engine.Best()
	if goal == nil {
		return p.committed
	}
	path := search.ExtractPath(goal)
	if len(path) < 2 {
		return path[0]
	}
	return path[1]
}

// Advance commits next as the planner's current configuration and re-roots
// the search engine there, discarding the prior search tree.
func (p *Planner) Advance(next hetconfig.HetConfig) {
	p.committed = next
	p.engine = search.NewEngineFromConfig(p.inst, p.oracle, p.searchParams(p.seed), p.committed)
	p.engine.SetLogger(p.logger)
}

// Reset discards all search progress and returns the planner to the
// instance's start configuration.
func (p *Planner) Reset() {
	p.committed = hetconfig.FromStart(p.inst)
	p.engine = search.NewEngineFromConfig(p.inst, p.oracle, p.searchParams(p.seed), p.committed)
	p.engine.SetLogger(p.logger)
}
