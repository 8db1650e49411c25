// Package obslog wires zap logging and the Prometheus metrics the planner
// emits during a search, grounded in the same client_golang idiom used
// elsewhere in the stack.
package obslog

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// NewLogger builds a development-friendly console logger at verbose, or an
// info-and-above production logger otherwise.
func NewLogger(verbose bool) *zap.SugaredLogger {
	var l *zap.Logger
	var err error
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		l = zap.NewNop()
	}
	return l.Sugar()
}

var (
	// HNodesExpanded counts high-level node expansions across the whole
	// process lifetime.
	HNodesExpanded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hetmapf_hnodes_expanded_total",
		Help: "Total number of high-level search nodes expanded",
	})

	// PIBTStageFailures tallies push-generator aborts by phase.
	PIBTStageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hetmapf_pibt_stage_failures_total",
			Help: "Total push-generator aborts, partitioned by phase",
		},
		[]string{"stage"},
	)

	// GoalFCurrent reports the f-value of the best goal found so far in the
	// active anytime search.
	GoalFCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hetmapf_goal_f_current",
		Help: "f-value of the best goal configuration found so far",
	})

	// SearchIterationSeconds histograms the wall-clock cost of one high-level
	// Step call.
	SearchIterationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hetmapf_search_iteration_seconds",
		Help:    "Wall-clock duration of one high-level search step",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HNodesExpanded, PIBTStageFailures, GoalFCurrent, SearchIterationSeconds)
}

// RecordStageFailures pushes a Generator's StageCounters snapshot into the
// PIBTStageFailures vector. Intended to be called once per generator call
// with deltas, not the running totals, to avoid double counting across
// repeated calls against the same metric.
func RecordStageFailures(stage string, delta int) {
	if delta <= 0 {
		return
	}
	PIBTStageFailures.WithLabelValues(stage).Add(float64(delta))
}

// StageDeltas is the subset of a Generator's StageCounters that
// RecordStageDeltas reports, kept independent of package pibt so obslog
// stays a leaf package.
type StageDeltas struct {
	HardConstraint int
	GoalLockPass   int
	SpeedGatePass  int
	PriorityPass   int
	Sweep          int
}

// RecordStageDeltas feeds one generator call's stage failure counts into
// PIBTStageFailures and, when the sweep pass itself failed (the generator
// could not produce a successor at all), logs a warning — a persistently
// nonzero sweep rate means the generator is masking real infeasibility
// rather than recovering from an order artifact.
func RecordStageDeltas(logger *zap.SugaredLogger, d StageDeltas) {
	RecordStageFailures("hard_constraint", d.HardConstraint)
	RecordStageFailures("goal_lock", d.GoalLockPass)
	RecordStageFailures("speed_gate", d.SpeedGatePass)
	RecordStageFailures("priority", d.PriorityPass)
	RecordStageFailures("sweep", d.Sweep)
	if d.Sweep > 0 && logger != nil {
		logger.Warnw("PIBT sweep pass failed to produce a successor", "sweep_failures", d.Sweep)
	}
}
