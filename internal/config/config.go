// Package config loads planner parameters from environment variables and an
// optional config file via viper, on top of Default(). Command-line flags
// are not read here.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Params mirrors every tunable knob the planner and search engine expose.
type Params struct {
	AnytimeEnabled       bool
	GoalLock             bool
	PIBTInstances        int
	MultiThreadedPIBT    bool
	RandomInsertProb1    float64
	RandomInsertProb2    float64
	CheckpointIntervalMS int
	BFSDefaultDepth      int

	Seed      int64
	DeadlineMS int
	Verbose   bool
}

// Default mirrors the published reference configuration.
func Default() Params {
	return Params{
		AnytimeEnabled:       true,
		GoalLock:             true,
		PIBTInstances:        1,
		MultiThreadedPIBT:    false,
		RandomInsertProb1:    0.01,
		RandomInsertProb2:    0.01,
		CheckpointIntervalMS: 1000,
		BFSDefaultDepth:      0, // 0 means "derive from cell size"
		DeadlineMS:           30000,
	}
}

// Load builds a viper instance seeded with Default(), layers an optional
// config file (if path is non-empty), then environment variables prefixed
// HETMAPF_ (e.g. HETMAPF_SEED, HETMAPF_GOAL_LOCK), and unmarshals into
// Params.
func Load(configFile string) (Params, error) {
	v := viper.New()
	d := Default()

	v.SetDefault("anytime_enabled", d.AnytimeEnabled)
	v.SetDefault("goal_lock", d.GoalLock)
	v.SetDefault("pibt_instances", d.PIBTInstances)
	v.SetDefault("multi_threaded_pibt", d.MultiThreadedPIBT)
	v.SetDefault("random_insert_prob1", d.RandomInsertProb1)
	v.SetDefault("random_insert_prob2", d.RandomInsertProb2)
	v.SetDefault("checkpoint_interval_ms", d.CheckpointIntervalMS)
	v.SetDefault("bfs_default_depth", d.BFSDefaultDepth)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("deadline_ms", d.DeadlineMS)
	v.SetDefault("verbose", d.Verbose)

	v.SetEnvPrefix("HETMAPF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Params{}, err
		}
	}

	p := Params{
		AnytimeEnabled:       v.GetBool("anytime_enabled"),
		GoalLock:             v.GetBool("goal_lock"),
		PIBTInstances:        v.GetInt("pibt_instances"),
		MultiThreadedPIBT:    v.GetBool("multi_threaded_pibt"),
		RandomInsertProb1:    v.GetFloat64("random_insert_prob1"),
		RandomInsertProb2:    v.GetFloat64("random_insert_prob2"),
		CheckpointIntervalMS: v.GetInt("checkpoint_interval_ms"),
		BFSDefaultDepth:      v.GetInt("bfs_default_depth"),
		Seed:                 v.GetInt64("seed"),
		DeadlineMS:           v.GetInt("deadline_ms"),
		Verbose:              v.GetBool("verbose"),
	}
	return p, nil
}

// Deadline converts DeadlineMS to a time.Duration, zero meaning "no
// deadline".
func (p Params) Deadline() time.Duration {
	if p.DeadlineMS <= 0 {
		return 0
	}
	return time.Duration(p.DeadlineMS) * time.Millisecond
}
