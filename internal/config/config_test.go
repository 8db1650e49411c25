package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	p, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), p)
}

func TestLoadHonorsEnvPrefix(t *testing.T) {
	t.Setenv("HETMAPF_SEED", "42")
	t.Setenv("HETMAPF_GOAL_LOCK", "false")

	p, err := Load("")
	require.NoError(t, err)
	require.Equal(t, int64(42), p.Seed)
	require.False(t, p.GoalLock)
}

func TestDeadlineZeroMeansUnbounded(t *testing.T) {
	p := Default()
	p.DeadlineMS = 0
	require.Equal(t, int64(0), int64(p.Deadline()))
}

func TestLoadMissingConfigFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.yaml")
	require.Error(t, err)
}
