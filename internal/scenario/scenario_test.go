package scenario

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFullFormat(t *testing.T) {
	input := "0\t0\t1\t1\t0\t0\t7\t0\t8\t8\n1\t1\t2\t2\t1\t1\t6\t6\t8\t8\n"
	specs, err := Parse(strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, specs, 2)

	require.Equal(t, 1, specs[0].CellSize)
	require.Equal(t, 1, specs[0].SpeedPeriod)
	require.Equal(t, 0, specs[0].StartX)
	require.Equal(t, 7, specs[0].GoalX)

	require.Equal(t, 2, specs[1].CellSize)
	require.Equal(t, 2, specs[1].SpeedPeriod)
}

func TestParseCompactFormat(t *testing.T) {
	input := "1 0 0 7 0\n2 1 1 6 6\n"
	specs, err := Parse(strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, specs, 2)
	require.Equal(t, 1, specs[0].CellSize)
	require.Equal(t, 1, specs[0].SpeedPeriod) // compact form: velocity == cell_size
	require.Equal(t, 2, specs[1].SpeedPeriod)
}

func TestParseIgnoresCommentsAndBlankLines(t *testing.T) {
	input := "# header\n\n1 0 0 7 0\n# trailing\n"
	specs, err := Parse(strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, specs, 1)
}

func TestParseSwapXY(t *testing.T) {
	input := "1 2 3 4 5\n"
	specs, err := Parse(strings.NewReader(input), Options{SwapXY: true})
	require.NoError(t, err)
	require.Equal(t, 3, specs[0].StartX)
	require.Equal(t, 2, specs[0].StartY)
	require.Equal(t, 5, specs[0].GoalX)
	require.Equal(t, 4, specs[0].GoalY)
}

func TestParseHomogeneousFallback(t *testing.T) {
	input := "1\tsome-map.map\t8\t8\t1\t2\t5\t6\tsome comment\n" +
		"2\tsome-map.map\t8\t8\t3\t4\t7\t0\tanother\n"
	specs, err := Parse(strings.NewReader(input), Options{MaxAgents: 1})
	require.NoError(t, err)
	require.Len(t, specs, 1)
	require.Equal(t, 1, specs[0].CellSize)
	require.Equal(t, 1, specs[0].StartX)
	require.Equal(t, 2, specs[0].StartY)
	require.Equal(t, 5, specs[0].GoalX)
	require.Equal(t, 6, specs[0].GoalY)
}

func TestRoundVelocity(t *testing.T) {
	require.Equal(t, 1, roundVelocity(0.4))
	require.Equal(t, 1, roundVelocity(1.4))
	require.Equal(t, 2, roundVelocity(1.5))
}
