// Package scenario parses start/goal assignment files: the heterogeneous
// format (full and compact variants) and the homogeneous fallback grammar
// inherited from single-fleet benchmark suites.
package scenario

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/elektrokombinacija/hetmapf/internal/fleet"
)

// Options controls parsing behavior that isn't inferable from the file
// itself.
type Options struct {
	SwapXY   bool // scenario coordinates are (y,x) rather than (x,y)
	MaxAgents int // 0 means unlimited; applies to the homogeneous fallback
}

var fallbackLine = regexp.MustCompile(`^\d+\t[^\t]+\.map\t\d+\t\d+\t(\d+)\t(\d+)\t(\d+)\t(\d+)\t.+`)

// Parse reads r and returns per-agent specs, auto-detecting the
// heterogeneous vs. homogeneous-fallback grammar from the first
// non-comment, non-blank line.
func Parse(r io.Reader, opts Options) ([]fleet.AgentSpec, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}
	if fallbackLine.MatchString(lines[0]) {
		return parseHomogeneousFallback(lines, opts)
	}
	return parseHeterogeneous(lines, opts)
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		out = append(out, trimmed)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseHeterogeneous(lines []string, opts Options) ([]fleet.AgentSpec, error) {
	full := len(strings.Fields(lines[0])) >= 10

	type raw struct {
		cellSize, velocity, sx, sy, gx, gy int
	}
	var rows []raw

	for _, line := range lines {
		fields := strings.Fields(line)
		var r raw
		var err error
		if full {
			if len(fields) < 10 {
				return nil, fmt.Errorf("scenario: short full-format line %q", line)
			}
			r.cellSize, err = strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("scenario: bad cell_size in %q: %w", line, err)
			}
			vel, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, fmt.Errorf("scenario: bad velocity in %q: %w", line, err)
			}
			r.velocity = roundVelocity(vel)
			if r.sx, err = strconv.Atoi(fields[4]); err != nil {
				return nil, err
			}
			if r.sy, err = strconv.Atoi(fields[5]); err != nil {
				return nil, err
			}
			if r.gx, err = strconv.Atoi(fields[6]); err != nil {
				return nil, err
			}
			if r.gy, err = strconv.Atoi(fields[7]); err != nil {
				return nil, err
			}
		} else {
			if len(fields) < 5 {
				return nil, fmt.Errorf("scenario: short compact-format line %q", line)
			}
			if r.cellSize, err = strconv.Atoi(fields[0]); err != nil {
				return nil, err
			}
			r.velocity = r.cellSize
			if r.sx, err = strconv.Atoi(fields[1]); err != nil {
				return nil, err
			}
			if r.sy, err = strconv.Atoi(fields[2]); err != nil {
				return nil, err
			}
			if r.gx, err = strconv.Atoi(fields[3]); err != nil {
				return nil, err
			}
			if r.gy, err = strconv.Atoi(fields[4]); err != nil {
				return nil, err
			}
		}
		if opts.SwapXY {
			r.sx, r.sy = r.sy, r.sx
			r.gx, r.gy = r.gy, r.gx
		}
		rows = append(rows, r)
	}

	specs := make([]fleet.AgentSpec, len(rows))
	for i, r := range rows {
		specs[i] = fleet.AgentSpec{
			CellSize:    r.cellSize,
			SpeedPeriod: r.velocity,
			Kind:        fleet.KindGround,
			StartX:      r.sx,
			StartY:      r.sy,
			GoalX:       r.gx,
			GoalY:       r.gy,
		}
	}
	return specs, nil
}

func roundVelocity(v float64) int {
	r := int(v + 0.5)
	if r < 1 {
		return 1
	}
	return r
}

func parseHomogeneousFallback(lines []string, opts Options) ([]fleet.AgentSpec, error) {
	var specs []fleet.AgentSpec
	for _, line := range lines {
		m := fallbackLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		sx, _ := strconv.Atoi(m[1])
		sy, _ := strconv.Atoi(m[2])
		gx, _ := strconv.Atoi(m[3])
		gy, _ := strconv.Atoi(m[4])
		if opts.SwapXY {
			sx, sy = sy, sx
			gx, gy = gy, gx
		}
		specs = append(specs, fleet.AgentSpec{
			CellSize:    1,
			SpeedPeriod: 1,
			Kind:        fleet.KindGround,
			StartX:      sx,
			StartY:      sy,
			GoalX:       gx,
			GoalY:       gy,
		})
		if opts.MaxAgents > 0 && len(specs) >= opts.MaxAgents {
			break
		}
	}
	return specs, nil
}
