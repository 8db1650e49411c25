package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// parseMap implements the map-file grammar: arbitrary header lines, two of
// which match `height <N>` and `width <N>` (case sensitive, single space),
// and a line matching exactly `map` that ends the header. `height` rows of
// `width` characters follow; 'T' and '@' are obstacles, everything else is
// passable. A trailing '\r' is stripped from every line before inspection.
func parseMap(lines []string) (*Graph, error) {
	width, height := -1, -1
	headerEnd := -1

	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")
		if line == "map" {
			headerEnd = i
			break
		}
		if v, ok := strings.CutPrefix(line, "height "); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("grid: bad height line %q: %w", raw, err)
			}
			height = n
		}
		if v, ok := strings.CutPrefix(line, "width "); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("grid: bad width line %q: %w", raw, err)
			}
			width = n
		}
	}

	if headerEnd < 0 {
		return nil, fmt.Errorf("grid: no \"map\" line found")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid: missing or invalid width/height header (width=%d height=%d)", width, height)
	}

	rows := lines[headerEnd+1:]
	if len(rows) < height {
		return nil, fmt.Errorf("grid: expected %d map rows, got %d", height, len(rows))
	}
	rows = rows[:height]

	cells := make([][]byte, height)
	for y, raw := range rows {
		row := strings.TrimSuffix(raw, "\r")
		if len(row) < width {
			return nil, fmt.Errorf("grid: row %d has %d chars, want %d", y, len(row), width)
		}
		cells[y] = []byte(row[:width])
	}

	passable := func(x, y int) bool {
		c := cells[y][x]
		return c != 'T' && c != '@'
	}

	return build(width, height, passable), nil
}
