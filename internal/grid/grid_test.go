package grid

import "testing"

func smallMapLines() []string {
	return []string{
		"type octile",
		"height 4",
		"width 4",
		"map",
		"....",
		".TT.",
		"....",
		"@...",
	}
}

func TestNewFromMap(t *testing.T) {
	g, err := NewFromMap(smallMapLines())
	if err != nil {
		t.Fatalf("NewFromMap: %v", err)
	}
	if g.Width != 4 || g.Height != 4 {
		t.Fatalf("dims = (%d,%d), want (4,4)", g.Width, g.Height)
	}
	if g.At(1, 1) != nil {
		t.Errorf("(1,1) should be an obstacle ('T')")
	}
	if g.At(0, 3) != nil {
		t.Errorf("(0,3) should be an obstacle ('@')")
	}
	if g.At(0, 0) == nil {
		t.Errorf("(0,0) should be passable")
	}
	// 16 cells - 3 obstacles ('T','T','@') = 13 passable.
	if got := g.NumVertices(); got != 13 {
		t.Errorf("NumVertices = %d, want 13", got)
	}
}

func TestNewFromMapTrailingCR(t *testing.T) {
	lines := smallMapLines()
	for i, l := range lines {
		lines[i] = l + "\r"
	}
	g, err := NewFromMap(lines)
	if err != nil {
		t.Fatalf("NewFromMap: %v", err)
	}
	if g.NumVertices() != 13 {
		t.Errorf("NumVertices = %d, want 13", g.NumVertices())
	}
}

func TestNeighborsFourConnected(t *testing.T) {
	g, err := NewFromMap(smallMapLines())
	if err != nil {
		t.Fatalf("NewFromMap: %v", err)
	}
	center := g.At(0, 0)
	if center == nil {
		t.Fatal("(0,0) missing")
	}
	if len(center.NeighborIDs()) != 2 { // east and south only; corner
		t.Errorf("corner (0,0) has %d neighbors, want 2", len(center.NeighborIDs()))
	}
}

func TestBaseCellsOfDeterministicOrder(t *testing.T) {
	cells := BaseCellsOf(1, 0, 2, 8)
	want := []BaseCellID{2, 3, 10, 11}
	if len(cells) != len(want) {
		t.Fatalf("len = %d, want %d", len(cells), len(want))
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cells[%d] = %d, want %d", i, cells[i], want[i])
		}
	}
}

func TestBaseCellsOfIdempotent(t *testing.T) {
	a := BaseCellsOf(2, 3, 3, 16)
	b := BaseCellsOf(2, 3, 3, 16)
	if len(a) != len(b) {
		t.Fatalf("length mismatch")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("cells[%d] differ: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestNewTiledDegenerateWholeGrid(t *testing.T) {
	g, err := NewFromMap(smallMapLines())
	if err != nil {
		t.Fatalf("NewFromMap: %v", err)
	}
	fleet := NewTiled(g, g.Width)
	if fleet.Width != 1 || fleet.Height != 1 {
		t.Fatalf("dims = (%d,%d), want (1,1)", fleet.Width, fleet.Height)
	}
}

func TestNewTiledObstacleBlocksFleetCell(t *testing.T) {
	lines := []string{
		"height 4",
		"width 4",
		"map",
		"....",
		".T..",
		"....",
		"....",
	}
	g, err := NewFromMap(lines)
	if err != nil {
		t.Fatalf("NewFromMap: %v", err)
	}
	fleet := NewTiled(g, 2)
	if fleet.Width != 2 || fleet.Height != 2 {
		t.Fatalf("dims = (%d,%d), want (2,2)", fleet.Width, fleet.Height)
	}
	if fleet.At(0, 0) != nil {
		t.Errorf("fleet cell (0,0) covers the obstacle at base (1,1) and should be blocked")
	}
	if fleet.At(1, 0) == nil {
		t.Errorf("fleet cell (1,0) should be passable")
	}
}
