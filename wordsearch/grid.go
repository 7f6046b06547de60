package wordsearch

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Coord addresses a cell. Rows grow downward from 0; columns grow to the
// right for LTR puzzles and become negative for RTL ones.
type Coord struct {
	Row int
	Col int
}

// Add moves c by n steps in direction d.
func (c Coord) Add(d Direction, n int) Coord {
	dr, dc := d.Step()
	return Coord{Row: c.Row + dr*n, Col: c.Col + dc*n}
}

// MarshalJSON encodes the coordinate as [row, col].
func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Row, c.Col})
}

func (c *Coord) UnmarshalJSON(b []byte) error {
	var rc [2]int
	if err := json.Unmarshal(b, &rc); err != nil {
		return fmt.Errorf("coord: %w", err)
	}
	c.Row, c.Col = rc[0], rc[1]
	return nil
}

// Extent is the closed bounding box of every populated cell.
type Extent struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Bottom int `json:"bottom"`
	Right  int `json:"right"`
}

// Contains reports whether c lies inside the box.
func (e Extent) Contains(c Coord) bool {
	return c.Row >= e.Top && c.Row <= e.Bottom && c.Col >= e.Left && c.Col <= e.Right
}

// Rows returns the number of rows covered.
func (e Extent) Rows() int { return e.Bottom - e.Top + 1 }

// Cols returns the number of columns covered.
func (e Extent) Cols() int { return e.Right - e.Left + 1 }

// Cell is one populated grid square, shaped as the JSON output contract.
type Cell struct {
	Loc      Coord  `json:"loc"`
	Grapheme string `json:"grf"`
}

// Grid is a sparse map from coordinates to graphemes. The box always
// includes the anchor square (0,0); it grows as cells are set and never
// shrinks.
type Grid struct {
	cells  map[Coord]string
	extent Extent
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{cells: make(map[Coord]string)}
}

// Get returns the grapheme at c and whether the cell is populated.
func (g *Grid) Get(c Coord) (string, bool) {
	v, ok := g.cells[c]
	return v, ok
}

// Set writes grapheme to c and widens the extent to include it. Writing the
// grapheme a cell already holds is a no-op; writing a different one fails
// with ErrCellConflict and leaves the grid unchanged.
func (g *Grid) Set(c Coord, grapheme string) error {
	if cur, ok := g.cells[c]; ok {
		if cur != grapheme {
			return fmt.Errorf("%w: (%d,%d) holds %q, refusing %q", ErrCellConflict, c.Row, c.Col, cur, grapheme)
		}
		return nil
	}
	g.cells[c] = grapheme
	g.grow(c)
	return nil
}

func (g *Grid) grow(c Coord) {
	g.extent.Top = min(g.extent.Top, c.Row)
	g.extent.Bottom = max(g.extent.Bottom, c.Row)
	g.extent.Left = min(g.extent.Left, c.Col)
	g.extent.Right = max(g.extent.Right, c.Col)
}

// Extent returns the current bounding box.
func (g *Grid) Extent() Extent {
	return g.extent
}

// Len returns the number of populated cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Cells lists populated cells in row-major order.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, 0, len(g.cells))
	for c, v := range g.cells {
		out = append(out, Cell{Loc: c, Grapheme: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Loc.Row != out[j].Loc.Row {
			return out[i].Loc.Row < out[j].Loc.Row
		}
		return out[i].Loc.Col < out[j].Loc.Col
	})
	return out
}

// Restore rebuilds a grid from previously exported cells.
func Restore(cells []Cell) (*Grid, error) {
	g := NewGrid()
	for _, c := range cells {
		if err := g.Set(c.Loc, c.Grapheme); err != nil {
			return nil, err
		}
	}
	return g, nil
}
