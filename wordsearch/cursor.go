package wordsearch

import "fmt"

// cursor walks the candidate starting squares for one word. Squares are
// visited in quarter-square arcs around the home corner: along the floor of
// the arc away from column 0, then up its outer edge back to row 0, then on
// to the next arc. For RTL the same walk is mirrored onto negative columns.
type cursor struct {
	regime   Regime
	frontier int
	row      int
	col      int // distance from column 0, always >= 0
}

func newCursor(r Regime) *cursor {
	return &cursor{regime: r}
}

func (c *cursor) reset() {
	c.frontier, c.row, c.col = 0, 0, 0
}

// coord returns the current square in grid coordinates.
func (c *cursor) coord() Coord {
	if c.regime == RTL {
		return Coord{Row: c.row, Col: -c.col}
	}
	return Coord{Row: c.row, Col: c.col}
}

// next advances to the following square.
func (c *cursor) next() (Coord, error) {
	switch {
	case c.row == c.frontier && c.col != c.frontier:
		c.col++
	case c.col == c.frontier && c.row != 0:
		c.row--
	case c.row == 0 && c.col == c.frontier:
		c.frontier++
		c.row, c.col = c.frontier, 0
	default:
		return Coord{}, fmt.Errorf("%w: %s cursor at (%d,%d) with frontier %d",
			ErrInvariant, c.regime, c.row, c.col, c.frontier)
	}
	return c.coord(), nil
}
