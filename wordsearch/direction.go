package wordsearch

import (
	"fmt"
	"strings"
)

// Direction is the line along which a word reads.
type Direction int

const (
	Right Direction = iota
	RightDown
	Down
	Left
	LeftDown
)

var directionLabels = [...]string{
	Right:     "R",
	RightDown: "RD",
	Down:      "D",
	Left:      "L",
	LeftDown:  "LD",
}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionLabels) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionLabels[d]
}

// Step returns the row and column offsets of one move in direction d.
func (d Direction) Step() (dRow, dCol int) {
	switch d {
	case Right:
		return 0, 1
	case RightDown:
		return 1, 1
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case LeftDown:
		return 1, -1
	}
	panic(fmt.Sprintf("wordsearch: unknown direction %d", int(d)))
}

// MarshalText encodes the direction as its label.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts the labels produced by MarshalText.
func (d *Direction) UnmarshalText(b []byte) error {
	for i, l := range directionLabels {
		if l == string(b) {
			*d = Direction(i)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown direction %q", ErrConfiguration, b)
}

// Regime selects the script orientation: the active directions and the home
// corner the starting squares spiral out from.
type Regime int

const (
	LTR Regime = iota + 1
	RTL
)

func (r Regime) String() string {
	switch r {
	case LTR:
		return "ltr"
	case RTL:
		return "rtl"
	}
	return fmt.Sprintf("Regime(%d)", int(r))
}

// ParseRegime reads "ltr" or "rtl", ignoring case.
func ParseRegime(s string) (Regime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ltr":
		return LTR, nil
	case "rtl":
		return RTL, nil
	}
	return 0, fmt.Errorf("%w: unsupported regime %q", ErrConfiguration, s)
}

// Directions returns the three directions active in the regime, in canonical
// order. Callers get a fresh slice.
func (r Regime) Directions() []Direction {
	switch r {
	case LTR:
		return []Direction{Right, RightDown, Down}
	case RTL:
		return []Direction{Left, LeftDown, Down}
	}
	return nil
}

func (r Regime) valid() bool {
	return r == LTR || r == RTL
}
