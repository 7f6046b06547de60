package wordsearch

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"time"
)

const (
	DefaultRows = 10
	DefaultCols = 10

	// DefaultMaxAttempts caps the starting squares tried for one word. It
	// covers every anchor of a 256x256 quarter grid.
	DefaultMaxAttempts = 1 << 16
)

// Source is the randomness a Generator draws from. *rand.Rand satisfies it;
// tests inject scripted sources to force a layout.
type Source interface {
	Intn(n int) int
}

// Options configures puzzle generation.
type Options struct {
	Rows        int    // Requested rows; advisory, the grid grows as needed
	Cols        int    // Requested columns; advisory
	Regime      Regime // LTR or RTL
	MaxAttempts int    // Starting squares per word (0 = DefaultMaxAttempts)
	Seed        int64  // Seed for reproducible puzzles (0 = random)
	// Source overrides Seed when set.
	Source Source
	// Logger receives debug output. nil discards it.
	Logger *slog.Logger
}

// DefaultOptions returns options for a 10x10 puzzle in the given regime.
func DefaultOptions(regime Regime) *Options {
	return &Options{
		Rows:   DefaultRows,
		Cols:   DefaultCols,
		Regime: regime,
	}
}

// Generator lays out word-search puzzles.
type Generator struct {
	options *Options
	rng     Source
	logger  *slog.Logger
}

// New validates options and creates a generator. A nil options value means
// DefaultOptions(LTR).
func New(options *Options) (*Generator, error) {
	if options == nil {
		options = DefaultOptions(LTR)
	}
	opts := *options
	if !opts.Regime.valid() {
		return nil, fmt.Errorf("%w: unsupported regime %d", ErrConfiguration, int(opts.Regime))
	}
	if opts.Rows <= 0 || opts.Cols <= 0 {
		return nil, fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrConfiguration, opts.Rows, opts.Cols)
	}
	if opts.MaxAttempts < 0 {
		return nil, fmt.Errorf("%w: negative attempt cap %d", ErrConfiguration, opts.MaxAttempts)
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	rng := opts.Source
	if rng == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Generator{options: &opts, rng: rng, logger: logger}, nil
}

// Placement records where a word was written. Start holds the first grapheme
// and End the last. Reading back from End toward the home corner gives the
// word reversed.
type Placement struct {
	Word      string    `json:"word"`
	Graphemes []string  `json:"graphemes"`
	Direction Direction `json:"direction"`
	Start     Coord     `json:"start"`
	End       Coord     `json:"end"`
}

// Puzzle is the outcome of one generation run.
type Puzzle struct {
	Rows       int
	Cols       int
	Regime     Regime
	Grid       *Grid
	Words      []Word // ranked input, including words with no graphemes
	Placements []Placement
	Stats      Stats
}

// Extent returns the grid's bounding box.
func (p *Puzzle) Extent() Extent {
	return p.Grid.Extent()
}

// WordList returns the display text of every non-empty input word, sorted.
func (p *Puzzle) WordList() []string {
	out := make([]string, 0, len(p.Words))
	for _, w := range p.Words {
		if w.Len() > 0 {
			out = append(out, w.Text)
		}
	}
	sort.Strings(out)
	return out
}

// Generate ranks texts, places every word and fills the remaining cells.
// If any word runs out of starting squares the whole run fails and no
// puzzle is returned.
func (g *Generator) Generate(texts []string) (*Puzzle, error) {
	p, err := g.Place(Rank(texts))
	if err != nil {
		return nil, err
	}
	filled := Fill(p, g.rng)
	g.logger.Debug("puzzle generated",
		"regime", p.Regime.String(),
		"words", len(p.Words),
		"placed", len(p.Placements),
		"filled", filled,
		"extent", p.Extent())
	return p, nil
}

// Place lays out already ranked words without filling empty cells.
func (g *Generator) Place(words []Word) (*Puzzle, error) {
	p := &Puzzle{
		Rows:   g.options.Rows,
		Cols:   g.options.Cols,
		Regime: g.options.Regime,
		Grid:   NewGrid(),
		Words:  words,
		Stats:  make(Stats),
	}
	cur := newCursor(g.options.Regime)

	for _, w := range words {
		// Corpora contain slots whose surface form is empty.
		if w.Len() == 0 {
			continue
		}
		pl, err := g.placeWord(p.Grid, cur, w)
		if err != nil {
			g.logger.Warn("placement aborted", "word", w.Text, "error", err)
			return nil, err
		}
		p.Stats.Incr(pl.Direction)
		p.Placements = append(p.Placements, pl)
		g.logger.Debug("word placed",
			"word", w.Text,
			"direction", pl.Direction.String(),
			"start", pl.Start,
			"end", pl.End)
	}
	return p, nil
}

func (g *Generator) placeWord(grid *Grid, cur *cursor, w Word) (Placement, error) {
	cur.reset()
	anchor := cur.coord()

	for attempt := 1; ; attempt++ {
		// A failed direction leaves from on the clashing cell; the next
		// direction at this anchor tries again from there.
		from := anchor
		dirs := g.options.Regime.Directions()
		for len(dirs) > 0 {
			i := g.rng.Intn(len(dirs))
			d := dirs[i]
			dirs = append(dirs[:i], dirs[i+1:]...)

			last, ok := fits(grid, from, d, w.Graphemes)
			if !ok {
				from = last
				continue
			}
			if err := commit(grid, last, d, w.Graphemes); err != nil {
				return Placement{}, err
			}
			return Placement{
				Word:      w.Text,
				Graphemes: w.Graphemes,
				Direction: d,
				Start:     from,
				End:       last,
			}, nil
		}

		if attempt >= g.options.MaxAttempts {
			return Placement{}, &PlacementError{Word: w.Text, Attempts: attempt}
		}
		next, err := cur.next()
		if err != nil {
			return Placement{}, err
		}
		anchor = next
	}
}

// fits checks, without writing anything, that graphemes can run from start
// in direction d. Each cell must be empty or already hold the same grapheme.
// On success it returns the cell that would receive the last grapheme,
// otherwise the first cell that clashes.
func fits(grid *Grid, start Coord, d Direction, graphemes []string) (Coord, bool) {
	c := start
	for i, gr := range graphemes {
		if i > 0 {
			c = c.Add(d, 1)
		}
		if cur, ok := grid.Get(c); ok && cur != gr {
			return c, false
		}
	}
	return c, true
}

// commit writes graphemes last to first, stepping back from end toward the
// start.
func commit(grid *Grid, end Coord, d Direction, graphemes []string) error {
	c := end
	for i := len(graphemes) - 1; i >= 0; i-- {
		if err := grid.Set(c, graphemes[i]); err != nil {
			return err
		}
		c = c.Add(d, -1)
	}
	return nil
}
