package main

import (
	"fmt"
	"time"

	"github.com/bodul/motsmeles/wordsearch"
)

// Record is a generated puzzle as stored and served by the API.
type Record struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title,omitempty"`
	Source     string                 `json:"source"`
	Regime     string                 `json:"regime"`
	Rows       int                    `json:"rows"`
	Cols       int                    `json:"cols"`
	Extent     wordsearch.Extent      `json:"extent"`
	Words      []string               `json:"words"`
	Stats      wordsearch.Stats       `json:"stats"`
	Cells      []wordsearch.Cell      `json:"cells"`
	Placements []wordsearch.Placement `json:"placements,omitempty"` // the solution
	CreatedAt  time.Time              `json:"created_at"`
}

func newRecord(p *wordsearch.Puzzle, title, source string) *Record {
	return &Record{
		Title:      title,
		Source:     source,
		Regime:     p.Regime.String(),
		Rows:       p.Rows,
		Cols:       p.Cols,
		Extent:     p.Extent(),
		Words:      p.WordList(),
		Stats:      p.Stats,
		Cells:      p.Grid.Cells(),
		Placements: p.Placements,
	}
}

// Public returns a copy without the solution.
func (r *Record) Public() *Record {
	cp := *r
	cp.Placements = nil
	return &cp
}

// Puzzle rebuilds the puzzle so it can be rendered again.
func (r *Record) Puzzle() (*wordsearch.Puzzle, error) {
	regime, err := wordsearch.ParseRegime(r.Regime)
	if err != nil {
		return nil, err
	}
	grid, err := wordsearch.Restore(r.Cells)
	if err != nil {
		return nil, fmt.Errorf("restore puzzle %s: %w", r.ID, err)
	}
	return &wordsearch.Puzzle{
		Rows:       r.Rows,
		Cols:       r.Cols,
		Regime:     regime,
		Grid:       grid,
		Words:      wordsearch.Rank(r.Words),
		Placements: r.Placements,
		Stats:      r.Stats,
	}, nil
}
