package main

import (
	"log/slog"
	"time"

	"github.com/bodul/motsmeles/wordsearch"
)

// generateParams are the knobs shared by the CLI and the API.
type generateParams struct {
	Rows        int
	Cols        int
	Regime      wordsearch.Regime
	Seed        int64
	MaxAttempts int
}

// generatePuzzle runs one generation with its own Generator and records
// metrics for it.
func generatePuzzle(words []string, params generateParams, logger *slog.Logger) (*wordsearch.Puzzle, error) {
	gen, err := wordsearch.New(&wordsearch.Options{
		Rows:        params.Rows,
		Cols:        params.Cols,
		Regime:      params.Regime,
		Seed:        params.Seed,
		MaxAttempts: params.MaxAttempts,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	p, err := gen.Generate(words)
	observeGeneration(params.Regime, p, err, time.Since(start))
	return p, err
}
