package main

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bodul/motsmeles/wordsearch"
)

var (
	// puzzlesGenerated counts generation runs.
	// Labels: regime (ltr, rtl), status (ok, exhausted, error)
	puzzlesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "motsmeles",
		Subsystem: "generator",
		Name:      "puzzles_total",
		Help:      "Puzzle generation runs by outcome",
	}, []string{"regime", "status"})

	// wordsPlaced counts committed placements.
	// Labels: direction (R, RD, D, L, LD)
	wordsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "motsmeles",
		Subsystem: "generator",
		Name:      "words_placed_total",
		Help:      "Words committed to a grid by direction",
	}, []string{"direction"})

	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "motsmeles",
		Subsystem: "generator",
		Name:      "duration_seconds",
		Help:      "Time to lay out and fill one puzzle",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"regime"})

	gridCells = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "motsmeles",
		Subsystem: "generator",
		Name:      "grid_cells",
		Help:      "Cells inside the final bounding box",
		Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
	})
)

func observeGeneration(regime wordsearch.Regime, p *wordsearch.Puzzle, err error, elapsed time.Duration) {
	status := "ok"
	switch {
	case errors.Is(err, wordsearch.ErrPlacementExhausted):
		status = "exhausted"
	case err != nil:
		status = "error"
	}
	puzzlesGenerated.WithLabelValues(regime.String(), status).Inc()
	generationDuration.WithLabelValues(regime.String()).Observe(elapsed.Seconds())
	if p == nil {
		return
	}
	for _, d := range regime.Directions() {
		if n := p.Stats.Count(d); n > 0 {
			wordsPlaced.WithLabelValues(d.String()).Add(float64(n))
		}
	}
	e := p.Extent()
	gridCells.Observe(float64(e.Rows() * e.Cols()))
}
