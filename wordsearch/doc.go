// Package wordsearch builds word-search grids from Unicode word lists.
//
// Words are split into grapheme clusters, ranked longest first and laid out
// one at a time. Candidate anchor squares spiral out from the home corner of
// the regime (top-left for LTR, top-right for RTL) and each anchor is tried
// in the three regime directions in random order. A word is only written once
// every one of its graphemes fits, so a failed probe never leaves a trace on
// the grid. Cells left empty inside the final bounding box are filled with
// graphemes drawn from the word list.
//
// A Generator and the Puzzle it returns belong to a single goroutine. Run
// independent generations with independent Generators.
package wordsearch
