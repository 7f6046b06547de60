package wordsearch

import (
	"errors"
	"fmt"
)

var (
	ErrPlacementExhausted = errors.New("word could not be placed")
	ErrConfiguration      = errors.New("invalid configuration")
	ErrInvariant          = errors.New("invariant violation")
	ErrCellConflict       = errors.New("cell already holds a different grapheme")
)

// PlacementError reports the word that ran out of starting squares.
type PlacementError struct {
	Word     string
	Attempts int
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("place %q: no fit after %d starting squares", e.Word, e.Attempts)
}

func (e *PlacementError) Unwrap() error {
	return ErrPlacementExhausted
}
