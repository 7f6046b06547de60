package wordsearch

import (
	"sort"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// Word is a display string together with the grapheme clusters that get
// written to the grid.
type Word struct {
	Text      string   `json:"text"`
	Graphemes []string `json:"graphemes"`
}

// Len returns the number of grapheme clusters in the word.
func (w Word) Len() int {
	return len(w.Graphemes)
}

// NewWord normalises text to NFC and segments it.
func NewWord(text string) Word {
	text = norm.NFC.String(text)
	return Word{Text: text, Graphemes: Segment(text)}
}

// Segment splits s into extended grapheme clusters. A base letter and its
// combining marks stay together. The empty string yields no clusters.
func Segment(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		out = append(out, gr.Str())
	}
	return out
}

// Rank segments texts and orders them by descending grapheme count. Words of
// equal length are ordered by their display text so that a given input always
// produces the same ranking. Duplicates collapse to a single entry.
func Rank(texts []string) []Word {
	seen := make(map[string]bool, len(texts))
	words := make([]Word, 0, len(texts))
	for _, t := range texts {
		w := NewWord(t)
		if seen[w.Text] {
			continue
		}
		seen[w.Text] = true
		words = append(words, w)
	}
	sort.SliceStable(words, func(i, j int) bool {
		if words[i].Len() != words[j].Len() {
			return words[i].Len() > words[j].Len()
		}
		return words[i].Text < words[j].Text
	})
	return words
}

// Alphabet returns the sorted set of distinct graphemes used by words.
func Alphabet(words []Word) []string {
	set := make(map[string]struct{})
	for _, w := range words {
		for _, g := range w.Graphemes {
			set[g] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
