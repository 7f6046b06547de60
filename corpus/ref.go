package corpus

import (
	"fmt"
	"strconv"
	"strings"
)

// Ref addresses a single verse.
type Ref struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s %d:%d", r.Book, r.Chapter, r.Verse)
}

// ParseRefs expands a reference list such as
//
//	Genesis 1:1-3, Exodus 1:2
//	Luke 1:2,5,7-9
//	1 Kings 2:3
//
// into individual verses in the order written. A comma-separated part that
// contains a colon starts a new book and chapter; other parts are verses or
// verse ranges of the most recent chapter.
func ParseRefs(s string) ([]Ref, error) {
	var (
		refs    []Ref
		book    string
		chapter int
	)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		verses := part
		if colon := strings.Index(part, ":"); colon >= 0 {
			head := strings.TrimSpace(part[:colon])
			sp := strings.LastIndex(head, " ")
			if sp <= 0 {
				return nil, fmt.Errorf("%w: %q needs a book and a chapter", ErrBadReference, part)
			}
			ch, err := strconv.Atoi(head[sp+1:])
			if err != nil || ch <= 0 {
				return nil, fmt.Errorf("%w: bad chapter in %q", ErrBadReference, part)
			}
			book = strings.TrimSpace(head[:sp])
			chapter = ch
			verses = part[colon+1:]
		} else if book == "" {
			return nil, fmt.Errorf("%w: %q has no book and chapter", ErrBadReference, part)
		}

		first, last, err := parseVerseRange(verses)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadReference, part, err)
		}
		for v := first; v <= last; v++ {
			refs = append(refs, Ref{Book: book, Chapter: chapter, Verse: v})
		}
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: empty reference %q", ErrBadReference, s)
	}
	return refs, nil
}

func parseVerseRange(s string) (first, last int, err error) {
	lo, hi, isRange := strings.Cut(strings.TrimSpace(s), "-")
	first, err = strconv.Atoi(strings.TrimSpace(lo))
	if err != nil || first <= 0 {
		return 0, 0, fmt.Errorf("bad verse %q", lo)
	}
	if !isRange {
		return first, first, nil
	}
	last, err = strconv.Atoi(strings.TrimSpace(hi))
	if err != nil || last <= 0 {
		return 0, 0, fmt.Errorf("bad verse %q", hi)
	}
	if first > last {
		return 0, 0, fmt.Errorf("range %d-%d runs backwards", first, last)
	}
	return first, last, nil
}
