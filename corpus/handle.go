package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

type verseKey struct {
	book    string // lower-cased
	chapter int
	verse   int
}

// Handle is an open corpus. It is safe for concurrent use and must be closed
// by whoever opened it.
type Handle struct {
	def  Definition
	path string

	mu     sync.RWMutex
	verses map[verseKey][]string
	books  []string
	closed bool
}

// Open locates def.File in the first matching location and loads the slots
// of def.Feature. The file is tab separated with a header row naming the
// columns book, chapter, verse and one or more features; each row is one
// word slot in reading order.
func Open(def Definition) (*Handle, error) {
	path, err := locate(def)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", def.Name, err)
	}
	defer f.Close()

	h := &Handle{def: def, path: path, verses: make(map[verseKey][]string)}
	if err := h.load(f); err != nil {
		return nil, fmt.Errorf("load corpus %s from %s: %w", def.Name, path, err)
	}
	return h, nil
}

func locate(def Definition) (string, error) {
	for _, dir := range def.Locations {
		p := filepath.Join(dir, def.File)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return "", fmt.Errorf("corpus %s: %s not found in %s: %w",
		def.Name, def.File, strings.Join(def.Locations, ", "), fs.ErrNotExist)
}

func (h *Handle) load(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"book", "chapter", "verse", h.def.Feature} {
		if _, ok := col[name]; !ok {
			return fmt.Errorf("missing column %q", name)
		}
	}

	seenBook := make(map[string]bool)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		field := func(name string) string {
			if i := col[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		book := field("book")
		chapter, err := strconv.Atoi(field("chapter"))
		if err != nil {
			return fmt.Errorf("line %d: chapter: %w", line, err)
		}
		verse, err := strconv.Atoi(field("verse"))
		if err != nil {
			return fmt.Errorf("line %d: verse: %w", line, err)
		}
		if !seenBook[book] {
			seenBook[book] = true
			h.books = append(h.books, book)
		}
		k := verseKey{book: strings.ToLower(book), chapter: chapter, verse: verse}
		h.verses[k] = append(h.verses[k], field(h.def.Feature))
	}
}

// Definition returns the definition the handle was opened with.
func (h *Handle) Definition() Definition {
	return h.def
}

// Path returns the file the corpus was loaded from.
func (h *Handle) Path() string {
	return h.path
}

// Books lists the corpus books in file order.
func (h *Handle) Books() ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil, ErrClosed
	}
	return append([]string(nil), h.books...), nil
}

// Words returns the word slots of refs in order. Words repeat as often as
// they occur and slots with no surface form come back as empty strings.
func (h *Handle) Words(refs ...Ref) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil, ErrClosed
	}

	var out []string
	for _, r := range refs {
		k := verseKey{book: strings.ToLower(r.Book), chapter: r.Chapter, verse: r.Verse}
		slots, ok := h.verses[k]
		if !ok {
			if !h.hasBook(k.book) {
				return nil, fmt.Errorf("%w: %s in %s", ErrUnknownBook, r.Book, h.def.Name)
			}
			return nil, fmt.Errorf("%w: %s not in %s", ErrBadReference, r, h.def.Name)
		}
		out = append(out, slots...)
	}
	return out, nil
}

func (h *Handle) hasBook(lower string) bool {
	for _, b := range h.books {
		if strings.ToLower(b) == lower {
			return true
		}
	}
	return false
}

// Close releases the loaded corpus. Closing twice is harmless.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.verses = nil
	h.books = nil
	return nil
}
