package main

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Store holds puzzles and hunt sessions. Puzzles are written through to
// BadgerDB when the store has a database; hunts live in memory only.
type Store struct {
	mu      sync.RWMutex
	puzzles map[string]*Record
	hunts   map[string]*HuntSession
	db      *badger.DB
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		puzzles: make(map[string]*Record),
		hunts:   make(map[string]*HuntSession),
	}
}

// OpenStore creates a store backed by db and loads the puzzles already in it.
func OpenStore(db *badger.DB) (*Store, error) {
	s := NewStore()
	s.db = db
	records, err := loadRecords(db)
	if err != nil {
		return nil, fmt.Errorf("load puzzles: %w", err)
	}
	for _, r := range records {
		s.puzzles[r.ID] = r
	}
	return s, nil
}

// SavePuzzle assigns an ID and creation time to r and stores it.
func (s *Store) SavePuzzle(r *Record) (*Record, error) {
	r.ID = generateID()
	r.CreatedAt = time.Now()

	if s.db != nil {
		if err := putRecord(s.db, r); err != nil {
			return nil, fmt.Errorf("persist puzzle: %w", err)
		}
	}

	s.mu.Lock()
	s.puzzles[r.ID] = r
	s.mu.Unlock()

	return r, nil
}

// GetPuzzle returns a puzzle by ID, or nil if not found.
func (s *Store) GetPuzzle(id string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puzzles[id]
}

// ListPuzzles returns all puzzles, most recent first.
func (s *Store) ListPuzzles() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Record, 0, len(s.puzzles))
	for _, r := range s.puzzles {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// DeletePuzzle removes a puzzle and the hunts played on it. It reports
// whether the puzzle existed.
func (s *Store) DeletePuzzle(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.puzzles[id]; !ok {
		return false, nil
	}
	if s.db != nil {
		if err := deleteRecord(s.db, id); err != nil {
			return false, fmt.Errorf("delete puzzle %s: %w", id, err)
		}
	}
	delete(s.puzzles, id)
	for hid, h := range s.hunts {
		if h.PuzzleID == id {
			delete(s.hunts, hid)
		}
	}
	return true, nil
}

// CreateHunt starts a hunt on a puzzle.
// Returns an error if the puzzle does not exist.
func (s *Store) CreateHunt(puzzleID string) (*HuntSession, error) {
	s.mu.RLock()
	rec := s.puzzles[puzzleID]
	s.mu.RUnlock()

	if rec == nil {
		return nil, fmt.Errorf("puzzle not found: %s", puzzleID)
	}

	hunt := newHuntSession(generateID(), rec)

	s.mu.Lock()
	s.hunts[hunt.ID] = hunt
	s.mu.Unlock()

	return hunt, nil
}

// GetHunt returns a hunt by ID, or nil if not found.
func (s *Store) GetHunt(id string) *HuntSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hunts[id]
}

// ListHunts returns all hunt sessions.
func (s *Store) ListHunts() []*HuntSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*HuntSession, 0, len(s.hunts))
	for _, h := range s.hunts {
		list = append(list, h)
	}
	return list
}

func generateID() string {
	return uuid.NewString()
}
