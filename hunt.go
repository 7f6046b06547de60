package main

import (
	"sync"
	"time"

	"github.com/bodul/motsmeles/wordsearch"
)

// Player represents a connected player.
type Player struct {
	Pseudo   string    `json:"pseudo"`
	Color    string    `json:"color"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// HuntSession is a shared hunt for the words of one puzzle.
type HuntSession struct {
	ID        string             `json:"id"`
	PuzzleID  string             `json:"puzzle_id"`
	Players   map[string]*Player `json:"players"`
	Found     map[string]string  `json:"found"` // word -> pseudo of the finder
	CreatedAt time.Time          `json:"created_at"`

	placements []wordsearch.Placement
	mu         sync.Mutex
}

// playerColors is the palette assigned to players in order.
var playerColors = []string{
	"#2563eb", "#dc2626", "#16a34a", "#9333ea",
	"#ea580c", "#0891b2", "#c026d3", "#ca8a04",
}

func newHuntSession(id string, rec *Record) *HuntSession {
	return &HuntSession{
		ID:         id,
		PuzzleID:   rec.ID,
		Players:    make(map[string]*Player),
		Found:      make(map[string]string),
		CreatedAt:  time.Now(),
		placements: rec.Placements,
	}
}

// AddPlayer adds a player to the session and returns the player.
func (h *HuntSession) AddPlayer(pseudo string) *Player {
	h.mu.Lock()
	defer h.mu.Unlock()

	if p, ok := h.Players[pseudo]; ok {
		return p
	}

	p := &Player{
		Pseudo:   pseudo,
		Color:    playerColors[len(h.Players)%len(playerColors)],
		JoinedAt: time.Now(),
	}
	h.Players[pseudo] = p
	return p
}

// RemovePlayer removes a player from the session.
func (h *HuntSession) RemovePlayer(pseudo string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.Players, pseudo)
}

// Claim marks the word running between the two cells as found by pseudo.
// The cells may be given in either order. It returns the word and false if
// no unfound word lies exactly between them.
func (h *HuntSession) Claim(pseudo string, from, to wordsearch.Coord) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, pl := range h.placements {
		match := (pl.Start == from && pl.End == to) || (pl.Start == to && pl.End == from)
		if !match {
			continue
		}
		if _, done := h.Found[pl.Word]; done {
			continue
		}
		h.Found[pl.Word] = pseudo
		if p, ok := h.Players[pseudo]; ok {
			p.Score++
		}
		return pl.Word, true
	}
	return "", false
}

// Complete reports whether every word has been found.
func (h *HuntSession) Complete() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Found) == len(h.placements)
}

// Snapshot returns copies of the found words and players.
func (h *HuntSession) Snapshot() (map[string]string, map[string]Player) {
	h.mu.Lock()
	defer h.mu.Unlock()

	found := make(map[string]string, len(h.Found))
	for w, p := range h.Found {
		found[w] = p
	}
	players := make(map[string]Player, len(h.Players))
	for k, p := range h.Players {
		players[k] = *p
	}
	return found, players
}
