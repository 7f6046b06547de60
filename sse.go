package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bodul/motsmeles/wordsearch"
)

const (
	sseChannelBuffer = 16
	sseHeartbeat     = 30 * time.Second
)

// Hunt event types.
const (
	eventHuntState    = "hunt_state"
	eventPlayerJoined = "player_joined"
	eventPlayerLeft   = "player_left"
	eventWordFound    = "word_found"
)

// huntEvent is one message on a hunt stream. Type decides which of the
// other fields are set.
type huntEvent struct {
	Type     string            `json:"type"`
	Pseudo   string            `json:"pseudo,omitempty"`
	Color    string            `json:"color,omitempty"`
	Word     string            `json:"word,omitempty"`
	From     *wordsearch.Coord `json:"from,omitempty"`
	To       *wordsearch.Coord `json:"to,omitempty"`
	Complete bool              `json:"complete,omitempty"`
	State    *huntView         `json:"state,omitempty"`
}

// client represents a single SSE connection.
type client struct {
	ch     chan string
	huntID string
}

// Broadcaster manages SSE clients grouped by hunt.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *slog.Logger
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Register adds a client for a hunt and returns it.
func (b *Broadcaster) Register(huntID string) *client {
	c := &client{
		ch:     make(chan string, sseChannelBuffer),
		huntID: huntID,
	}
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()
	return c
}

// Unregister removes a client and closes its channel.
func (b *Broadcaster) Unregister(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.ch)
	}
	b.mu.Unlock()
}

// Broadcast sends evt to all clients of a hunt.
func (b *Broadcaster) Broadcast(huntID string, evt huntEvent) {
	data, ok := b.encode(huntID, evt)
	if !ok {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for c := range b.clients {
		if c.huntID == huntID {
			b.deliver(c, evt.Type, data)
		}
	}
}

// Send delivers evt to a single client, e.g. the state snapshot a new
// connection starts with.
func (b *Broadcaster) Send(c *client, evt huntEvent) {
	data, ok := b.encode(c.huntID, evt)
	if !ok {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, live := b.clients[c]; live {
		b.deliver(c, evt.Type, data)
	}
}

func (b *Broadcaster) encode(huntID string, evt huntEvent) (string, bool) {
	data, err := json.Marshal(evt)
	if err != nil {
		b.logger.Error("encode event", "hunt", huntID, "type", evt.Type, "error", err)
		return "", false
	}
	return string(data), true
}

// deliver must be called with b.mu held.
func (b *Broadcaster) deliver(c *client, typ, data string) {
	select {
	case c.ch <- data:
	default:
		b.logger.Debug("dropping event for slow client", "hunt", c.huntID, "type", typ)
	}
}

// ClientCount returns the number of connected clients for a hunt.
func (b *Broadcaster) ClientCount(huntID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for c := range b.clients {
		if c.huntID == huntID {
			n++
		}
	}
	return n
}

// ServeSSE handles an SSE connection for a hunt.
func (b *Broadcaster) ServeSSE(w http.ResponseWriter, r *http.Request, huntID string, onConnect func(c *client), onDisconnect func()) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming non supporté", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := b.Register(huntID)
	defer func() {
		b.Unregister(c)
		if onDisconnect != nil {
			onDisconnect()
		}
	}()

	if onConnect != nil {
		onConnect(c)
	}

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-c.ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
