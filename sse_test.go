package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bodul/motsmeles/wordsearch"
)

func TestBroadcasterRegisterUnregister(t *testing.T) {
	b := NewBroadcaster(nil)

	c1 := b.Register("hunt1")
	c2 := b.Register("hunt1")
	c3 := b.Register("hunt2")

	if b.ClientCount("hunt1") != 2 {
		t.Fatalf("expected 2 clients for hunt1, got %d", b.ClientCount("hunt1"))
	}
	if b.ClientCount("hunt2") != 1 {
		t.Fatalf("expected 1 client for hunt2, got %d", b.ClientCount("hunt2"))
	}

	b.Unregister(c1)
	if b.ClientCount("hunt1") != 1 {
		t.Fatalf("expected 1 client for hunt1 after unregister, got %d", b.ClientCount("hunt1"))
	}

	b.Unregister(c2)
	b.Unregister(c3)
	if b.ClientCount("hunt1") != 0 || b.ClientCount("hunt2") != 0 {
		t.Fatal("expected 0 clients after full unregister")
	}
}

func TestBroadcasterDoubleUnregister(t *testing.T) {
	b := NewBroadcaster(nil)
	c := b.Register("hunt1")
	b.Unregister(c)
	b.Unregister(c) // should not panic
}

func TestBroadcast(t *testing.T) {
	b := NewBroadcaster(nil)

	c1 := b.Register("hunt1")
	c2 := b.Register("hunt2")

	b.Broadcast("hunt1", huntEvent{Type: eventWordFound, Word: "CHAT", Pseudo: "Alice"})

	select {
	case msg := <-c1.ch:
		var evt huntEvent
		if err := json.Unmarshal([]byte(msg), &evt); err != nil {
			t.Fatalf("c1 received invalid JSON %q: %v", msg, err)
		}
		if evt.Type != eventWordFound || evt.Word != "CHAT" || evt.Pseudo != "Alice" {
			t.Fatalf("c1 got unexpected event %+v", evt)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c1 did not receive message")
	}

	// c2 is on hunt2, should not receive.
	select {
	case <-c2.ch:
		t.Fatal("c2 should not receive hunt1 message")
	case <-time.After(50 * time.Millisecond):
	}

	b.Unregister(c1)
	b.Unregister(c2)
}

func TestHuntEventOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(huntEvent{Type: eventPlayerLeft, Pseudo: "Bob"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"player_left","pseudo":"Bob"}` {
		t.Fatalf("unexpected encoding %s", data)
	}

	from, to := wordsearch.Coord{Row: 0, Col: 0}, wordsearch.Coord{Row: 0, Col: 2}
	data, err = json.Marshal(huntEvent{Type: eventWordFound, Word: "CAT", Pseudo: "Bob", From: &from, To: &to, Complete: true})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"word_found","pseudo":"Bob","word":"CAT","from":[0,0],"to":[0,2],"complete":true}`
	if string(data) != want {
		t.Fatalf("unexpected encoding %s", data)
	}
}

func TestSendTargetsOneClient(t *testing.T) {
	b := NewBroadcaster(nil)
	c1 := b.Register("hunt1")
	c2 := b.Register("hunt1")
	defer b.Unregister(c2)

	b.Send(c1, huntEvent{Type: eventHuntState, State: &huntView{ID: "hunt1"}})
	if len(c1.ch) != 1 || len(c2.ch) != 0 {
		t.Fatalf("expected only c1 to receive, got %d and %d", len(c1.ch), len(c2.ch))
	}

	// Unregistered clients are skipped instead of written to a closed channel.
	b.Unregister(c1)
	b.Send(c1, huntEvent{Type: eventHuntState})
}

func TestBroadcastSkipsFullChannel(t *testing.T) {
	b := NewBroadcaster(nil)
	c := b.Register("hunt1")

	for range sseChannelBuffer {
		b.Broadcast("hunt1", huntEvent{Type: eventPlayerJoined, Pseudo: "Bob"})
	}

	// This should not block.
	b.Broadcast("hunt1", huntEvent{Type: eventPlayerLeft, Pseudo: "Bob"})

	if len(c.ch) != sseChannelBuffer {
		t.Fatalf("expected a full channel, got %d messages", len(c.ch))
	}
	b.Unregister(c)
}

func TestBroadcasterConcurrent(t *testing.T) {
	b := NewBroadcaster(nil)
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			huntID := "hunt1"
			if i%2 == 0 {
				huntID = "hunt2"
			}
			c := b.Register(huntID)
			b.Broadcast(huntID, huntEvent{Type: eventPlayerJoined})
			b.ClientCount(huntID)
			b.Unregister(c)
		}(i)
	}
	wg.Wait()

	if b.ClientCount("hunt1") != 0 || b.ClientCount("hunt2") != 0 {
		t.Fatal("expected 0 clients after concurrent test")
	}
}

func TestServeSSE(t *testing.T) {
	b := NewBroadcaster(nil)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/hunts/h1/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	disconnected := make(chan struct{})
	go func() {
		b.ServeSSE(w, req, "h1", func(c *client) {
			b.Send(c, huntEvent{Type: eventHuntState, State: &huntView{ID: "h1"}})
		}, func() {
			close(disconnected)
		})
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount("h1") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-disconnected:
	case <-time.After(time.Second):
		t.Fatal("ServeSSE did not return after the request was cancelled")
	}

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), `data: {"type":"hunt_state","state":{"id":"h1",`) {
		t.Fatalf("initial event missing from stream: %q", w.Body.String())
	}
	if b.ClientCount("h1") != 0 {
		t.Fatal("client still registered after disconnect")
	}
}
