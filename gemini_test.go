package main

import (
	"context"
	"os"
	"testing"
)

func TestParseWordList(t *testing.T) {
	words, err := parseWordList(`{"words": ["chat", " chien ", "", "chat", "poisson rouge", "lapin"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"chat", "chien", "lapin"}
	if len(words) != len(want) {
		t.Fatalf("expected %v, got %v", want, words)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, words)
		}
	}

	for _, bad := range []string{"", "not json", `{"words": []}`, `{"words": ["  "]}`} {
		if _, err := parseWordList(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestSuggestWords(t *testing.T) {
	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		t.Skip("GCP_PROJECT_ID not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := NewGeminiClient(ctx, projectID, os.Getenv("GCP_REGION"), os.Getenv("GEMINI_MODEL"))
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()

	words, err := client.SuggestWords(ctx, "les fruits", "fr", 10)
	if err != nil {
		t.Fatalf("suggest words: %v", err)
	}
	if len(words) == 0 || len(words) > 10 {
		t.Fatalf("expected 1-10 words, got %d", len(words))
	}
	t.Logf("Suggested words: %v", words)
}
