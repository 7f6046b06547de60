package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bodul/motsmeles/corpus"
	"github.com/bodul/motsmeles/wordsearch"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CORPORA", "data/corpora.yaml")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGenerateJSONToStdout(t *testing.T) {
	out, err := runCLI(t, "generate", "CAT", "DOG", "-f", "json", "--seed", "9", "-r", "5", "-c", "5")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var cells []wordsearch.Cell
	if err := json.Unmarshal([]byte(out), &cells); err != nil {
		t.Fatalf("output is not the cell JSON: %v\n%s", err, out)
	}
	if len(cells) == 0 {
		t.Fatal("no cells written")
	}

	// The same seed gives the same grid.
	again, _ := runCLI(t, "generate", "CAT", "DOG", "-f", "json", "--seed", "9", "-r", "5", "-c", "5")
	if again != out {
		t.Fatal("same seed should reproduce the puzzle")
	}
}

func TestGenerateWordsFileText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("# animaux\nCHAT\n\n  CHIEN  \nLAPIN\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "generate", "--words-file", path, "-f", "text", "--seed", "1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, w := range []string{"CHAT", "CHIEN", "LAPIN"} {
		if !strings.Contains(out, w) {
			t.Errorf("word list should contain %s:\n%s", w, out)
		}
	}
	if strings.Contains(out, "animaux") {
		t.Error("comment lines should be skipped")
	}
}

func TestGenerateCorpusToFiles(t *testing.T) {
	base := filepath.Join(t.TempDir(), "genesis.html")

	_, err := runCLI(t, "generate", "--corpus", "ETCBCH", "-s", "Genesis 1:1-3", "-n", "3", "--seed", "4", "-o", base)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, name := range []string{"genesis.html", "genesis-2.html", "genesis-3.html"} {
		data, err := os.ReadFile(filepath.Join(filepath.Dir(base), name))
		if err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
		if !strings.Contains(string(data), `dir="rtl"`) {
			t.Errorf("%s should be rendered right to left", name)
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no words", []string{"generate"}, nil},
		{"words and corpus", []string{"generate", "CAT", "--corpus", "ETCBCH", "-s", "Genesis 1:1"}, nil},
		{"corpus without refs", []string{"generate", "--corpus", "ETCBCH"}, nil},
		{"unknown corpus", []string{"generate", "--corpus", "NOPE", "-s", "Genesis 1:1"}, corpus.ErrUnknownCorpus},
		{"bad format", []string{"generate", "CAT", "-f", "pdf"}, wordsearch.ErrConfiguration},
		{"bad regime", []string{"generate", "CAT", "--regime", "up"}, wordsearch.ErrConfiguration},
		{"zero rows", []string{"generate", "CAT", "-r", "0"}, wordsearch.ErrConfiguration},
		{"exhausted", []string{"generate", "XY", "ZZ", "-r", "1", "-c", "1", "--max-attempts", "1"}, wordsearch.ErrPlacementExhausted},
		{"zero number", []string{"generate", "CAT", "-n", "0"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGenerateBatchSeeds(t *testing.T) {
	params := generateParams{Rows: 5, Cols: 5, Regime: wordsearch.LTR, Seed: 100}
	puzzles, err := generateBatch(context.Background(), []string{"CAT", "DOG", "BIRD"}, params, 4, nil)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(puzzles) != 4 {
		t.Fatalf("expected 4 puzzles, got %d", len(puzzles))
	}

	// Puzzle i matches a lone run seeded with seed+i.
	params.Seed = 102
	lone, err := generatePuzzle([]string{"CAT", "DOG", "BIRD"}, params, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(lone.Grid.Cells()) != len(puzzles[2].Grid.Cells()) {
		t.Fatal("batch puzzle 3 should reproduce seed 102")
	}
	for i, c := range lone.Grid.Cells() {
		if puzzles[2].Grid.Cells()[i] != c {
			t.Fatal("batch puzzle 3 should reproduce seed 102")
		}
	}
}

func TestNumberedPath(t *testing.T) {
	cases := map[int]string{0: "out/p.html", 1: "out/p-2.html", 9: "out/p-10.html"}
	for i, want := range cases {
		if got := numberedPath("out/p.html", i); got != want {
			t.Errorf("numberedPath(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestInfo(t *testing.T) {
	out, err := runCLI(t, "info")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if !strings.Contains(out, "ETCBCH") || !strings.Contains(out, "ETCBCG") {
		t.Fatalf("expected both corpora listed:\n%s", out)
	}

	out, err = runCLI(t, "info", "ETCBCG", "--books")
	if err != nil {
		t.Fatalf("info --books: %v", err)
	}
	if strings.TrimSpace(out) != "Matthew" {
		t.Fatalf("expected the Matthew book, got %q", out)
	}

	out, err = runCLI(t, "info", "ETCBCH")
	if err != nil {
		t.Fatalf("info ETCBCH: %v", err)
	}
	if !strings.Contains(out, "regime:   rtl") || !strings.Contains(out, "etcbc-hebrew.tsv") {
		t.Fatalf("unexpected description:\n%s", out)
	}

	if _, err := runCLI(t, "info", "--books"); err == nil {
		t.Fatal("--books without a corpus should fail")
	}
	if _, err := runCLI(t, "info", "NOPE"); !errors.Is(err, corpus.ErrUnknownCorpus) {
		t.Fatalf("expected ErrUnknownCorpus, got %v", err)
	}
}
