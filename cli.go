package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bodul/motsmeles/corpus"
	"github.com/bodul/motsmeles/wordsearch"
)

// cli is the state shared by the subcommands once the root has run.
type cli struct {
	cfg      *Config
	logger   *slog.Logger
	logLevel string
}

func newRootCmd() *cobra.Command {
	app := &cli{}
	root := &cobra.Command{
		Use:   "motsmeles",
		Short: "Word-search puzzle generator",
		Long: `Generate word-search puzzles from word lists or annotated text corpora,
and serve them for collaborative play.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if app.logLevel != "" {
				cfg.LogLevel = app.logLevel
			}
			app.cfg = cfg
			app.logger = newLogger(cfg.LogLevel, cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL)")

	root.AddCommand(newGenerateCmd(app), newInfoCmd(app), newServeCmd(app))
	return root
}

type generateOptions struct {
	words       []string
	wordsFile   string
	corpus      string
	refs        string
	corpora     string
	rows        int
	cols        int
	regime      string
	format      string
	output      string
	seed        int64
	number      int
	maxAttempts int
}

func newGenerateCmd(app *cli) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [word...]",
		Short: "Generate word-search puzzles",
		Long: `Generate one or more word-search puzzles.

Words come from the arguments, --words, --words-file, or a corpus passage
(--corpus with --refs). Books and their abbreviations are listed by
"motsmeles info <corpus> --books".

Examples:
  motsmeles generate CAT DOG BIRD -r 8 -c 8
  motsmeles generate --words-file animals.txt -f text
  motsmeles generate --corpus ETCBCH -s "Genesis 1:1-3" -o genesis.html
  motsmeles generate --corpus ETCBCG -s "Matthew 1:1-3" -n 5 -o matthew.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), app, opts, args, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.words, "words", nil, "Comma-separated words to hide")
	f.StringVar(&opts.wordsFile, "words-file", "", "File with one word per line")
	f.StringVar(&opts.corpus, "corpus", "", "Corpus to draw words from (see info)")
	f.StringVarP(&opts.refs, "refs", "s", "", `Passage references, e.g. "Genesis 1:1-3, Exodus 1:2"`)
	f.StringVar(&opts.corpora, "corpora", "", "Corpus registry file (default $CORPORA)")
	f.IntVarP(&opts.rows, "rows", "r", wordsearch.DefaultRows, "Requested rows; the grid grows when needed")
	f.IntVarP(&opts.cols, "cols", "c", wordsearch.DefaultCols, "Requested columns; the grid grows when needed")
	f.StringVar(&opts.regime, "regime", "", "ltr or rtl (default from the corpus, else ltr)")
	f.StringVarP(&opts.format, "format", "f", "html", "Output format: html, json or text")
	f.StringVarP(&opts.output, "output", "o", "", "Output file (default stdout)")
	f.Int64Var(&opts.seed, "seed", 0, "Random seed; 0 picks one")
	f.IntVarP(&opts.number, "number", "n", 1, "Number of puzzles to generate")
	f.IntVar(&opts.maxAttempts, "max-attempts", wordsearch.DefaultMaxAttempts, "Starting squares tried per word before giving up")

	return cmd
}

func runGenerate(ctx context.Context, app *cli, opts *generateOptions, args []string, stdout io.Writer) error {
	if opts.number < 1 {
		return fmt.Errorf("--number must be at least 1, got %d", opts.number)
	}
	format, err := wordsearch.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	words, regime, err := collectWords(app, opts, args)
	if err != nil {
		return err
	}
	if opts.regime != "" {
		if regime, err = wordsearch.ParseRegime(opts.regime); err != nil {
			return err
		}
	}

	params := generateParams{
		Rows:        opts.rows,
		Cols:        opts.cols,
		Regime:      regime,
		Seed:        opts.seed,
		MaxAttempts: opts.maxAttempts,
	}
	puzzles, err := generateBatch(ctx, words, params, opts.number, app.logger)
	if err != nil {
		return err
	}
	return writePuzzles(stdout, opts.output, puzzles, format)
}

// collectWords gathers the words of one run and the regime their source
// implies.
func collectWords(app *cli, opts *generateOptions, args []string) ([]string, wordsearch.Regime, error) {
	words := append(append([]string(nil), args...), opts.words...)
	if opts.wordsFile != "" {
		fromFile, err := readWordsFile(opts.wordsFile)
		if err != nil {
			return nil, 0, err
		}
		words = append(words, fromFile...)
	}

	if opts.corpus == "" && opts.refs == "" {
		if len(words) == 0 {
			return nil, 0, errors.New("no words: pass words, --words-file, or --corpus with --refs")
		}
		return words, wordsearch.LTR, nil
	}

	if len(words) > 0 {
		return nil, 0, errors.New("a corpus passage cannot be combined with explicit words")
	}
	if opts.corpus == "" || opts.refs == "" {
		return nil, 0, errors.New("--corpus and --refs go together")
	}

	path := opts.corpora
	if path == "" {
		path = app.cfg.Corpora
	}
	cfg, err := corpus.LoadConfig(path)
	if err != nil {
		return nil, 0, err
	}
	lib := corpus.NewLibrary(cfg)
	defer lib.Close()

	words, def, err := lib.Words(opts.corpus, opts.refs)
	if err != nil {
		return nil, 0, err
	}
	regime, err := def.ScriptRegime()
	if err != nil {
		return nil, 0, fmt.Errorf("corpus %s: %w", def.Name, err)
	}
	app.logger.Debug("corpus passage loaded", "corpus", def.Name, "refs", opts.refs, "slots", len(words))
	return words, regime, nil
}

// readWordsFile reads one word per line, skipping blank lines and lines
// starting with #.
func readWordsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open words file: %w", err)
	}
	defer f.Close()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read words file %s: %w", path, err)
	}
	return words, nil
}

// generateBatch generates n puzzles concurrently, each with its own
// Generator. With a non-zero seed, puzzle i uses seed+i.
func generateBatch(ctx context.Context, words []string, params generateParams, n int, logger *slog.Logger) ([]*wordsearch.Puzzle, error) {
	puzzles := make([]*wordsearch.Puzzle, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := params
			if p.Seed != 0 {
				p.Seed += int64(i)
			}
			puzzle, err := generatePuzzle(words, p, logger)
			if err != nil {
				return fmt.Errorf("puzzle %d: %w", i+1, err)
			}
			puzzles[i] = puzzle
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return puzzles, nil
}

// writePuzzles writes to stdout when output is empty. Several puzzles
// written to a file go to numbered siblings: out.html, out-2.html, ...
func writePuzzles(stdout io.Writer, output string, puzzles []*wordsearch.Puzzle, format wordsearch.Format) error {
	if output == "" {
		for i, p := range puzzles {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			if err := wordsearch.Render(stdout, p, format); err != nil {
				return err
			}
		}
		return nil
	}

	for i, p := range puzzles {
		if err := writePuzzleFile(numberedPath(output, i), p, format); err != nil {
			return err
		}
	}
	return nil
}

func writePuzzleFile(path string, p *wordsearch.Puzzle, format wordsearch.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := wordsearch.Render(f, p, format); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func numberedPath(path string, i int) string {
	if i == 0 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i+1, ext)
}

func newInfoCmd(app *cli) *cobra.Command {
	var (
		books   bool
		corpora string
	)
	cmd := &cobra.Command{
		Use:   "info [corpus]",
		Short: "List corpora, or describe one",
		Long: `Without arguments, list the registered corpora. With a corpus name,
describe it; with --books, list the books its references may name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := corpora
			if path == "" {
				path = app.cfg.Corpora
			}
			cfg, err := corpus.LoadConfig(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				if books {
					return errors.New("--books needs a corpus name")
				}
				for _, def := range cfg.Corpora {
					fmt.Fprintf(out, "%-8s %-4s %-4s %s\n", def.Name, def.Language, def.Regime, def.Description)
				}
				return nil
			}

			def, err := cfg.Lookup(args[0])
			if err != nil {
				return err
			}
			h, err := corpus.Open(def)
			if err != nil {
				return err
			}
			defer h.Close()

			if books {
				list, err := h.Books()
				if err != nil {
					return err
				}
				for _, b := range list {
					fmt.Fprintln(out, b)
				}
				return nil
			}

			fmt.Fprintf(out, "name:     %s\n", def.Name)
			if def.Description != "" {
				fmt.Fprintf(out, "about:    %s\n", def.Description)
			}
			fmt.Fprintf(out, "language: %s\n", def.Language)
			fmt.Fprintf(out, "regime:   %s\n", def.Regime)
			fmt.Fprintf(out, "feature:  %s\n", def.Feature)
			fmt.Fprintf(out, "file:     %s\n", h.Path())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&books, "books", "b", false, "List the books of the corpus")
	cmd.Flags().StringVar(&corpora, "corpora", "", "Corpus registry file (default $CORPORA)")
	return cmd
}
