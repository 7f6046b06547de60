package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bodul/motsmeles/corpus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newServeCmd(app *cli) *cobra.Command {
	var port, dataDir, corpora string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the puzzle API and the hunt pages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *app.cfg
			if port != "" {
				cfg.Port = port
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if corpora != "" {
				cfg.Corpora = corpora
			}
			return serve(cmd.Context(), &cfg, app)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (default $PORT)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "BadgerDB directory; empty keeps puzzles in memory (default $DATA_DIR)")
	cmd.Flags().StringVar(&corpora, "corpora", "", "Corpus registry file (default $CORPORA)")
	return cmd
}

func serve(ctx context.Context, cfg *Config, app *cli) error {
	logger := app.logger

	db, err := openBadger(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := OpenStore(db)
	if err != nil {
		return err
	}
	if cfg.DataDir == "" {
		logger.Info("DATA_DIR non défini, grilles conservées en mémoire")
	} else {
		logger.Info("grilles chargées", "dir", cfg.DataDir, "count", len(store.ListPuzzles()))
	}

	var lib *corpus.Library
	if corpusCfg, err := corpus.LoadConfig(cfg.Corpora); err != nil {
		logger.Warn("corpus désactivés", "path", cfg.Corpora, "error", err)
	} else {
		lib = corpus.NewLibrary(corpusCfg)
		defer lib.Close()
		logger.Info("corpus disponibles", "names", lib.Names())
	}

	var gemini *GeminiClient
	if cfg.ProjectID != "" {
		gemini, err = NewGeminiClient(ctx, cfg.ProjectID, cfg.Region, cfg.Model)
		if err != nil {
			return fmt.Errorf("initialise Gemini: %w", err)
		}
		defer gemini.Close()
		logger.Info("client Gemini initialisé", "project", cfg.ProjectID)
	} else {
		logger.Info("GCP_PROJECT_ID non défini, suggestions par thème désactivées")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := NewServer(store, gemini, lib, logger)
	defer handler.Close()

	// Requests inherit ctx so open SSE streams end on shutdown.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serveur démarré", "url", "http://localhost:"+cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("arrêt du serveur")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
