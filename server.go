package main

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/bodul/motsmeles/corpus"
	"github.com/bodul/motsmeles/wordsearch"
)

//go:embed frontend
var frontendFS embed.FS

const (
	maxBodySize       = 64 << 10 // 64 Ko
	defaultThemeCount = 12
)

const (
	visitorSweep = time.Minute
	visitorIdle  = 5 * time.Minute
)

// rateLimiter hands out one token bucket per client IP. A background sweep
// forgets idle IPs until close is called.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter allows n requests per interval, with bursts of n.
func newRateLimiter(n int, interval time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(interval / time.Duration(n)),
		burst:    n,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go rl.sweep(visitorSweep)
	return rl
}

func (rl *rateLimiter) sweep(every time.Duration) {
	defer close(rl.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.forget(now.Add(-visitorIdle))
		}
	}
}

// forget drops visitors not seen since cutoff.
func (rl *rateLimiter) forget(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// close stops the sweep and waits for it to exit. It is safe to call more
// than once.
func (rl *rateLimiter) close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
	<-rl.done
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// Server is the main HTTP server.
type Server struct {
	mux      *http.ServeMux
	store    *Store
	gemini   *GeminiClient
	corpora  *corpus.Library
	sse      *Broadcaster
	createRL *rateLimiter
	claimRL  *rateLimiter
	validate *validator.Validate
	logger   *slog.Logger
}

// NewServer creates a configured HTTP server. gemini and corpora may be nil;
// the matching puzzle sources are then reported as unavailable.
func NewServer(store *Store, gemini *GeminiClient, corpora *corpus.Library, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mux:      http.NewServeMux(),
		store:    store,
		gemini:   gemini,
		corpora:  corpora,
		sse:      NewBroadcaster(logger),
		createRL: newRateLimiter(10, time.Minute), // 10 puzzles/min per IP
		claimRL:  newRateLimiter(20, time.Second), // 20 claims/sec per IP
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
	s.routes()
	return s
}

// Close stops the server's background work. Handlers keep answering, but
// rate limiters no longer forget idle clients.
func (s *Server) Close() {
	s.createRL.close()
	s.claimRL.close()
}

func (s *Server) routes() {
	// Puzzle API
	s.mux.HandleFunc("POST /api/puzzles", s.handleCreatePuzzle)
	s.mux.HandleFunc("GET /api/puzzles", s.handleListPuzzles)
	s.mux.HandleFunc("GET /api/puzzles/{id}", s.handleGetPuzzle)
	s.mux.HandleFunc("DELETE /api/puzzles/{id}", s.handleDeletePuzzle)
	s.mux.HandleFunc("GET /api/puzzles/{id}/cells", s.handlePuzzleCells)
	s.mux.HandleFunc("GET /api/puzzles/{id}/render", s.handleRenderPuzzle)
	s.mux.HandleFunc("GET /api/corpora", s.handleListCorpora)

	// Hunt API
	s.mux.HandleFunc("POST /api/hunts", s.handleCreateHunt)
	s.mux.HandleFunc("GET /api/hunts/{id}", s.handleGetHunt)
	s.mux.HandleFunc("POST /api/hunts/{id}/join", s.handleJoinHunt)
	s.mux.HandleFunc("POST /api/hunts/{id}/claim", s.handleClaim)
	s.mux.HandleFunc("GET /api/hunts/{id}/events", s.handleHuntEvents)

	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Frontend static files
	frontendDir, _ := fs.Sub(frontendFS, "frontend")
	fileServer := http.FileServer(http.FS(frontendDir))
	s.mux.HandleFunc("GET /hunt/{id}", s.handleHuntPage)
	s.mux.Handle("GET /", fileServer)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
	s.mux.ServeHTTP(w, r)
}

// --- Puzzle handlers ---

// createPuzzleRequest names exactly one word source: an explicit list, a
// corpus passage or a theme for Gemini.
type createPuzzleRequest struct {
	Title       string   `json:"title" validate:"max=80"`
	Words       []string `json:"words" validate:"omitempty,max=200,dive,max=64"`
	Corpus      string   `json:"corpus" validate:"max=32"`
	Refs        string   `json:"refs" validate:"max=200"`
	Theme       string   `json:"theme" validate:"max=80"`
	Count       int      `json:"count" validate:"omitempty,min=1,max=40"`
	Language    string   `json:"language" validate:"max=16"`
	Rows        int      `json:"rows" validate:"omitempty,min=1,max=64"`
	Cols        int      `json:"cols" validate:"omitempty,min=1,max=64"`
	Regime      string   `json:"regime" validate:"omitempty,oneof=ltr rtl LTR RTL"`
	Seed        int64    `json:"seed"`
	MaxAttempts int      `json:"max_attempts" validate:"omitempty,min=1,max=65536"`
}

func (req *createPuzzleRequest) sources() int {
	n := 0
	if len(req.Words) > 0 {
		n++
	}
	if req.Corpus != "" || req.Refs != "" {
		n++
	}
	if req.Theme != "" {
		n++
	}
	return n
}

// apiError carries the status and user-facing message of a failed request.
type apiError struct {
	code int
	msg  string
}

func (e *apiError) Error() string { return e.msg }

// wordSource is the resolved input of a generation request.
type wordSource struct {
	words  []string
	regime wordsearch.Regime
	title  string
	label  string
}

// POST /api/puzzles: generate a puzzle and save it.
func (s *Server) handleCreatePuzzle(w http.ResponseWriter, r *http.Request) {
	if !s.createRL.allow(clientIP(r)) {
		jsonError(w, "Trop de requêtes, réessayez plus tard", http.StatusTooManyRequests)
		return
	}

	var req createPuzzleRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Requête invalide", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		jsonError(w, "Requête invalide : "+validationMessage(err), http.StatusBadRequest)
		return
	}
	if req.sources() != 1 {
		jsonError(w, "Indiquez une seule source : words, corpus + refs ou theme", http.StatusBadRequest)
		return
	}

	src, err := s.resolveWords(r.Context(), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	params := generateParams{
		Rows:        req.Rows,
		Cols:        req.Cols,
		Regime:      src.regime,
		Seed:        req.Seed,
		MaxAttempts: req.MaxAttempts,
	}
	if params.Rows == 0 {
		params.Rows = wordsearch.DefaultRows
	}
	if params.Cols == 0 {
		params.Cols = wordsearch.DefaultCols
	}

	p, err := generatePuzzle(src.words, params, s.logger)
	switch {
	case errors.Is(err, wordsearch.ErrConfiguration):
		jsonError(w, "Paramètres de grille invalides", http.StatusBadRequest)
		return
	case errors.Is(err, wordsearch.ErrPlacementExhausted):
		s.logger.Info("placement exhausted", "source", src.label, "error", err)
		jsonError(w, "Impossible de placer tous les mots", http.StatusUnprocessableEntity)
		return
	case err != nil:
		s.logger.Error("generate puzzle", "source", src.label, "error", err)
		jsonError(w, "Erreur lors de la génération de la grille", http.StatusInternalServerError)
		return
	}

	title := req.Title
	if title == "" {
		title = src.title
	}
	rec, err := s.store.SavePuzzle(newRecord(p, title, src.label))
	if err != nil {
		s.logger.Error("save puzzle", "error", err)
		jsonError(w, "Erreur lors de l'enregistrement de la grille", http.StatusInternalServerError)
		return
	}
	s.logger.Info("puzzle created", "id", rec.ID, "source", rec.Source, "words", len(rec.Words))

	// The creator gets the solution; later reads do not.
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) resolveWords(ctx context.Context, req *createPuzzleRequest) (*wordSource, error) {
	src := &wordSource{regime: wordsearch.LTR, label: "words"}

	switch {
	case len(req.Words) > 0:
		src.words = req.Words

	case req.Theme != "":
		if s.gemini == nil {
			return nil, &apiError{http.StatusServiceUnavailable, "Suggestions de mots non configurées"}
		}
		count := req.Count
		if count == 0 {
			count = defaultThemeCount
		}
		words, err := s.gemini.SuggestWords(ctx, req.Theme, req.Language, count)
		if err != nil {
			s.logger.Error("gemini suggest", "theme", req.Theme, "error", err)
			return nil, &apiError{http.StatusInternalServerError, "Erreur lors de la suggestion de mots"}
		}
		src.words = words
		src.title = req.Theme
		src.label = "theme:" + req.Theme

	default:
		if s.corpora == nil {
			return nil, &apiError{http.StatusServiceUnavailable, "Aucun corpus configuré"}
		}
		if req.Corpus == "" || req.Refs == "" {
			return nil, &apiError{http.StatusBadRequest, "Champs 'corpus' et 'refs' requis ensemble"}
		}
		words, def, err := s.corpora.Words(req.Corpus, req.Refs)
		switch {
		case errors.Is(err, corpus.ErrUnknownCorpus):
			return nil, &apiError{http.StatusNotFound, "Corpus introuvable"}
		case errors.Is(err, corpus.ErrUnknownBook), errors.Is(err, corpus.ErrBadReference):
			return nil, &apiError{http.StatusBadRequest, "Référence invalide : " + req.Refs}
		case err != nil:
			s.logger.Error("read corpus", "corpus", req.Corpus, "error", err)
			return nil, &apiError{http.StatusInternalServerError, "Erreur de lecture du corpus"}
		}
		if regime, err := def.ScriptRegime(); err == nil {
			src.regime = regime
		}
		src.words = words
		src.title = req.Refs
		src.label = def.Name + " " + req.Refs
	}

	if req.Regime != "" {
		regime, err := wordsearch.ParseRegime(req.Regime)
		if err != nil {
			return nil, &apiError{http.StatusBadRequest, "Sens d'écriture invalide"}
		}
		src.regime = regime
	}
	return src, nil
}

// GET /api/puzzles: list all puzzles without their solutions.
func (s *Server) handleListPuzzles(w http.ResponseWriter, _ *http.Request) {
	list := s.store.ListPuzzles()
	out := make([]*Record, len(list))
	for i, rec := range list {
		out[i] = rec.Public()
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/puzzles/{id}: get a single puzzle without its solution.
func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	rec := s.store.GetPuzzle(r.PathValue("id"))
	if rec == nil {
		jsonError(w, "Grille introuvable", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec.Public())
}

// DELETE /api/puzzles/{id}: delete a puzzle and its hunts.
func (s *Server) handleDeletePuzzle(w http.ResponseWriter, r *http.Request) {
	ok, err := s.store.DeletePuzzle(r.PathValue("id"))
	if err != nil {
		s.logger.Error("delete puzzle", "error", err)
		jsonError(w, "Erreur lors de la suppression", http.StatusInternalServerError)
		return
	}
	if !ok {
		jsonError(w, "Grille introuvable", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/puzzles/{id}/cells: populated cells as [{"loc":[r,c],"grf":g}].
func (s *Server) handlePuzzleCells(w http.ResponseWriter, r *http.Request) {
	s.renderPuzzle(w, r.PathValue("id"), wordsearch.FormatJSON)
}

// GET /api/puzzles/{id}/render?format=html|json|text
func (s *Server) handleRenderPuzzle(w http.ResponseWriter, r *http.Request) {
	format, err := wordsearch.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, "Format inconnu : html, json ou text", http.StatusBadRequest)
		return
	}
	s.renderPuzzle(w, r.PathValue("id"), format)
}

func (s *Server) renderPuzzle(w http.ResponseWriter, id string, format wordsearch.Format) {
	rec := s.store.GetPuzzle(id)
	if rec == nil {
		jsonError(w, "Grille introuvable", http.StatusNotFound)
		return
	}
	p, err := rec.Puzzle()
	if err != nil {
		s.logger.Error("rebuild puzzle", "id", id, "error", err)
		jsonError(w, "Grille corrompue", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := wordsearch.Render(&buf, p, format); err != nil {
		s.logger.Error("render puzzle", "id", id, "format", format, "error", err)
		jsonError(w, "Erreur lors du rendu", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Write(buf.Bytes())
}

type corpusInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Language    string   `json:"language"`
	Regime      string   `json:"regime"`
	Books       []string `json:"books,omitempty"`
}

// GET /api/corpora: registered corpora and their books.
func (s *Server) handleListCorpora(w http.ResponseWriter, _ *http.Request) {
	out := []corpusInfo{}
	if s.corpora != nil {
		for _, name := range s.corpora.Names() {
			h, err := s.corpora.Handle(name)
			if err != nil {
				s.logger.Warn("open corpus", "corpus", name, "error", err)
				continue
			}
			def := h.Definition()
			info := corpusInfo{
				Name:        def.Name,
				Description: def.Description,
				Language:    def.Language,
				Regime:      def.Regime,
			}
			if books, err := h.Books(); err == nil {
				info.Books = books
			}
			out = append(out, info)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Hunt handlers ---

// huntView is the JSON shape of a hunt with its puzzle.
type huntView struct {
	ID        string            `json:"id"`
	PuzzleID  string            `json:"puzzle_id"`
	Players   map[string]Player `json:"players"`
	Found     map[string]string `json:"found"`
	Complete  bool              `json:"complete"`
	CreatedAt time.Time         `json:"created_at"`
	Puzzle    *Record           `json:"puzzle,omitempty"`
}

func (s *Server) huntView(h *HuntSession) huntView {
	found, players := h.Snapshot()
	v := huntView{
		ID:        h.ID,
		PuzzleID:  h.PuzzleID,
		Players:   players,
		Found:     found,
		Complete:  h.Complete(),
		CreatedAt: h.CreatedAt,
	}
	if rec := s.store.GetPuzzle(h.PuzzleID); rec != nil {
		v.Puzzle = rec.Public()
	}
	return v
}

// POST /api/hunts: start a hunt on a puzzle.
func (s *Server) handleCreateHunt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PuzzleID string `json:"puzzle_id" validate:"required"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || s.validate.Struct(&req) != nil {
		jsonError(w, "Champ 'puzzle_id' requis", http.StatusBadRequest)
		return
	}

	hunt, err := s.store.CreateHunt(req.PuzzleID)
	if err != nil {
		jsonError(w, "Grille introuvable", http.StatusNotFound)
		return
	}
	s.logger.Info("hunt created", "hunt", hunt.ID, "puzzle", hunt.PuzzleID)

	writeJSON(w, http.StatusCreated, s.huntView(hunt))
}

// GET /api/hunts/{id}: current hunt state.
func (s *Server) handleGetHunt(w http.ResponseWriter, r *http.Request) {
	hunt := s.store.GetHunt(r.PathValue("id"))
	if hunt == nil {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.huntView(hunt))
}

// POST /api/hunts/{id}/join: join a hunt with a pseudo.
func (s *Server) handleJoinHunt(w http.ResponseWriter, r *http.Request) {
	hunt := s.store.GetHunt(r.PathValue("id"))
	if hunt == nil {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}

	var req struct {
		Pseudo string `json:"pseudo" validate:"required"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || s.validate.Struct(&req) != nil {
		jsonError(w, "Champ 'pseudo' requis", http.StatusBadRequest)
		return
	}

	pseudo := sanitizePseudo(req.Pseudo)
	if pseudo == "" {
		jsonError(w, "Pseudo invalide", http.StatusBadRequest)
		return
	}

	player := hunt.AddPlayer(pseudo)

	s.sse.Broadcast(hunt.ID, huntEvent{
		Type:   eventPlayerJoined,
		Pseudo: player.Pseudo,
		Color:  player.Color,
	})

	writeJSON(w, http.StatusOK, player)
}

type claimRequest struct {
	Pseudo string           `json:"pseudo" validate:"required"`
	From   *wordsearch.Coord `json:"from" validate:"required"`
	To     *wordsearch.Coord `json:"to" validate:"required"`
}

// POST /api/hunts/{id}/claim: claim the word between two cells.
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	if !s.claimRL.allow(clientIP(r)) {
		jsonError(w, "Trop de requêtes, réessayez plus tard", http.StatusTooManyRequests)
		return
	}

	hunt := s.store.GetHunt(r.PathValue("id"))
	if hunt == nil {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}

	var req claimRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Requête invalide", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		jsonError(w, "Champs 'pseudo', 'from' et 'to' requis", http.StatusBadRequest)
		return
	}

	pseudo := sanitizePseudo(req.Pseudo)
	if _, players := hunt.Snapshot(); players[pseudo].Pseudo == "" {
		jsonError(w, "Rejoignez la partie avant de jouer", http.StatusForbidden)
		return
	}

	word, ok := hunt.Claim(pseudo, *req.From, *req.To)
	if !ok {
		jsonError(w, "Aucun mot à trouver entre ces deux cases", http.StatusConflict)
		return
	}
	complete := hunt.Complete()

	s.sse.Broadcast(hunt.ID, huntEvent{
		Type:     eventWordFound,
		Word:     word,
		Pseudo:   pseudo,
		From:     req.From,
		To:       req.To,
		Complete: complete,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"word":     word,
		"complete": complete,
	})
}

// GET /api/hunts/{id}/events: SSE stream.
func (s *Server) handleHuntEvents(w http.ResponseWriter, r *http.Request) {
	hunt := s.store.GetHunt(r.PathValue("id"))
	if hunt == nil {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}

	playerPseudo := sanitizePseudo(r.URL.Query().Get("pseudo"))

	s.sse.ServeSSE(w, r, hunt.ID, func(c *client) {
		// Send the current hunt state on connect.
		state := s.huntView(hunt)
		s.sse.Send(c, huntEvent{Type: eventHuntState, State: &state})
	}, func() {
		// On disconnect: broadcast player_left if pseudo was provided.
		if playerPseudo != "" {
			hunt.RemovePlayer(playerPseudo)
			s.sse.Broadcast(hunt.ID, huntEvent{
				Type:   eventPlayerLeft,
				Pseudo: playerPseudo,
			})
		}
	})
}

// --- Frontend page handlers ---

// GET /hunt/{id}: serve the hunt page.
func (s *Server) handleHuntPage(w http.ResponseWriter, _ *http.Request) {
	data, _ := frontendFS.ReadFile("frontend/hunt.html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// --- Helpers ---

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		jsonError(w, ae.msg, ae.code)
		return
	}
	s.logger.Error("request failed", "error", err)
	jsonError(w, "Erreur interne", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// validationMessage lists the offending JSON fields.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return "champs " + strings.Join(fields, ", ")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func sanitizePseudo(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > 20 {
		s = string([]rune(s)[:20])
	}
	return s
}
