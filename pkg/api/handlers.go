package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/tabula/pkg/dice"
	"github.com/yourusername/tabula/pkg/engine"
	"github.com/yourusername/tabula/pkg/game"
	"github.com/yourusername/tabula/pkg/match"
	"github.com/yourusername/tabula/pkg/store"
)

const (
	defaultCandidates = 5
	defaultGameList   = 20
	maxGameList       = 200
)

// Handlers holds the HTTP handlers and their shared state.
type Handlers struct {
	chooser *engine.Chooser
	store   *store.Store
	version string
	pool    *WorkerPool
	log     logrus.FieldLogger
}

// NewHandlers creates a new Handlers instance without a worker pool. st may
// be nil, which disables the game and simulation storage routes.
func NewHandlers(st *store.Store, version string) *Handlers {
	return NewHandlersWithPool(st, version, nil)
}

// NewHandlersWithPool creates a new Handlers instance with a worker pool.
func NewHandlersWithPool(st *store.Store, version string, pool *WorkerPool) *Handlers {
	ch := engine.NewChooser()
	ch.Usage.Cache = engine.NewUsageCache(engine.DefaultCacheSize)
	return &Handlers{
		chooser: ch,
		store:   st,
		version: version,
		pool:    pool,
		log:     logrus.StandardLogger(),
	}
}

// SetLogger replaces the handlers' logger.
func (h *Handlers) SetLogger(l logrus.FieldLogger) {
	if l != nil {
		h.log = l
	}
}

// apiError is a failed request with its HTTP status and error code.
type apiError struct {
	status int
	code   string
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func badRequest(code, format string, args ...any) *apiError {
	return &apiError{status: http.StatusBadRequest, code: code, msg: fmt.Sprintf(format, args...)}
}

func internalError(err error) *apiError {
	return &apiError{status: http.StatusInternalServerError, code: "ENGINE_ERROR", msg: err.Error()}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

func writeAPIError(w http.ResponseWriter, e *apiError) {
	writeError(w, e.status, e.msg, e.code)
}

// decode reads a JSON body into v, answering the request on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return false
	}
	return true
}

// acquireFast takes a fast worker slot when a pool is configured.
func (h *Handlers) acquireFast(w http.ResponseWriter, r *http.Request) (func(), bool) {
	if h.pool == nil {
		return func() {}, true
	}
	if err := h.pool.AcquireFast(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return nil, false
	}
	return h.pool.ReleaseFast, true
}

// parseBoard decodes a position ID. The empty ID is the start position.
func parseBoard(id string) (*engine.Board, *apiError) {
	if id == "" {
		return engine.NewBoard(), nil
	}
	b, err := engine.BoardFromPositionID(id)
	if err != nil {
		return nil, badRequest("INVALID_POSITION", "invalid position: %v", err)
	}
	if !b.IsValid() {
		return nil, badRequest("INVALID_POSITION", "invalid position: checker counts do not add up")
	}
	return b, nil
}

// checkDice accepts one to four values in range.
func checkDice(values []int) *apiError {
	if len(values) == 0 || len(values) > 4 {
		return badRequest("INVALID_DICE", "invalid dice: got %d values, want 1 to 4", len(values))
	}
	for _, v := range values {
		if v < 1 || v > dice.Sides {
			return badRequest("INVALID_DICE", "invalid dice: %d not in 1..%d", v, dice.Sides)
		}
	}
	return nil
}

func parsePosition(req PositionRequest) (*engine.Board, engine.Colour, *apiError) {
	b, apiErr := parseBoard(req.Position)
	if apiErr != nil {
		return nil, engine.NoColour, apiErr
	}
	c, err := engine.ParseColour(req.Colour)
	if err != nil {
		return nil, engine.NoColour, badRequest("INVALID_COLOUR", "invalid colour %q", req.Colour)
	}
	if apiErr := checkDice(req.Dice); apiErr != nil {
		return nil, engine.NoColour, apiErr
	}
	return b, c, nil
}

func (h *Handlers) moves(req PositionRequest) (*MovesResponse, *apiError) {
	b, c, apiErr := parsePosition(req)
	if apiErr != nil {
		return nil, apiErr
	}
	possible := b.PossibleMoves(c, req.Dice)
	moves := make([]MoveResponse, len(possible))
	for i, m := range possible {
		moves[i] = MoveResponse{Move: m.String(), Notation: m.Notation()}
	}
	return &MovesResponse{Position: b.PositionID(), Colour: c.String(), Dice: req.Dice, Moves: moves}, nil
}

func (h *Handlers) usable(req PositionRequest) (*UsableResponse, *apiError) {
	b, c, apiErr := parsePosition(req)
	if apiErr != nil {
		return nil, apiErr
	}
	n, err := h.chooser.Usage.MaxUsable(b, c, req.Dice)
	if err != nil {
		return nil, internalError(err)
	}
	return &UsableResponse{Position: b.PositionID(), Colour: c.String(), Dice: req.Dice, Usable: n}, nil
}

func (h *Handlers) turn(req TurnRequest) (*TurnResponse, *apiError) {
	b, c, apiErr := parsePosition(req.PositionRequest)
	if apiErr != nil {
		return nil, apiErr
	}
	t, err := engine.ParseTurn(req.Turn)
	if err != nil {
		return nil, badRequest("INVALID_TURN", "invalid turn: %v", err)
	}
	if err := h.chooser.Usage.TakeTurn(b, c, t, req.Dice); err != nil {
		if errors.Is(err, engine.ErrInvariant) {
			return nil, internalError(err)
		}
		return nil, &apiError{status: http.StatusUnprocessableEntity, code: "ILLEGAL_TURN", msg: err.Error()}
	}
	resp := &TurnResponse{Position: b.PositionID(), Turn: t.Notation(), Board: b.String()}
	if b.IsWinner(c) {
		resp.Winner = c.String()
	}
	return resp, nil
}

func (h *Handlers) choose(req ChooseRequest) (*ChooseResponse, *apiError) {
	b, c, apiErr := parsePosition(req.PositionRequest)
	if apiErr != nil {
		return nil, apiErr
	}
	ranked, err := h.chooser.Rank(c, b, req.Dice)
	if err != nil {
		return nil, internalError(err)
	}
	resp := &ChooseResponse{
		Position:   b.PositionID(),
		Colour:     c.String(),
		Dice:       req.Dice,
		NumTurns:   len(ranked),
		Candidates: []CandidateResponse{},
	}
	if len(ranked) == 0 {
		return resp, nil
	}
	resp.Turn = ranked[0].Turn.String()
	resp.Notation = ranked[0].Turn.Notation()

	limit := req.Limit
	if limit <= 0 {
		limit = defaultCandidates
	}
	limit = min(limit, len(ranked))
	for _, cand := range ranked[:limit] {
		resp.Candidates = append(resp.Candidates, CandidateResponse{
			Turn:     cand.Turn.String(),
			Notation: cand.Turn.Notation(),
			Score:    cand.Score,
		})
	}
	return resp, nil
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Storage: h.store != nil,
	}

	// Include pool stats if available
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}
	if cache := h.chooser.Usage.Cache; cache != nil {
		lookups, hits, adds := cache.Stats()
		resp.Cache = &CacheStats{Lookups: lookups, Hits: hits, Adds: adds, HitRate: cache.HitRate()}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Moves handles POST /api/moves
func (h *Handlers) Moves(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquireFast(w, r)
	if !ok {
		return
	}
	defer release()

	var req PositionRequest
	if !decode(w, r, &req) {
		return
	}
	resp, apiErr := h.moves(req)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Usable handles POST /api/usable
func (h *Handlers) Usable(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquireFast(w, r)
	if !ok {
		return
	}
	defer release()

	var req PositionRequest
	if !decode(w, r, &req) {
		return
	}
	resp, apiErr := h.usable(req)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Turn handles POST /api/turn
func (h *Handlers) Turn(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquireFast(w, r)
	if !ok {
		return
	}
	defer release()

	var req TurnRequest
	if !decode(w, r, &req) {
		return
	}
	resp, apiErr := h.turn(req)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Choose handles POST /api/choose
func (h *Handlers) Choose(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquireFast(w, r)
	if !ok {
		return
	}
	defer release()

	var req ChooseRequest
	if !decode(w, r, &req) {
		return
	}
	resp, apiErr := h.choose(req)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "game storage is not configured", "STORAGE_DISABLED")
		return false
	}
	return true
}

// newRecord builds a saved game from a create request.
func newRecord(req GameRequest) (*match.Record, *apiError) {
	b, apiErr := parseBoard(req.Position)
	if apiErr != nil {
		return nil, apiErr
	}
	rec := match.NewRecord(req.Name)
	b.SetName(req.Name)
	rec.Board = b

	if req.Current != "" {
		c, err := engine.ParseColour(req.Current)
		if err != nil {
			return nil, badRequest("INVALID_COLOUR", "invalid colour %q", req.Current)
		}
		rec.Current = c
	}
	if req.Dice != nil {
		if err := dice.ValidateValues(req.Dice); err != nil {
			return nil, badRequest("INVALID_DICE", "%v", err)
		}
		rec.Dice = append([]int(nil), req.Dice...)
	}
	for name, kind := range req.Players {
		c, err := engine.ParseColour(name)
		if err != nil {
			return nil, badRequest("INVALID_COLOUR", "invalid colour %q", name)
		}
		switch kind {
		case game.KindComputer, game.KindRandom, game.KindHuman:
		default:
			return nil, badRequest("INVALID_PLAYER", "unknown player kind %q", kind)
		}
		rec.Players[c] = kind
	}
	if w, ok := b.Winner(); ok {
		rec.Winner = w
	}
	return rec, nil
}

func gameResponse(g store.GameRecord, board string) GameResponse {
	return GameResponse{
		ID:        g.ID,
		Name:      g.Name,
		Position:  g.PositionID,
		Current:   g.Current,
		Winner:    g.Winner,
		Turns:     g.Turns,
		Board:     board,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func (h *Handlers) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_ID")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "game not found", "NOT_FOUND")
	default:
		h.log.WithError(err).Error("game storage failed")
		writeError(w, http.StatusInternalServerError, "storage error", "STORAGE_ERROR")
	}
}

// CreateGame handles POST /api/games
func (h *Handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	var req GameRequest
	if !decode(w, r, &req) {
		return
	}
	rec, apiErr := newRecord(req)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}
	gr, err := store.NewGameRecord(rec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_GAME")
		return
	}
	saved, err := h.store.SaveGame(r.Context(), gr)
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.log.WithFields(logrus.Fields{"id": saved.ID, "name": saved.Name}).Info("game created")
	writeJSON(w, http.StatusCreated, gameResponse(saved, rec.Board.String()))
}

// GetGame handles GET /api/games/{id}
func (h *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	g, err := h.store.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	rec, err := g.Match()
	if err != nil {
		h.log.WithError(err).WithField("id", g.ID).Error("stored game is unreadable")
		writeError(w, http.StatusInternalServerError, "stored game is unreadable", "STORAGE_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, gameResponse(g, rec.Board.String()))
}

// ListGames handles GET /api/games
func (h *Handlers) ListGames(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	limit := defaultGameList
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", "INVALID_LIMIT")
			return
		}
		limit = min(n, maxGameList)
	}
	games, err := h.store.ListGames(r.Context(), limit)
	if err != nil {
		h.storeError(w, err)
		return
	}
	resp := make([]GameResponse, len(games))
	for i, g := range games {
		resp[i] = gameResponse(g, "")
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteGame handles DELETE /api/games/{id}
func (h *Handlers) DeleteGame(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	if err := h.store.DeleteGame(r.Context(), r.PathValue("id")); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// kindParam reads a player kind query parameter.
func kindParam(s, def string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	return s
}
