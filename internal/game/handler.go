package game

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	store   *Store
	archive *ArchiveStore
	log     *zap.Logger
}

func NewHandler(store *Store, archive *ArchiveStore, log *zap.Logger) *Handler {
	return &Handler{store: store, archive: archive, log: log}
}

const requestTimeout = 3 * time.Second

// GET /api/game
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.State())
}

type addPlayerRequest struct {
	Name string `json:"name"`
}

// POST /api/game/players
func (h *Handler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req addPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	state, err := h.store.AddPlayer(ctx, req.Name)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

type updatePlayerRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// PATCH /api/game/players/{id}
func (h *Handler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	state, err := h.store.UpdatePlayer(ctx, id, req.Name, req.Color)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DELETE /api/game/players/{id}
func (h *Handler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	state, err := h.store.RemovePlayer(ctx, id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// PUT /api/game/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var patch SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	state, err := h.store.UpdateSettings(ctx, patch)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type startGameRequest struct {
	TargetScore    *int   `json:"targetScore"`
	Rule           string `json:"rule"`
	ScoreDirection string `json:"scoreDirection"`
}

// POST /api/game/start
func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req startGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	state, err := h.store.StartGame(ctx, StartOptions{
		TargetScore:    req.TargetScore,
		Rule:           Rule(req.Rule),
		ScoreDirection: ScoreDirection(req.ScoreDirection),
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type submitRoundRequest struct {
	WinnerID int64                     `json:"winnerId"`
	Tiles    map[string]map[string]int `json:"tiles"`
	Manual   map[string]string         `json:"manual"`
	Inputs   map[string]string         `json:"inputs"`
}

type roundResponse struct {
	State  GameState `json:"state"`
	Winner *Player   `json:"winner,omitempty"`
}

// POST /api/game/rounds
func (h *Handler) SubmitRound(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req submitRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	state, err := h.store.SubmitRound(ctx, RoundInput{
		WinnerID: req.WinnerID,
		Tiles:    tilesByPlayer(req.Tiles),
		Manual:   inputsByPlayer(req.Manual),
		Inputs:   inputsByPlayer(req.Inputs),
	})
	if err != nil {
		if errors.Is(err, ErrNoWinner) {
			writeError(w, http.StatusBadRequest, "no-winner-selected")
			return
		}
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := roundResponse{State: state}
	if winner, ok := FindWinner(state.Players, state.Settings); ok {
		resp.Winner = &winner
	}
	writeJSON(w, http.StatusOK, resp)
}

// DELETE /api/game/rounds/{id}
func (h *Handler) DeleteRound(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	state, found := h.store.DeleteRound(ctx, id)
	if !found {
		writeError(w, http.StatusNotFound, "round not found")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// POST /api/game/undo
func (h *Handler) UndoRound(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state, found := h.store.UndoLastRound(ctx)
	if !found {
		writeError(w, http.StatusConflict, "no rounds to undo")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// POST /api/game/end
func (h *Handler) EndGame(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state := h.store.State()
	if len(state.Rounds) > 0 {
		entry := h.archive.Archive(ctx, state)
		h.log.Info("game archived", zap.Int64("entry", entry.ID), zap.Int("rounds", len(state.Rounds)))
	}
	writeJSON(w, http.StatusOK, h.store.Reset(ctx))
}

// GET /api/game/players/{id}/stats
func (h *Handler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	state := h.store.State()
	for _, p := range state.Players {
		if p.ID == id {
			writeJSON(w, http.StatusOK, PlayerStats(p, state.Rounds))
			return
		}
	}
	writeError(w, http.StatusNotFound, "player not found")
}

// GET /api/game/leaderboard
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	state := h.store.State()
	players := SortedPlayers(state.Players, state.Rounds, state.Settings.SortByScore, state.Settings.ScoreDirection)
	writeJSON(w, http.StatusOK, players)
}

// GET /api/archive
func (h *Handler) GetArchive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	writeJSON(w, http.StatusOK, h.archive.Entries(ctx))
}

// DELETE /api/archive/{id}
func (h *Handler) DeleteArchiveEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	h.archive.Delete(ctx, id)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/archive/last-config
func (h *Handler) LastGameConfig(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cfg, ok := h.archive.LastGameConfig(ctx)
	if !ok {
		writeError(w, http.StatusNotFound, "archive is empty")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// tilesByPlayer converts the wire shape (object keys are strings) into
// id-keyed tile selections. Unparseable keys are dropped.
func tilesByPlayer(in map[string]map[string]int) map[int64]TileSelection {
	out := make(map[int64]TileSelection, len(in))
	for key, tiles := range in {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		sel := make(TileSelection, len(tiles))
		for value, count := range tiles {
			v, err := strconv.Atoi(value)
			if err != nil {
				continue
			}
			sel[v] = count
		}
		out[id] = sel
	}
	return out
}

func inputsByPlayer(in map[string]string) map[int64]string {
	out := make(map[int64]string, len(in))
	for key, val := range in {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		out[id] = val
	}
	return out
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrGameActive),
		errors.Is(err, ErrNoActiveGame),
		errors.Is(err, ErrPlayerLimit),
		errors.Is(err, ErrMinPlayers):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// Helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
