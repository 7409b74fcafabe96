// internal/handlers/session_http.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/e-crumb/blanks/internal/database"
	"github.com/e-crumb/blanks/internal/game"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// CreateSessionHandler starts a new session for a channel key.
// POST {"key": "...", "allowSensitive": bool, "creatorId": "..."}.
func (srv *Server) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req struct {
		Key            string `json:"key"`
		AllowSensitive bool   `json:"allowSensitive"`
		CreatorID      string `json:"creatorId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := srv.Registry.Create(req.Key, req.AllowSensitive)
	if err != nil {
		if errors.Is(err, game.ErrAlreadyActive) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		srv.Logger.Errorf("session create failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	srv.wireSession(s)

	srv.recordAction(req.Key, req.CreatorID, "session_start", nil)
	writeJSON(w, http.StatusCreated, map[string]any{
		"key":            req.Key,
		"allowSensitive": req.AllowSensitive,
	})
}

// EndSessionHandler tears a session down and disconnects its players.
// POST {"key": "..."}. The response carries the final leader, ties broken
// by join order.
func (srv *Server) EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var leader *game.ScoreEntry
	if s, ok := srv.Registry.Get(req.Key); ok {
		if entry, ok := s.Leader(); ok {
			leader = &entry
		}
	}
	if !srv.Registry.End(req.Key) {
		writeError(w, http.StatusNotFound, game.ErrNoSession.Error())
		return
	}
	srv.conns.closeSession(req.Key)
	srv.recordAction(req.Key, "", "session_end", nil)

	writeJSON(w, http.StatusOK, map[string]any{"key": req.Key, "winner": leader})
}

// ScoresHandler returns the scoreboard for a session.
// GET ?key=...
func (srv *Server) ScoresHandler(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	s, ok := srv.Registry.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, game.ErrNoSession.Error())
		return
	}
	leader, _ := s.Leader()
	writeJSON(w, http.StatusOK, map[string]any{
		"scores": s.Scores(),
		"leader": leader,
		"judge":  s.Judge(),
		"phase":  s.Phase(),
	})
}

// SubmitCardHandler files a player-written card for approval.
// POST {"type": "prompt"|"answer", "text": "...", "nsfw": bool, "playerId": "..."}.
func (srv *Server) SubmitCardHandler(w http.ResponseWriter, r *http.Request) {
	if srv.Cards == nil {
		writeError(w, http.StatusServiceUnavailable, "custom cards are not enabled")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req struct {
		Type     game.CardType `json:"type"`
		Text     string        `json:"text"`
		NSFW     bool          `json:"nsfw"`
		PlayerID string        `json:"playerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type != game.CardPrompt && req.Type != game.CardAnswer {
		writeError(w, http.StatusBadRequest, "type must be prompt or answer")
		return
	}
	if err := srv.Cards.Submit(r.Context(), req.Type, req.Text, req.NSFW, req.PlayerID); err != nil {
		srv.Logger.Warnf("custom card submit failed: %v", err)
		writeError(w, http.StatusConflict, "card could not be submitted")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "pending approval"})
}

// PendingCardsHandler lists cards awaiting approval.
func (srv *Server) PendingCardsHandler(w http.ResponseWriter, r *http.Request) {
	if srv.Cards == nil {
		writeError(w, http.StatusServiceUnavailable, "custom cards are not enabled")
		return
	}
	pending, err := srv.Cards.Pending(r.Context())
	if err != nil {
		srv.Logger.Errorf("pending card list failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not list pending cards")
		return
	}
	if pending == nil {
		pending = []database.PendingCard{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

// ApproveCardHandler approves a pending custom card.
// POST {"id": 123}.
func (srv *Server) ApproveCardHandler(w http.ResponseWriter, r *http.Request) {
	if srv.Cards == nil {
		writeError(w, http.StatusServiceUnavailable, "custom cards are not enabled")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ok, err := srv.Cards.Approve(r.Context(), req.ID)
	if err != nil {
		srv.Logger.Errorf("custom card approve failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not approve card")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no pending card with that id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}
