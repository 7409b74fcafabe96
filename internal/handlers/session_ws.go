// internal/handlers/session_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/e-crumb/blanks/internal/auth"
	"github.com/e-crumb/blanks/internal/game"
)

// SessionWSHandler upgrades the connection for a session at
// /session/ws/{key}. Identity comes from a resume token when presented,
// otherwise a fresh guest id is minted and a token for it is sent in the
// welcome frame. The player joins the roster on connect and leaves it on
// disconnect unless they reconnect with their token first.
func SessionWSHandler(logger *logrus.Logger, srv *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/session/ws/")
		if key == "" || strings.Contains(key, "/") {
			http.Error(w, "missing session key in path (/session/ws/{key})", http.StatusBadRequest)
			return
		}
		s, ok := srv.Registry.Get(key)
		if !ok {
			http.Error(w, game.ErrNoSession.Error(), http.StatusNotFound)
			return
		}

		playerID, name, resumed := resolveIdentity(r)
		if name == "" {
			http.Error(w, "missing name query parameter", http.StatusBadRequest)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"blanks"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("websocket accept failed for session %s: %v", key, err)
			return
		}
		if c.Subprotocol() != "blanks" {
			c.Close(websocket.StatusPolicyViolation, "client must use the 'blanks' subprotocol")
			return
		}
		logger.WithFields(logrus.Fields{"session": key, "player": playerID}).Info("websocket connected")

		ctx, cancel := context.WithCancel(r.Context())
		conn := &playerConn{
			PlayerID: playerID,
			Name:     name,
			Out:      make(chan []byte, 32),
			Cancel:   cancel,
		}
		srv.conns.add(key, conn)

		joined := s.AddPlayer(playerID, name)
		if !joined && !resumed {
			// A brand-new guest id colliding with the roster should not happen;
			// treat it as a rejected join.
			srv.conns.remove(key, conn)
			c.Close(websocket.StatusPolicyViolation, "already in the session")
			return
		}

		token, err := auth.CreateToken(playerID, name)
		if err != nil {
			logger.Warnf("token creation failed for %s: %v", playerID, err)
		}
		conn.send(logger, wsMessage{Type: "welcome", PlayerID: playerID, Token: token, Payload: map[string]any{
			"judge":    s.Judge(),
			"players":  s.Scores(),
			"resumed":  resumed && !joined,
			"handSize": game.HandSize,
		}})

		// Write pump.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case data, ok := <-conn.Out:
					if !ok {
						return
					}
					if err := c.Write(ctx, websocket.MessageText, data); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		srv.readLoop(ctx, c, s, conn)

		srv.conns.remove(key, conn)
		// Only drop from the roster if this connection was still the player's
		// active one; a resume replaced it otherwise.
		if !connReplaced(srv, key, conn.PlayerID) {
			s.RemovePlayer(conn.PlayerID)
		}
		cancel()
		c.Close(websocket.StatusNormalClosure, "bye")
		logger.WithFields(logrus.Fields{"session": key, "player": playerID}).Info("websocket disconnected")
	}
}

// resolveIdentity returns the player identity for a new connection: the
// token's identity when one verifies, otherwise a fresh guest id with the
// name query parameter.
func resolveIdentity(r *http.Request) (playerID, name string, resumed bool) {
	if token := r.URL.Query().Get("token"); token != "" {
		if id, tokenName, err := auth.VerifyToken(token); err == nil {
			return id, tokenName, true
		}
	}
	return uuid.New().String(), r.URL.Query().Get("name"), false
}

func connReplaced(srv *Server, key, playerID string) bool {
	srv.conns.mu.Lock()
	defer srv.conns.mu.Unlock()
	_, ok := srv.conns.conns[key][playerID]
	return ok
}

// readLoop dispatches inbound frames to session operations until the
// connection drops or the player leaves.
func (srv *Server) readLoop(ctx context.Context, c *websocket.Conn, s *game.Session, conn *playerConn) {
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.send(srv.Logger, wsMessage{Type: "error", Message: "invalid message"})
			continue
		}
		if msg.Type == "leave" {
			return
		}
		srv.dispatch(s, conn, msg)
	}
}

// dispatch runs one session operation and replies to the caller. Session
// events reach everyone through the OnEvent hook; replies here are the
// private (DM-equivalent) channel.
func (srv *Server) dispatch(s *game.Session, conn *playerConn, msg wsMessage) {
	switch msg.Type {
	case "draw":
		res, err := s.DrawToHand(conn.PlayerID)
		if err != nil {
			srv.replyError(conn, err)
			return
		}
		conn.send(srv.Logger, wsMessage{Type: "hand", Payload: res})
		if res.PoolEmpty {
			conn.send(srv.Logger, wsMessage{Type: "info", Message: "no answer cards remain in the deck"})
		}

	case "start_round":
		res, err := s.StartRound()
		if err != nil {
			srv.replyError(conn, err)
			return
		}
		conn.send(srv.Logger, wsMessage{Type: "round_started", Payload: res})

	case "submit":
		status, err := s.Submit(conn.PlayerID, msg.Text, msg.Custom)
		if err != nil {
			srv.replyError(conn, err)
			return
		}
		conn.send(srv.Logger, wsMessage{Type: "submitted", Payload: map[string]any{"status": status}})
		if status == game.SubmitAllIn {
			srv.conns.sendTo(srv.Logger, s.Key, s.Judge(), wsMessage{
				Type:    "judge_pick",
				Payload: s.PlayedCards(),
			})
		}

	case "select_winner":
		res, err := s.SelectWinner(conn.PlayerID, msg.PlayerID)
		if err != nil {
			srv.replyError(conn, err)
			return
		}
		// Refreshed hands go out privately, like the original's DMs.
		for playerID := range res.Drawn {
			if hand, err := s.Hand(playerID); err == nil {
				srv.conns.sendTo(srv.Logger, s.Key, playerID, wsMessage{Type: "hand", Payload: game.DrawResult{
					Drawn: res.Drawn[playerID],
					Hand:  hand,
				}})
			}
		}

	case "set_content_mode":
		if msg.Mode == nil {
			conn.send(srv.Logger, wsMessage{Type: "error", Message: "mode is required"})
			return
		}
		report, changed := s.SetContentMode(*msg.Mode)
		if !changed {
			conn.send(srv.Logger, wsMessage{Type: "info", Message: "content mode unchanged"})
			return
		}
		conn.send(srv.Logger, wsMessage{Type: "content_mode", Payload: report})
		for _, playerID := range append(report.Emptied, keys(report.Refilled)...) {
			if hand, err := s.Hand(playerID); err == nil {
				srv.conns.sendTo(srv.Logger, s.Key, playerID, wsMessage{Type: "hand", Payload: game.DrawResult{Hand: hand}})
			}
		}

	case "played_cards":
		if conn.PlayerID != s.Judge() {
			srv.replyError(conn, game.ErrNotJudge)
			return
		}
		conn.send(srv.Logger, wsMessage{Type: "judge_pick", Payload: s.PlayedCards()})

	case "scores":
		leader, _ := s.Leader()
		conn.send(srv.Logger, wsMessage{Type: "scores", Payload: map[string]any{
			"scores": s.Scores(),
			"leader": leader,
		}})

	default:
		conn.send(srv.Logger, wsMessage{Type: "error", Message: "unknown message type"})
	}
}

// replyError maps a session error onto the caller's private channel. All
// session errors are recoverable, so none of them close the connection.
func (srv *Server) replyError(conn *playerConn, err error) {
	msg := "something went wrong"
	for _, known := range []error{
		game.ErrNotAPlayer, game.ErrJudgeCannotSubmit, game.ErrRoundAlreadyActive,
		game.ErrRoundNotOpen, game.ErrRoundNotJudging, game.ErrNotJudge,
		game.ErrNoSuchSubmission, game.ErrNoPromptsLeft, game.ErrCardNotInHand,
	} {
		if errors.Is(err, known) {
			msg = known.Error()
			break
		}
	}
	conn.send(srv.Logger, wsMessage{Type: "error", Message: msg})
}

func keys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
