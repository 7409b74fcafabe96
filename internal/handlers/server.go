// internal/handlers/server.go
package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/e-crumb/blanks/internal/cache"
	"github.com/e-crumb/blanks/internal/database"
	"github.com/e-crumb/blanks/internal/game"
)

// Server owns the session registry and the collaborators the transport
// wires into each session: connection fan-out, the Redis historian and
// the database event log. Historian, EventLog and Cards may be nil; the
// game runs fine without them.
type Server struct {
	Registry  *game.SessionRegistry
	Logger    *logrus.Logger
	Historian *cache.Historian
	EventLog  *database.EventLog
	Cards     *database.CustomCardStore

	conns *connectionSet
}

// NewServer builds a transport server around a registry.
func NewServer(registry *game.SessionRegistry, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{
		Registry: registry,
		Logger:   logger,
		conns:    newConnectionSet(),
	}
}

// wsMessage is the envelope for every websocket frame, inbound and
// outbound.
type wsMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Custom   bool   `json:"custom,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Mode     *bool  `json:"mode,omitempty"`
	Message  string `json:"message,omitempty"`
	Token    string `json:"token,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

// wireSession attaches the server's hooks to a freshly created session.
// Hooks run with the session mutex held, so anything that leaves memory
// is handed off to a goroutine.
func (srv *Server) wireSession(s *game.Session) {
	key := s.Key
	s.OnEvent = func(ev game.Event) {
		srv.conns.broadcast(srv.Logger, key, wsMessage{Type: string(ev.Type), PlayerID: ev.PlayerID, Payload: ev})
	}
	s.LogFn = func(actor, action string, payload map[string]any) {
		srv.recordAction(key, actor, action, payload)
	}
}

// recordAction fans one session mutation out to the historian queue and
// the database event log. Failures are logged and dropped; the game
// never blocks on its audit trail.
func (srv *Server) recordAction(sessionKey, actor, action string, payload map[string]any) {
	if srv.Historian == nil && srv.EventLog == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if srv.Historian != nil {
			if err := srv.Historian.Publish(ctx, cache.ActionRecord{
				SessionKey: sessionKey,
				ActorID:    actor,
				ActionType: action,
				Payload:    payload,
			}); err != nil {
				srv.Logger.Warnf("historian publish failed: %v", err)
			}
		}
		if srv.EventLog != nil {
			if err := srv.EventLog.Record(ctx, sessionKey, actor, action, payload); err != nil {
				srv.Logger.Warnf("event log insert failed: %v", err)
			}
		}
	}()
}
