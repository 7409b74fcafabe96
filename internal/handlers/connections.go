// internal/handlers/connections.go
package handlers

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// playerConn is one player's live websocket presence in a session.
// Writes go through Out; the per-connection write pump drains it.
type playerConn struct {
	PlayerID string
	Name     string
	Out      chan []byte
	Cancel   func()
}

// send marshals v onto the connection's outbound channel without
// blocking. A full or closed channel drops the message.
func (c *playerConn) send(logger *logrus.Logger, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warnf("marshal outbound message for %s: %v", c.PlayerID, err)
		return
	}
	select {
	case c.Out <- data:
	default:
		logger.Warnf("outbound channel for player %s full, dropping message", c.PlayerID)
	}
}

// connectionSet tracks live connections per session key.
type connectionSet struct {
	mu    sync.Mutex
	conns map[string]map[string]*playerConn
}

func newConnectionSet() *connectionSet {
	return &connectionSet{conns: make(map[string]map[string]*playerConn)}
}

func (cs *connectionSet) add(sessionKey string, conn *playerConn) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.conns[sessionKey] == nil {
		cs.conns[sessionKey] = make(map[string]*playerConn)
	}
	// A resumed identity replaces its previous connection.
	if old, ok := cs.conns[sessionKey][conn.PlayerID]; ok {
		old.Cancel()
	}
	cs.conns[sessionKey][conn.PlayerID] = conn
}

// remove drops the connection only if it is still the player's active
// one; a resumed connection that replaced it stays registered.
func (cs *connectionSet) remove(sessionKey string, conn *playerConn) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if set, ok := cs.conns[sessionKey]; ok {
		if set[conn.PlayerID] == conn {
			delete(set, conn.PlayerID)
		}
		if len(set) == 0 {
			delete(cs.conns, sessionKey)
		}
	}
}

// broadcast sends v to every connection in the session.
func (cs *connectionSet) broadcast(logger *logrus.Logger, sessionKey string, v any) {
	cs.mu.Lock()
	targets := make([]*playerConn, 0, len(cs.conns[sessionKey]))
	for _, conn := range cs.conns[sessionKey] {
		targets = append(targets, conn)
	}
	cs.mu.Unlock()

	for _, conn := range targets {
		conn.send(logger, v)
	}
}

// sendTo sends v to a single player, the DM-channel equivalent.
func (cs *connectionSet) sendTo(logger *logrus.Logger, sessionKey, playerID string, v any) {
	cs.mu.Lock()
	conn, ok := cs.conns[sessionKey][playerID]
	cs.mu.Unlock()
	if ok {
		conn.send(logger, v)
	}
}

// closeSession cancels every connection in the session.
func (cs *connectionSet) closeSession(sessionKey string) {
	cs.mu.Lock()
	set := cs.conns[sessionKey]
	delete(cs.conns, sessionKey)
	cs.mu.Unlock()

	for _, conn := range set {
		conn.Cancel()
	}
}
