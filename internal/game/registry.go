// internal/game/registry.go
package game

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// SessionRegistry maps channel keys to live sessions and is the only
// component that creates or destroys them. Its own mutex guards the maps
// and is never held while a session operation runs, so one busy session
// cannot block creation of another; it also maintains a playerID ->
// sessionKey index so commands arriving outside a channel (private
// messages) resolve without scanning every session.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byPlayer map[string]string

	provider ContentProvider
	logger   *logrus.Logger
}

// NewSessionRegistry builds an empty registry. All sessions it creates
// share the provider and logger.
func NewSessionRegistry(provider ContentProvider, logger *logrus.Logger) *SessionRegistry {
	if logger == nil {
		logger = logrus.New()
	}
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		byPlayer: make(map[string]string),
		provider: provider,
		logger:   logger,
	}
}

// Create constructs a session for the key with an empty roster and a
// fresh deck under the given content mode. Fails with ErrAlreadyActive if
// the key is taken.
func (r *SessionRegistry) Create(key string, allowSensitive bool) (*Session, error) {
	r.mu.Lock()
	if _, exists := r.sessions[key]; exists {
		r.mu.Unlock()
		return nil, ErrAlreadyActive
	}
	r.mu.Unlock()

	// Deck construction hits the provider; done outside the registry lock.
	s, err := NewSession(key, r.provider, allowSensitive, r.logger)
	if err != nil {
		return nil, err
	}
	s.onRosterChange = func(playerID string, joined bool) {
		r.trackPlayer(key, playerID, joined)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[key]; exists {
		return nil, ErrAlreadyActive
	}
	r.sessions[key] = s
	r.logger.WithField("session", key).Info("session created")
	return s, nil
}

// Get is a pure lookup with no side effects.
func (r *SessionRegistry) Get(key string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// End removes and discards the session, returning whether one existed.
func (r *SessionRegistry) End(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[key]; !ok {
		return false
	}
	delete(r.sessions, key)
	for playerID, sk := range r.byPlayer {
		if sk == key {
			delete(r.byPlayer, playerID)
		}
	}
	r.logger.WithField("session", key).Info("session ended")
	return true
}

// FindByPlayer resolves the session a player has joined, if any.
func (r *SessionRegistry) FindByPlayer(playerID string) (*Session, bool) {
	r.mu.Lock()
	key, ok := r.byPlayer[playerID]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	s, ok := r.sessions[key]
	r.mu.Unlock()
	return s, ok
}

// Len returns the number of active sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) trackPlayer(key, playerID string, joined bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if joined {
		r.byPlayer[playerID] = key
	} else if r.byPlayer[playerID] == key {
		delete(r.byPlayer, playerID)
	}
}
