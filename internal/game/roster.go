// internal/game/roster.go
package game

// Roster is the ordered player membership of a session. Order is join
// order and drives judge rotation. When the roster is non-empty exactly
// one member holds the judge role; an empty roster has no judge.
//
// Roster is guarded by the owning Session's mutex.
type Roster struct {
	order   []string
	players map[string]*Player
	judgeID string
}

// NewRoster returns an empty roster with no judge.
func NewRoster() *Roster {
	return &Roster{players: make(map[string]*Player)}
}

// Add appends a new player in join order. The first player to join
// becomes the judge. Returns false if the id is already on the roster.
func (r *Roster) Add(id, name string) bool {
	if _, exists := r.players[id]; exists {
		return false
	}
	r.players[id] = &Player{ID: id, Name: name, Hand: make([]string, 0, HandSize)}
	r.order = append(r.order, id)
	if len(r.order) == 1 {
		r.judgeID = id
	}
	return true
}

// Remove drops a player from the roster. If the removed player held the
// judge role, the role passes to the head of the remaining join order
// (rotation restarts from index 0 once the incumbent is gone). Returns
// false if the id was not on the roster.
func (r *Roster) Remove(id string) bool {
	if _, exists := r.players[id]; !exists {
		return false
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.judgeID == id {
		if len(r.order) == 0 {
			r.judgeID = ""
		} else {
			r.judgeID = r.order[0]
		}
	}
	return true
}

// RotateJudge advances the judge role to the next player in join order,
// wrapping past the end. A judge that has left the roster resets rotation
// to the head of the order.
func (r *Roster) RotateJudge() {
	if len(r.order) == 0 {
		r.judgeID = ""
		return
	}
	for i, pid := range r.order {
		if pid == r.judgeID {
			r.judgeID = r.order[(i+1)%len(r.order)]
			return
		}
	}
	r.judgeID = r.order[0]
}

// Judge returns the current judge's id, or "" if the roster is empty.
func (r *Roster) Judge() string { return r.judgeID }

// Len returns the roster size.
func (r *Roster) Len() int { return len(r.order) }

// Get looks up a player by id.
func (r *Roster) Get(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// IDs returns a copy of the player ids in join order.
func (r *Roster) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Players returns the players in join order.
func (r *Roster) Players() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// Leader returns the player with the highest score, breaking ties by
// join order (earliest join wins). ok is false on an empty roster.
func (r *Roster) Leader() (ScoreEntry, bool) {
	if len(r.order) == 0 {
		return ScoreEntry{}, false
	}
	best := r.players[r.order[0]]
	for _, id := range r.order[1:] {
		if p := r.players[id]; p.Score > best.Score {
			best = p
		}
	}
	return ScoreEntry{PlayerID: best.ID, Name: best.Name, Score: best.Score}, true
}
