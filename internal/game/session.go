// internal/game/session.go
package game

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// EventType identifies a session notification for the transport layer.
type EventType string

const (
	EventPlayerJoined       EventType = "player_joined"
	EventPlayerLeft         EventType = "player_left"
	EventRoundStarted       EventType = "round_started"
	EventAllAnswersIn       EventType = "all_answers_in"
	EventWinnerSelected     EventType = "winner_selected"
	EventJudgeChanged       EventType = "judge_changed"
	EventRoundDiscarded     EventType = "round_discarded"
	EventContentModeChanged EventType = "content_mode_changed"
)

// Event is a broadcast-level notification emitted through Session.OnEvent.
type Event struct {
	Type     EventType      `json:"type"`
	PlayerID string         `json:"playerId,omitempty"`
	Card     *Card          `json:"card,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// SubmitStatus is the tagged outcome of a successful Submit call.
type SubmitStatus string

const (
	// SubmitAccepted means the answer was recorded and the round is still
	// waiting on other players.
	SubmitAccepted SubmitStatus = "accepted"
	// SubmitAllIn means this answer completed the set and the round moved
	// to judging; the caller should notify the judge.
	SubmitAllIn SubmitStatus = "all_in"
)

// DrawResult reports a hand top-up.
type DrawResult struct {
	Drawn int      `json:"drawn"`
	Hand  []string `json:"hand"`
	// PoolEmpty is set when the hand is still short of HandSize because the
	// answer pool ran dry. Not an error; the caller should report that no
	// cards remain.
	PoolEmpty bool `json:"poolEmpty"`
}

// StartResult reports a newly opened round.
type StartResult struct {
	Prompt Card   `json:"prompt"`
	Judge  string `json:"judge"`
	// AllIn is set when the round closed immediately because no non-judge
	// players exist (single-player roster).
	AllIn bool `json:"allIn"`
}

// WinnerResult reports a completed round.
type WinnerResult struct {
	WinnerID   string         `json:"winnerId"`
	WinnerName string         `json:"winnerName"`
	Answer     Submission     `json:"answer"`
	Score      int            `json:"score"`
	NextJudge  string         `json:"nextJudge"`
	Drawn      map[string]int `json:"drawn"`
}

// ReconcileReport describes what a content-mode change did to in-flight
// state.
type ReconcileReport struct {
	AllowSensitive  bool           `json:"allowSensitive"`
	DeckRebuilt     bool           `json:"deckRebuilt"`
	PromptDiscarded bool           `json:"promptDiscarded"`
	Refilled        map[string]int `json:"refilled,omitempty"`
	Emptied         []string       `json:"emptied,omitempty"`
	DroppedAnswers  []string       `json:"droppedAnswers,omitempty"`
}

// PlayedCard is one row of the judge's selection view.
type PlayedCard struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Text     string `json:"text"`
}

// Session owns one channel's game: roster, deck and the current round.
// Every state-mutating operation serializes on mu; there is no
// concurrency within a round's logical steps, so two racing submissions
// can never both observe "not yet all played".
type Session struct {
	Key string

	mu       sync.Mutex
	roster   *Roster
	deck     *Deck
	round    *Round
	provider ContentProvider

	allowSensitive bool
	log            *logrus.Entry

	// OnEvent, if set, receives broadcast-level notifications. It is called
	// with the session mutex held and must not call back into the session.
	OnEvent func(ev Event)

	// LogFn, if set, receives every state mutation for the historian and
	// event log. Same reentrancy rule as OnEvent.
	LogFn func(actor, action string, payload map[string]any)

	// onRosterChange is set by the registry to keep its player index
	// consistent with joins and leaves.
	onRosterChange func(playerID string, joined bool)
}

// NewSession builds a session with an empty roster and a freshly dealt
// deck for the given content mode.
func NewSession(key string, provider ContentProvider, allowSensitive bool, logger *logrus.Logger) (*Session, error) {
	if logger == nil {
		logger = logrus.New()
	}
	deck, err := NewDeck(provider, allowSensitive)
	if err != nil {
		return nil, err
	}
	return &Session{
		Key:            key,
		roster:         NewRoster(),
		deck:           deck,
		round:          newRound(),
		provider:       provider,
		allowSensitive: allowSensitive,
		log:            logger.WithField("session", key),
	}, nil
}

func (s *Session) fireEvent(ev Event) {
	if s.OnEvent != nil {
		s.OnEvent(ev)
	}
}

func (s *Session) logAction(actor, action string, payload map[string]any) {
	if s.LogFn != nil {
		s.LogFn(actor, action, payload)
	}
}

// AddPlayer appends a player to the roster. The first player to join
// becomes the judge. Returns false if the id is already present.
func (s *Session) AddPlayer(id, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.roster.Add(id, name) {
		return false
	}
	s.log.WithField("player", id).Infof("%s joined", name)
	s.logAction(id, "player_join", map[string]any{"name": name})
	s.fireEvent(Event{Type: EventPlayerJoined, PlayerID: id, Payload: map[string]any{"name": name}})
	if s.onRosterChange != nil {
		s.onRosterChange(id, true)
	}
	return true
}

// RemovePlayer drops a player, their pending submission, and, if they
// held it, passes the judge role along. Removing the last submitter a
// round was waiting on can close the round. Returns false if the id was
// not on the roster.
func (s *Session) RemovePlayer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasJudge := s.roster.Judge() == id
	if !s.roster.Remove(id) {
		return false
	}
	s.round.dropSubmission(id)

	if s.roster.Len() == 0 {
		s.round.reset()
	} else if s.round.active() {
		if wasJudge {
			// The role moved to a remaining player; the judge must never hold
			// a submission in the round they score.
			s.round.dropSubmission(s.roster.Judge())
			s.fireEvent(Event{Type: EventJudgeChanged, PlayerID: s.roster.Judge()})
		}
		if s.round.closeIfComplete(s.roster.Len() - 1) {
			s.fireEvent(Event{Type: EventAllAnswersIn, PlayerID: s.roster.Judge()})
		}
	}

	s.log.WithField("player", id).Info("player left")
	s.logAction(id, "player_leave", nil)
	s.fireEvent(Event{Type: EventPlayerLeft, PlayerID: id})
	if s.onRosterChange != nil {
		s.onRosterChange(id, false)
	}
	return true
}

// DrawToHand tops the player's hand up to HandSize from the answer pool.
func (s *Session) DrawToHand(playerID string) (DrawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.roster.Get(playerID)
	if !ok {
		return DrawResult{}, ErrNotAPlayer
	}
	drawn := s.deck.DrawToHand(p)
	res := DrawResult{
		Drawn:     drawn,
		Hand:      append([]string(nil), p.Hand...),
		PoolEmpty: len(p.Hand) < HandSize && s.deck.AnswerCount() == 0,
	}
	s.logAction(playerID, "cards_drawn", map[string]any{"count": drawn})
	return res, nil
}

// StartRound draws a prompt and opens the round for submissions. With a
// single-player roster the round closes immediately with zero candidates.
func (s *Session) StartRound() (StartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round.active() {
		return StartResult{}, ErrRoundAlreadyActive
	}
	prompt, ok := s.deck.DrawPrompt()
	if !ok {
		return StartResult{}, ErrNoPromptsLeft
	}
	if err := s.round.begin(prompt); err != nil {
		return StartResult{}, err
	}

	res := StartResult{Prompt: prompt, Judge: s.roster.Judge()}
	s.log.WithField("judge", res.Judge).Infof("round started: %q", prompt.Text)
	s.logAction(res.Judge, "round_start", map[string]any{"prompt": prompt.Text})
	s.fireEvent(Event{Type: EventRoundStarted, PlayerID: res.Judge, Card: &prompt})

	active := s.roster.Len() - 1
	if active < 0 {
		active = 0
	}
	if s.round.closeIfComplete(active) {
		res.AllIn = true
		s.fireEvent(Event{Type: EventAllAnswersIn, PlayerID: res.Judge})
	}
	return res, nil
}

// Submit records a player's answer. A non-custom answer must name a card
// in the player's hand and consumes it; resubmission overwrites the prior
// entry without returning the earlier card. When the final answer lands
// the round moves to judging and SubmitAllIn is returned.
func (s *Session) Submit(playerID, text string, custom bool) (SubmitStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.roster.Get(playerID)
	if !ok {
		return "", ErrNotAPlayer
	}
	if playerID == s.roster.Judge() {
		return "", ErrJudgeCannotSubmit
	}
	if s.round.Phase != PhaseSubmitting {
		return "", ErrRoundNotOpen
	}
	if !custom {
		if !p.removeCard(text) {
			return "", ErrCardNotInHand
		}
	}
	if err := s.round.submit(playerID, Submission{Text: text, Custom: custom}); err != nil {
		return "", err
	}

	s.logAction(playerID, "card_play", map[string]any{"custom": custom})
	if s.round.closeIfComplete(s.roster.Len() - 1) {
		s.fireEvent(Event{Type: EventAllAnswersIn, PlayerID: s.roster.Judge()})
		return SubmitAllIn, nil
	}
	return SubmitAccepted, nil
}

// SelectWinner lets the judge award the round. The winner scores a point,
// all non-judge hands are topped back up, the judge role rotates by join
// order, and the round returns to Idle.
func (s *Session) SelectWinner(judgeID, playerID string) (WinnerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round.Phase != PhaseJudging {
		return WinnerResult{}, ErrRoundNotJudging
	}
	if judgeID != s.roster.Judge() {
		return WinnerResult{}, ErrNotJudge
	}
	sub, ok := s.round.Submissions[playerID]
	if !ok {
		return WinnerResult{}, ErrNoSuchSubmission
	}
	winner, ok := s.roster.Get(playerID)
	if !ok {
		return WinnerResult{}, ErrNoSuchSubmission
	}

	winner.Score++
	drawn := make(map[string]int)
	judge := s.roster.Judge()
	for _, p := range s.roster.Players() {
		if p.ID == judge {
			continue
		}
		if n := s.deck.DrawToHand(p); n > 0 {
			drawn[p.ID] = n
		}
	}
	s.roster.RotateJudge()
	s.round.reset()

	res := WinnerResult{
		WinnerID:   winner.ID,
		WinnerName: winner.Name,
		Answer:     sub,
		Score:      winner.Score,
		NextJudge:  s.roster.Judge(),
		Drawn:      drawn,
	}
	s.log.WithField("winner", winner.ID).Infof("%s won the round (score %d)", winner.Name, winner.Score)
	s.logAction(judgeID, "winner_selected", map[string]any{"winner": winner.ID, "score": winner.Score})
	s.fireEvent(Event{Type: EventWinnerSelected, PlayerID: winner.ID, Payload: map[string]any{
		"name": winner.Name, "score": winner.Score, "answer": sub.Text,
	}})
	s.fireEvent(Event{Type: EventJudgeChanged, PlayerID: res.NextJudge})
	return res, nil
}

// SetContentMode flips the sensitive-content flag and reconciles all
// in-flight state against the new pool in one atomic pass: the deck is
// rebuilt excluding cards still in play, hands are filtered and topped
// back up, an invalidated prompt discards the round, and non-custom
// submissions that no longer exist in the pool are dropped. A per-player
// provider failure empties that player's hand and reconciliation moves
// on. Returns false with no side effects when the mode is unchanged.
func (s *Session) SetContentMode(allowSensitive bool) (ReconcileReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if allowSensitive == s.allowSensitive {
		return ReconcileReport{}, false
	}
	s.allowSensitive = allowSensitive
	report := ReconcileReport{AllowSensitive: allowSensitive, Refilled: make(map[string]int)}

	inPlay := make(map[string]struct{})
	for _, p := range s.roster.Players() {
		for _, text := range p.Hand {
			inPlay[text] = struct{}{}
		}
	}
	if s.round.active() {
		inPlay[s.round.Prompt.Text] = struct{}{}
		for _, sub := range s.round.Submissions {
			if !sub.Custom {
				inPlay[sub.Text] = struct{}{}
			}
		}
	}

	if err := s.deck.Rebuild(s.provider, allowSensitive, inPlay); err != nil {
		s.log.WithError(err).Warn("deck rebuild failed during mode change")
	} else {
		report.DeckRebuilt = true
	}

	for _, p := range s.roster.Players() {
		valid, err := s.provider.FilterValid(p.Hand, CardAnswer, allowSensitive)
		if err != nil {
			s.log.WithError(err).WithField("player", p.ID).Warn("hand filter failed, emptying hand")
			p.Hand = p.Hand[:0]
			report.Emptied = append(report.Emptied, p.ID)
			continue
		}
		dropped := len(p.Hand) - len(valid)
		p.Hand = append(p.Hand[:0], valid...)
		if dropped > 0 {
			if n := s.deck.DrawToHand(p); n > 0 {
				report.Refilled[p.ID] = n
			}
		}
	}

	if s.round.active() {
		valid, err := s.provider.FilterValid([]string{s.round.Prompt.Text}, CardPrompt, allowSensitive)
		if err != nil || len(valid) == 0 {
			s.round.reset()
			report.PromptDiscarded = true
			s.fireEvent(Event{Type: EventRoundDiscarded})
		}
	}
	if s.round.active() {
		for playerID, sub := range s.round.Submissions {
			if sub.Custom {
				continue
			}
			valid, err := s.provider.FilterValid([]string{sub.Text}, CardAnswer, allowSensitive)
			if err != nil || len(valid) == 0 {
				s.round.dropSubmission(playerID)
				report.DroppedAnswers = append(report.DroppedAnswers, playerID)
			}
		}
	}

	s.log.WithField("sensitive", allowSensitive).Info("content mode changed")
	s.logAction("", "content_mode_change", map[string]any{"sensitive": allowSensitive})
	s.fireEvent(Event{Type: EventContentModeChanged, Payload: map[string]any{"sensitive": allowSensitive}})
	return report, true
}

// Scores returns every player's score in join order.
func (s *Session) Scores() []ScoreEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ScoreEntry, 0, s.roster.Len())
	for _, p := range s.roster.Players() {
		out = append(out, ScoreEntry{PlayerID: p.ID, Name: p.Name, Score: p.Score})
	}
	return out
}

// Leader returns the current leader, ties broken by join order.
func (s *Session) Leader() (ScoreEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Leader()
}

// PlayedCards returns the judge's selection view for the current round.
func (s *Session) PlayedCards() []PlayedCard {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PlayedCard, 0, len(s.round.Submissions))
	for _, p := range s.roster.Players() {
		sub, ok := s.round.Submissions[p.ID]
		if !ok {
			continue
		}
		out = append(out, PlayedCard{PlayerID: p.ID, Name: p.Name, Text: sub.Text})
	}
	return out
}

// Hand returns a copy of the player's current hand.
func (s *Session) Hand(playerID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.roster.Get(playerID)
	if !ok {
		return nil, ErrNotAPlayer
	}
	return append([]string(nil), p.Hand...), nil
}

// Prompt returns the in-flight prompt card, if a round is active.
func (s *Session) Prompt() (Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.round.active() {
		return Card{}, false
	}
	return s.round.Prompt, true
}

// Judge returns the current judge's id, or "" with an empty roster.
func (s *Session) Judge() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Judge()
}

// RosterSize returns the number of players in the session.
func (s *Session) RosterSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Len()
}

// Phase returns the current round phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round.Phase
}

// ContentMode reports whether sensitive cards are currently allowed.
func (s *Session) ContentMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allowSensitive
}

// CardsLeft returns the undrawn prompt and answer counts.
func (s *Session) CardsLeft() (prompts, answers int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deck.PromptCount(), s.deck.AnswerCount()
}
