// internal/game/round.go
package game

// Phase is the round state. A round cycles Idle -> Submitting ->
// Judging -> Idle. Once a prompt is drawn the round is open for answers
// until every non-judge player has submitted.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseJudging    Phase = "judging"
)

// Submission is one player's answer for the current round. Custom marks
// free-form text that was never drawn from the pool; custom answers are
// exempt from content-mode filtering.
type Submission struct {
	Text   string `json:"text"`
	Custom bool   `json:"custom"`
}

// Round is the per-round state machine. The judge never appears as a key
// in Submissions; the Session enforces that before calling submit.
type Round struct {
	Prompt      Card
	Submissions map[string]Submission
	Phase       Phase
}

func newRound() *Round {
	return &Round{Phase: PhaseIdle, Submissions: make(map[string]Submission)}
}

// begin opens a new round with the drawn prompt. Only valid from Idle.
func (r *Round) begin(prompt Card) error {
	if r.Phase != PhaseIdle {
		return ErrRoundAlreadyActive
	}
	r.Prompt = prompt
	r.Submissions = make(map[string]Submission)
	r.Phase = PhaseSubmitting
	return nil
}

// submit records (or overwrites) a player's answer while the round is
// open. Resubmission before the round closes replaces the prior answer.
func (r *Round) submit(playerID string, sub Submission) error {
	if r.Phase != PhaseSubmitting {
		return ErrRoundNotOpen
	}
	r.Submissions[playerID] = sub
	return nil
}

// closeIfComplete moves the round to Judging once every active (non-judge)
// player has an answer in, and reports whether it did so. A round with
// zero active players closes immediately with no candidates.
func (r *Round) closeIfComplete(activePlayers int) bool {
	if r.Phase != PhaseSubmitting {
		return false
	}
	if len(r.Submissions) < activePlayers {
		return false
	}
	r.Phase = PhaseJudging
	return true
}

// dropSubmission removes a player's pending answer, if any. Used when a
// player leaves mid-round or a mode change invalidates their card.
func (r *Round) dropSubmission(playerID string) (Submission, bool) {
	sub, ok := r.Submissions[playerID]
	if ok {
		delete(r.Submissions, playerID)
	}
	return sub, ok
}

// reset returns the round to Idle with no prompt and no submissions.
func (r *Round) reset() {
	r.Prompt = Card{}
	r.Submissions = make(map[string]Submission)
	r.Phase = PhaseIdle
}

// active reports whether a prompt is in play (Submitting or Judging).
func (r *Round) active() bool {
	return r.Phase != PhaseIdle
}
