// internal/game/errors.go
package game

import "errors"

// Every failure a session operation can surface is one of these sentinel
// errors. They are all recoverable: callers map them to user-facing
// messages and the session stays usable. Nothing in this package panics
// across the API boundary.
var (
	// ErrAlreadyActive is returned by the registry when a session already
	// exists for the requested key.
	ErrAlreadyActive = errors.New("a session is already active for this channel")

	// ErrNoSession is returned when an operation names a session key the
	// registry does not know.
	ErrNoSession = errors.New("no active session for this channel")

	// ErrNotAPlayer is returned when an operation names a player id that is
	// not on the roster.
	ErrNotAPlayer = errors.New("player is not in this session")

	// ErrJudgeCannotSubmit rejects answer submissions from the current judge.
	ErrJudgeCannotSubmit = errors.New("the judge cannot submit an answer")

	// ErrRoundAlreadyActive rejects StartRound while a prompt is in play.
	ErrRoundAlreadyActive = errors.New("a round is already in progress")

	// ErrRoundNotOpen rejects submissions while no round is accepting them.
	ErrRoundNotOpen = errors.New("round is not accepting submissions")

	// ErrRoundNotJudging rejects SelectWinner outside the judging phase.
	ErrRoundNotJudging = errors.New("round is not ready for judging")

	// ErrNotJudge rejects SelectWinner from anyone but the current judge.
	ErrNotJudge = errors.New("only the judge may pick a winner")

	// ErrNoSuchSubmission is returned when the named player has no
	// submission in the current round.
	ErrNoSuchSubmission = errors.New("that player has not submitted an answer")

	// ErrNoPromptsLeft is returned by StartRound when the prompt pool is
	// exhausted.
	ErrNoPromptsLeft = errors.New("no prompt cards remaining")

	// ErrCardNotInHand is returned when a hand submission names a card the
	// player does not hold.
	ErrCardNotInHand = errors.New("card is not in your hand")
)
