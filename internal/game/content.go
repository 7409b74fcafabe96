// internal/game/content.go
package game

// ContentProvider supplies the card pools a session deals from. The
// boolean flag on every call is the session's content mode: when false,
// cards flagged sensitive are excluded. Implementations must be safe for
// concurrent use; sessions call them while holding their own mutex.
type ContentProvider interface {
	// PromptCards returns the full prompt (black) pool for the mode.
	PromptCards(allowSensitive bool) ([]Card, error)

	// AnswerCards returns the full answer (white) pool for the mode.
	AnswerCards(allowSensitive bool) ([]Card, error)

	// ApprovedCustomCards returns approved player-submitted card texts for
	// the given pool, already filtered by mode.
	ApprovedCustomCards(t CardType, allowSensitive bool) ([]string, error)

	// FilterValid returns the subset of texts that are valid members of the
	// given pool under the mode. Used during content-mode reconciliation to
	// test cards already held in hands or submissions.
	FilterValid(texts []string, t CardType, allowSensitive bool) ([]string, error)
}
