// internal/game/card.go
package game

// HandSize is the number of answer cards each non-judge player holds
// between rounds. Hands are topped back up to this size after every
// winner selection.
const HandSize = 7

// CardType distinguishes the two pools a card can belong to.
type CardType string

const (
	// CardPrompt is a black card: one is drawn per round and read by the judge.
	CardPrompt CardType = "prompt"
	// CardAnswer is a white card: dealt into player hands and played as answers.
	CardAnswer CardType = "answer"
)

// Card is an immutable card drawn from the content provider. Identity is
// the text value; once a card's text is in a hand or a submission, no
// rebuild may reintroduce a duplicate of it.
type Card struct {
	Text      string `json:"text"`
	Sensitive bool   `json:"sensitive"`
}

// Player is one roster member of a session. Hand holds answer-card texts
// (capacity HandSize); Score persists for the session lifetime.
type Player struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Hand  []string `json:"hand"`
	Score int      `json:"score"`
}

// HasCard reports whether the player's hand contains the given card text.
func (p *Player) HasCard(text string) bool {
	for _, c := range p.Hand {
		if c == text {
			return true
		}
	}
	return false
}

// removeCard drops the first occurrence of text from the hand and reports
// whether it was present.
func (p *Player) removeCard(text string) bool {
	for i, c := range p.Hand {
		if c == text {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// ScoreEntry is a read-only score row returned by Session.Scores.
type ScoreEntry struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}
