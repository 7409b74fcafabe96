// internal/game/deck.go
package game

import (
	"fmt"
	"math/rand"
	"time"
)

// Deck is the per-session pool of undrawn cards. Prompts and answers are
// independent pools consumed without replacement; a card leaves the pool
// atomically with its insertion into a hand or the active round, and only
// a content-mode rebuild refills either pool.
//
// Deck is not safe for concurrent use on its own; the owning Session's
// mutex serializes all access.
type Deck struct {
	prompts []Card
	answers []Card
	rng     *rand.Rand
}

// NewDeck builds a freshly shuffled deck from the provider under the
// given content mode.
func NewDeck(provider ContentProvider, allowSensitive bool) (*Deck, error) {
	d := &Deck{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	if err := d.fill(provider, allowSensitive, nil); err != nil {
		return nil, err
	}
	return d, nil
}

// fill replaces both pools from the provider, merging approved custom
// cards and skipping any text present in exclude.
func (d *Deck) fill(provider ContentProvider, allowSensitive bool, exclude map[string]struct{}) error {
	prompts, err := provider.PromptCards(allowSensitive)
	if err != nil {
		return fmt.Errorf("fetch prompt cards: %w", err)
	}
	answers, err := provider.AnswerCards(allowSensitive)
	if err != nil {
		return fmt.Errorf("fetch answer cards: %w", err)
	}

	d.prompts = d.merge(prompts, provider, CardPrompt, allowSensitive, exclude)
	d.answers = d.merge(answers, provider, CardAnswer, allowSensitive, exclude)
	return nil
}

// merge combines a base pool with approved custom texts, dropping
// duplicates and excluded texts. Custom card fetch failures are not
// fatal; the base pool alone is still a playable deck.
func (d *Deck) merge(base []Card, provider ContentProvider, t CardType, allowSensitive bool, exclude map[string]struct{}) []Card {
	seen := make(map[string]struct{}, len(base))
	pool := make([]Card, 0, len(base))
	for _, c := range base {
		if _, dup := seen[c.Text]; dup {
			continue
		}
		if _, held := exclude[c.Text]; held {
			continue
		}
		seen[c.Text] = struct{}{}
		pool = append(pool, c)
	}

	custom, err := provider.ApprovedCustomCards(t, allowSensitive)
	if err != nil {
		return pool
	}
	for _, text := range custom {
		if _, dup := seen[text]; dup {
			continue
		}
		if _, held := exclude[text]; held {
			continue
		}
		seen[text] = struct{}{}
		pool = append(pool, Card{Text: text, Sensitive: allowSensitive})
	}
	return pool
}

// DrawPrompt removes and returns a uniformly random prompt card. The
// second return is false when the pool is exhausted.
func (d *Deck) DrawPrompt() (Card, bool) {
	if len(d.prompts) == 0 {
		return Card{}, false
	}
	i := d.rng.Intn(len(d.prompts))
	c := d.prompts[i]
	d.prompts[i] = d.prompts[len(d.prompts)-1]
	d.prompts = d.prompts[:len(d.prompts)-1]
	return c, true
}

// drawAnswer removes and returns a uniformly random answer card.
func (d *Deck) drawAnswer() (Card, bool) {
	if len(d.answers) == 0 {
		return Card{}, false
	}
	i := d.rng.Intn(len(d.answers))
	c := d.answers[i]
	d.answers[i] = d.answers[len(d.answers)-1]
	d.answers = d.answers[:len(d.answers)-1]
	return c, true
}

// DrawToHand deals answer cards to the player until their hand reaches
// HandSize or the pool runs dry, returning the number actually drawn.
// This is the only way cards enter a hand; played cards never return to
// the pool.
func (d *Deck) DrawToHand(p *Player) int {
	drawn := 0
	for len(p.Hand) < HandSize {
		c, ok := d.drawAnswer()
		if !ok {
			break
		}
		p.Hand = append(p.Hand, c.Text)
		drawn++
	}
	return drawn
}

// Rebuild discards both pools and refetches them under the new mode,
// excluding every text in inPlay so a reconciled deck never reintroduces
// a card already held in a hand or submission.
func (d *Deck) Rebuild(provider ContentProvider, allowSensitive bool, inPlay map[string]struct{}) error {
	return d.fill(provider, allowSensitive, inPlay)
}

// PromptCount returns the number of undrawn prompt cards.
func (d *Deck) PromptCount() int { return len(d.prompts) }

// AnswerCount returns the number of undrawn answer cards.
func (d *Deck) AnswerCount() int { return len(d.answers) }
