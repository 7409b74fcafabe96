// internal/game/stub_test.go
package game

import (
	"errors"
	"fmt"
	"sync"
)

// stubProvider is an in-memory ContentProvider for tests, with switches
// to inject provider failures.
type stubProvider struct {
	mu      sync.Mutex
	prompts []Card
	answers []Card
	custom  map[CardType][]string

	filterErr error
	fetchErr  error
}

func newStubProvider(prompts, answers []Card) *stubProvider {
	return &stubProvider{
		prompts: prompts,
		answers: answers,
		custom:  make(map[CardType][]string),
	}
}

func (p *stubProvider) PromptCards(allowSensitive bool) ([]Card, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	return filterSensitive(p.prompts, allowSensitive), nil
}

func (p *stubProvider) AnswerCards(allowSensitive bool) ([]Card, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	return filterSensitive(p.answers, allowSensitive), nil
}

func (p *stubProvider) ApprovedCustomCards(t CardType, allowSensitive bool) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.custom[t]...), nil
}

func (p *stubProvider) FilterValid(texts []string, t CardType, allowSensitive bool) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.filterErr != nil {
		return nil, p.filterErr
	}
	pool := p.answers
	if t == CardPrompt {
		pool = p.prompts
	}
	valid := make([]string, 0, len(texts))
	for _, text := range texts {
		for _, c := range pool {
			if c.Text == text && (allowSensitive || !c.Sensitive) {
				valid = append(valid, text)
				break
			}
		}
	}
	return valid, nil
}

func filterSensitive(pool []Card, allowSensitive bool) []Card {
	out := make([]Card, 0, len(pool))
	for _, c := range pool {
		if c.Sensitive && !allowSensitive {
			continue
		}
		out = append(out, c)
	}
	return out
}

// genCards builds n cards named prefix-0..n-1.
func genCards(prefix string, n int, sensitive bool) []Card {
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = Card{Text: fmt.Sprintf("%s-%d", prefix, i), Sensitive: sensitive}
	}
	return cards
}

var errProviderDown = errors.New("provider down")
