// internal/content/file.go
package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/e-crumb/blanks/internal/game"
)

// Pack file names expected under the data directory.
const (
	PromptFile = "prompts.json"
	AnswerFile = "answers.json"
)

// CustomCardSource supplies approved player-submitted card texts, already
// filtered by content mode. Implemented by database.CustomCardStore; nil
// means no custom cards.
type CustomCardSource interface {
	ApprovedCards(t game.CardType, allowSensitive bool) ([]string, error)
}

// cardEntry is the on-disk pack format: a JSON array of these.
type cardEntry struct {
	Text string `json:"text"`
	NSFW bool   `json:"nsfw"`
}

// FileProvider is a game.ContentProvider backed by JSON card packs on
// disk, optionally merged with a CustomCardSource. All queries after load
// are in-memory; Reload swaps the packs atomically.
type FileProvider struct {
	dir    string
	custom CustomCardSource

	mu      sync.RWMutex
	prompts []game.Card
	answers []game.Card
	byText  map[game.CardType]map[string]game.Card
}

// NewFileProvider loads both packs from dir. A missing or malformed pack
// is a startup error; the server has nothing to deal without it.
func NewFileProvider(dir string, custom CustomCardSource) (*FileProvider, error) {
	p := &FileProvider{dir: dir, custom: custom}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads both pack files and replaces the in-memory pools.
func (p *FileProvider) Reload() error {
	prompts, err := loadPack(filepath.Join(p.dir, PromptFile))
	if err != nil {
		return err
	}
	answers, err := loadPack(filepath.Join(p.dir, AnswerFile))
	if err != nil {
		return err
	}

	byText := map[game.CardType]map[string]game.Card{
		game.CardPrompt: make(map[string]game.Card, len(prompts)),
		game.CardAnswer: make(map[string]game.Card, len(answers)),
	}
	for _, c := range prompts {
		byText[game.CardPrompt][c.Text] = c
	}
	for _, c := range answers {
		byText[game.CardAnswer][c.Text] = c
	}

	p.mu.Lock()
	p.prompts = prompts
	p.answers = answers
	p.byText = byText
	p.mu.Unlock()
	return nil
}

func loadPack(path string) ([]game.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card pack %s: %w", path, err)
	}
	var entries []cardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse card pack %s: %w", path, err)
	}
	cards := make([]game.Card, 0, len(entries))
	for _, e := range entries {
		if e.Text == "" {
			continue
		}
		cards = append(cards, game.Card{Text: e.Text, Sensitive: e.NSFW})
	}
	return cards, nil
}

// PromptCards returns the prompt pool for the mode.
func (p *FileProvider) PromptCards(allowSensitive bool) ([]game.Card, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return filterMode(p.prompts, allowSensitive), nil
}

// AnswerCards returns the answer pool for the mode.
func (p *FileProvider) AnswerCards(allowSensitive bool) ([]game.Card, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return filterMode(p.answers, allowSensitive), nil
}

func filterMode(pool []game.Card, allowSensitive bool) []game.Card {
	out := make([]game.Card, 0, len(pool))
	for _, c := range pool {
		if c.Sensitive && !allowSensitive {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ApprovedCustomCards returns approved player-submitted texts for the
// pool, or nothing when no custom source is configured.
func (p *FileProvider) ApprovedCustomCards(t game.CardType, allowSensitive bool) ([]string, error) {
	if p.custom == nil {
		return nil, nil
	}
	return p.custom.ApprovedCards(t, allowSensitive)
}

// FilterValid returns the subset of texts that exist in the given pool
// under the mode, consulting both the pack and the custom source.
func (p *FileProvider) FilterValid(texts []string, t game.CardType, allowSensitive bool) ([]string, error) {
	p.mu.RLock()
	index := p.byText[t]
	p.mu.RUnlock()

	var customSet map[string]struct{}
	if p.custom != nil {
		custom, err := p.custom.ApprovedCards(t, allowSensitive)
		if err != nil {
			return nil, fmt.Errorf("fetch custom cards: %w", err)
		}
		customSet = make(map[string]struct{}, len(custom))
		for _, text := range custom {
			customSet[text] = struct{}{}
		}
	}

	valid := make([]string, 0, len(texts))
	for _, text := range texts {
		if c, ok := index[text]; ok && (allowSensitive || !c.Sensitive) {
			valid = append(valid, text)
			continue
		}
		if _, ok := customSet[text]; ok {
			valid = append(valid, text)
		}
	}
	return valid, nil
}
