// internal/content/file_test.go
package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e-crumb/blanks/internal/game"
)

func writePacks(t *testing.T, prompts, answers string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PromptFile), []byte(prompts), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, AnswerFile), []byte(answers), 0o644))
	return dir
}

const testPrompts = `[
	{"text": "Why can't I sleep at night?"},
	{"text": "What's that smell?", "nsfw": true}
]`

const testAnswers = `[
	{"text": "A windmill full of corpses."},
	{"text": "Puppies!"},
	{"text": "Something unprintable.", "nsfw": true}
]`

type stubCustomSource struct {
	cards map[game.CardType][]string
	err   error
}

func (s *stubCustomSource) ApprovedCards(t game.CardType, allowSensitive bool) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cards[t], nil
}

func TestFileProviderLoadsPacks(t *testing.T) {
	dir := writePacks(t, testPrompts, testAnswers)
	p, err := NewFileProvider(dir, nil)
	require.NoError(t, err)

	prompts, err := p.PromptCards(true)
	require.NoError(t, err)
	assert.Len(t, prompts, 2)

	answers, err := p.AnswerCards(true)
	require.NoError(t, err)
	assert.Len(t, answers, 3)
}

func TestFileProviderFiltersSensitive(t *testing.T) {
	dir := writePacks(t, testPrompts, testAnswers)
	p, err := NewFileProvider(dir, nil)
	require.NoError(t, err)

	prompts, err := p.PromptCards(false)
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Equal(t, "Why can't I sleep at night?", prompts[0].Text)

	answers, err := p.AnswerCards(false)
	require.NoError(t, err)
	assert.Len(t, answers, 2)
}

func TestFileProviderMissingPack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PromptFile), []byte(`[]`), 0o644))

	_, err := NewFileProvider(dir, nil)
	assert.Error(t, err)
}

func TestFileProviderMalformedPack(t *testing.T) {
	dir := writePacks(t, `not json`, testAnswers)
	_, err := NewFileProvider(dir, nil)
	assert.Error(t, err)
}

func TestFilterValid(t *testing.T) {
	dir := writePacks(t, testPrompts, testAnswers)
	p, err := NewFileProvider(dir, nil)
	require.NoError(t, err)

	valid, err := p.FilterValid([]string{
		"Puppies!",
		"Something unprintable.",
		"Never heard of it.",
	}, game.CardAnswer, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Puppies!"}, valid)

	valid, err = p.FilterValid([]string{"Something unprintable."}, game.CardAnswer, true)
	require.NoError(t, err)
	assert.Len(t, valid, 1)
}

func TestCustomCardsMergeAndValidate(t *testing.T) {
	dir := writePacks(t, testPrompts, testAnswers)
	custom := &stubCustomSource{cards: map[game.CardType][]string{
		game.CardAnswer: {"A homemade answer."},
	}}
	p, err := NewFileProvider(dir, custom)
	require.NoError(t, err)

	texts, err := p.ApprovedCustomCards(game.CardAnswer, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"A homemade answer."}, texts)

	// Custom cards count as valid pool members during reconciliation.
	valid, err := p.FilterValid([]string{"A homemade answer."}, game.CardAnswer, false)
	require.NoError(t, err)
	assert.Len(t, valid, 1)
}

func TestCustomSourceFailurePropagatesFromFilterValid(t *testing.T) {
	dir := writePacks(t, testPrompts, testAnswers)
	custom := &stubCustomSource{err: os.ErrDeadlineExceeded}
	p, err := NewFileProvider(dir, custom)
	require.NoError(t, err)

	_, err = p.FilterValid([]string{"Puppies!"}, game.CardAnswer, false)
	assert.Error(t, err)
}

func TestReloadSwapsPacks(t *testing.T) {
	dir := writePacks(t, testPrompts, testAnswers)
	p, err := NewFileProvider(dir, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, AnswerFile),
		[]byte(`[{"text": "Only one left."}]`), 0o644))
	require.NoError(t, p.Reload())

	answers, err := p.AnswerCards(true)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "Only one left.", answers[0].Text)
}
