// internal/game/session_test.go
package game

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder collects session events; the session calls it with its
// own lock held so appends are already serialized.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (er *eventRecorder) record(ev Event) {
	er.mu.Lock()
	defer er.mu.Unlock()
	er.events = append(er.events, ev)
}

func (er *eventRecorder) count(t EventType) int {
	er.mu.Lock()
	defer er.mu.Unlock()
	n := 0
	for _, ev := range er.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// setupSession builds a session on the provider, joins the players in
// order and deals everyone a full hand.
func setupSession(t *testing.T, provider *stubProvider, players ...string) (*Session, *eventRecorder) {
	t.Helper()
	s, err := NewSession("chan-1", provider, false, quietLogger())
	require.NoError(t, err)
	er := &eventRecorder{}
	s.OnEvent = er.record

	for _, id := range players {
		require.True(t, s.AddPlayer(id, id))
		_, err := s.DrawToHand(id)
		require.NoError(t, err)
	}
	return s, er
}

func defaultProvider() *stubProvider {
	return newStubProvider(genCards("p", 10, false), genCards("a", 60, false))
}

// handCard returns the i-th card of the player's current hand.
func handCard(t *testing.T, s *Session, playerID string, i int) string {
	t.Helper()
	hand, err := s.Hand(playerID)
	require.NoError(t, err)
	require.Greater(t, len(hand), i)
	return hand[i]
}

func TestFullRoundFlow(t *testing.T) {
	s, er := setupSession(t, defaultProvider(), "a", "b", "c")
	require.Equal(t, "a", s.Judge())

	res, err := s.StartRound()
	require.NoError(t, err)
	assert.Equal(t, "a", res.Judge)
	assert.False(t, res.AllIn)
	assert.NotEmpty(t, res.Prompt.Text)
	assert.Equal(t, PhaseSubmitting, s.Phase())

	bCard := handCard(t, s, "b", 0)
	status, err := s.Submit("b", bCard, false)
	require.NoError(t, err)
	assert.Equal(t, SubmitAccepted, status)

	// The played card left b's hand.
	hand, err := s.Hand("b")
	require.NoError(t, err)
	assert.Len(t, hand, HandSize-1)
	assert.NotContains(t, hand, bCard)

	cCard := handCard(t, s, "c", 0)
	status, err = s.Submit("c", cCard, false)
	require.NoError(t, err)
	assert.Equal(t, SubmitAllIn, status)
	assert.Equal(t, PhaseJudging, s.Phase())
	assert.Equal(t, 1, er.count(EventAllAnswersIn))

	win, err := s.SelectWinner("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "b", win.WinnerID)
	assert.Equal(t, 1, win.Score)
	assert.Equal(t, "b", win.NextJudge)
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Equal(t, "b", s.Judge())

	// Non-judge hands are topped back up.
	for _, id := range []string{"b", "c"} {
		hand, err := s.Hand(id)
		require.NoError(t, err)
		assert.Len(t, hand, HandSize)
	}
}

func TestJudgeCannotSubmit(t *testing.T) {
	s, _ := setupSession(t, defaultProvider(), "a", "b")
	_, err := s.StartRound()
	require.NoError(t, err)

	_, err = s.Submit("a", handCard(t, s, "a", 0), false)
	assert.ErrorIs(t, err, ErrJudgeCannotSubmit)
}

func TestSubmitGuards(t *testing.T) {
	s, _ := setupSession(t, defaultProvider(), "a", "b")

	// No round open yet.
	_, err := s.Submit("b", handCard(t, s, "b", 0), false)
	assert.ErrorIs(t, err, ErrRoundNotOpen)

	_, err = s.StartRound()
	require.NoError(t, err)

	_, err = s.Submit("ghost", "whatever", false)
	assert.ErrorIs(t, err, ErrNotAPlayer)

	_, err = s.Submit("b", "not-in-hand", false)
	assert.ErrorIs(t, err, ErrCardNotInHand)
}

func TestResubmissionOverwrites(t *testing.T) {
	s, _ := setupSession(t, defaultProvider(), "a", "b", "c")
	_, err := s.StartRound()
	require.NoError(t, err)

	first := handCard(t, s, "b", 0)
	status, err := s.Submit("b", first, false)
	require.NoError(t, err)
	require.Equal(t, SubmitAccepted, status)

	second := handCard(t, s, "b", 0)
	status, err = s.Submit("b", second, false)
	require.NoError(t, err)
	assert.Equal(t, SubmitAccepted, status, "overwrite must not close the round")
	assert.Equal(t, PhaseSubmitting, s.Phase())

	// Both cards are consumed; only the second answer stands.
	hand, err := s.Hand("b")
	require.NoError(t, err)
	assert.Len(t, hand, HandSize-2)

	_, err = s.Submit("c", handCard(t, s, "c", 0), false)
	require.NoError(t, err)
	played := s.PlayedCards()
	require.Len(t, played, 2)
	for _, pc := range played {
		if pc.PlayerID == "b" {
			assert.Equal(t, second, pc.Text)
		}
	}
}

func TestSubmitRejectedAfterJudgingStarts(t *testing.T) {
	s, _ := setupSession(t, defaultProvider(), "a", "b")
	_, err := s.StartRound()
	require.NoError(t, err)

	_, err = s.Submit("b", handCard(t, s, "b", 0), false)
	require.NoError(t, err)
	require.Equal(t, PhaseJudging, s.Phase())

	_, err = s.Submit("b", handCard(t, s, "b", 0), false)
	assert.ErrorIs(t, err, ErrRoundNotOpen)
	assert.Equal(t, PhaseJudging, s.Phase())
}

func TestCustomSubmissionKeepsHand(t *testing.T) {
	s, _ := setupSession(t, defaultProvider(), "a", "b", "c")
	_, err := s.StartRound()
	require.NoError(t, err)

	_, err = s.Submit("b", "something I typed myself", true)
	require.NoError(t, err)

	hand, err := s.Hand("b")
	require.NoError(t, err)
	assert.Len(t, hand, HandSize, "custom answers do not consume hand cards")
}

func TestSelectWinnerGuards(t *testing.T) {
	s, _ := setupSession(t, defaultProvider(), "a", "b", "c")

	_, err := s.SelectWinner("a", "b")
	assert.ErrorIs(t, err, ErrRoundNotJudging)

	_, err = s.StartRound()
	require.NoError(t, err)
	_, err = s.SelectWinner("a", "b")
	assert.ErrorIs(t, err, ErrRoundNotJudging)

	_, err = s.Submit("b", handCard(t, s, "b", 0), false)
	require.NoError(t, err)
	_, err = s.Submit("c", handCard(t, s, "c", 0), false)
	require.NoError(t, err)
	require.Equal(t, PhaseJudging, s.Phase())

	_, err = s.SelectWinner("b", "c")
	assert.ErrorIs(t, err, ErrNotJudge)
	_, err = s.SelectWinner("a", "a")
	assert.ErrorIs(t, err, ErrNoSuchSubmission)

	// Nothing moved: judge and scores are untouched.
	assert.Equal(t, "a", s.Judge())
	for _, entry := range s.Scores() {
		assert.Equal(t, 0, entry.Score)
	}
}

func TestStartRoundGuards(t *testing.T) {
	s, _ := setupSession(t, defaultProvider(), "a", "b")
	_, err := s.StartRound()
	require.NoError(t, err)

	_, err = s.StartRound()
	assert.ErrorIs(t, err, ErrRoundAlreadyActive)
}

func TestStartRoundPromptExhaustion(t *testing.T) {
	provider := newStubProvider(genCards("p", 1, false), genCards("a", 40, false))
	s, _ := setupSession(t, provider, "a", "b")

	_, err := s.StartRound()
	require.NoError(t, err)
	_, err = s.Submit("b", handCard(t, s, "b", 0), false)
	require.NoError(t, err)
	_, err = s.SelectWinner("a", "b")
	require.NoError(t, err)

	_, err = s.StartRound()
	assert.ErrorIs(t, err, ErrNoPromptsLeft)
}

func TestSinglePlayerRound(t *testing.T) {
	s, _ := setupSession(t, defaultProvider(), "a")

	res, err := s.StartRound()
	require.NoError(t, err)
	assert.True(t, res.AllIn, "no non-judge players: round closes immediately")
	assert.Equal(t, PhaseJudging, s.Phase())

	_, err = s.SelectWinner("a", "a")
	assert.ErrorIs(t, err, ErrNoSuchSubmission)
}

func TestRemovePlayerDropsSubmissionAndClosesRound(t *testing.T) {
	s, er := setupSession(t, defaultProvider(), "a", "b", "c")
	_, err := s.StartRound()
	require.NoError(t, err)

	_, err = s.Submit("b", handCard(t, s, "b", 0), false)
	require.NoError(t, err)
	require.Equal(t, PhaseSubmitting, s.Phase())

	// c leaves while the round waits on them; b's answer is now the full set.
	require.True(t, s.RemovePlayer("c"))
	assert.Equal(t, PhaseJudging, s.Phase())
	assert.Equal(t, 1, er.count(EventAllAnswersIn))
	assert.Len(t, s.PlayedCards(), 1)
}

func TestRemoveJudgeMidRound(t *testing.T) {
	s, _ := setupSession(t, defaultProvider(), "a", "b", "c")
	_, err := s.StartRound()
	require.NoError(t, err)

	_, err = s.Submit("b", handCard(t, s, "b", 0), false)
	require.NoError(t, err)

	require.True(t, s.RemovePlayer("a"))
	assert.Equal(t, "b", s.Judge(), "role passes to the next joiner")

	// b's own answer was dropped with the role; the judge never judges
	// their own submission.
	assert.Empty(t, s.PlayedCards())
	assert.Equal(t, PhaseSubmitting, s.Phase())

	_, err = s.Submit("c", handCard(t, s, "c", 0), false)
	require.NoError(t, err)
	assert.Equal(t, PhaseJudging, s.Phase())

	win, err := s.SelectWinner("b", "c")
	require.NoError(t, err)
	assert.Equal(t, "c", win.WinnerID)
}

func TestRemoveLastPlayerResetsRound(t *testing.T) {
	s, _ := setupSession(t, defaultProvider(), "a")
	_, err := s.StartRound()
	require.NoError(t, err)

	require.True(t, s.RemovePlayer("a"))
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Equal(t, "", s.Judge())
	assert.Equal(t, 0, s.RosterSize())
}

func TestScoresAccumulateAcrossRounds(t *testing.T) {
	s, _ := setupSession(t, defaultProvider(), "a", "b")

	playRound := func(judge, other string) {
		_, err := s.StartRound()
		require.NoError(t, err)
		_, err = s.Submit(other, handCard(t, s, other, 0), false)
		require.NoError(t, err)
		_, err = s.SelectWinner(judge, other)
		require.NoError(t, err)
	}

	playRound("a", "b")
	playRound("b", "a")
	playRound("a", "b")

	scores := map[string]int{}
	for _, entry := range s.Scores() {
		scores[entry.PlayerID] = entry.Score
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, scores)

	leader, ok := s.Leader()
	require.True(t, ok)
	assert.Equal(t, "b", leader.PlayerID)
}

func TestConcurrentSubmitsCloseRoundOnce(t *testing.T) {
	s, er := setupSession(t, defaultProvider(), "a", "b", "c", "d")
	_, err := s.StartRound()
	require.NoError(t, err)

	cards := map[string]string{}
	for _, id := range []string{"b", "c", "d"} {
		cards[id] = handCard(t, s, id, 0)
	}

	var wg sync.WaitGroup
	for id, card := range cards {
		wg.Add(1)
		go func(id, card string) {
			defer wg.Done()
			_, err := s.Submit(id, card, false)
			assert.NoError(t, err)
		}(id, card)
	}
	wg.Wait()

	assert.Equal(t, PhaseJudging, s.Phase())
	assert.Equal(t, 1, er.count(EventAllAnswersIn), "racing submissions must close the round exactly once")
}
