package srs

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func queue(n int) []Card {
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = dueCard(string(rune('a'+i)), "deck", t0)
	}
	return cards
}

func TestSession_EmptyQueueStartsComplete(t *testing.T) {
	s := NewSession(nil)

	assert.Equal(t, StatusComplete, s.Status())
	assert.Equal(t, Summary{}, s.Summary())
	assert.Equal(t, 0, s.Remaining())

	_, err := s.Current()
	assert.ErrorIs(t, err, ErrInvalidSessionState)

	_, err = s.Rate(5, t0, nil)
	assert.ErrorIs(t, err, ErrInvalidSessionState)
}

func TestSession_RateAdvancesAndCounts(t *testing.T) {
	s := NewSession(queue(4))
	var written []string
	persist := func(c Card) error {
		written = append(written, c.ID)
		return nil
	}

	for _, q := range []Quality{5, 2, 3, 4} {
		require.Equal(t, StatusActive, s.Status())
		_, err := s.Rate(q, t0, persist)
		require.NoError(t, err)
	}

	assert.Equal(t, StatusComplete, s.Status())
	assert.Equal(t, Summary{Reviewed: 4, Mastered: 1, NeedsWork: 1}, s.Summary())
	assert.Equal(t, []string{"a", "b", "c", "d"}, written)
	assert.Equal(t, s.Len(), s.Position())

	_, err := s.Rate(5, t0, persist)
	assert.ErrorIs(t, err, ErrInvalidSessionState)
	assert.Len(t, written, 4)
}

func TestSession_RateReturnsScheduledCard(t *testing.T) {
	s := NewSession(queue(1))

	updated, err := s.Rate(5, t0, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", updated.ID)
	assert.Equal(t, 1, updated.Repetitions)
	assert.Equal(t, 1, updated.IntervalDays)
	assert.Equal(t, t0.Add(24*time.Hour), updated.NextReviewAt)
}

func TestSession_RateLatestSchedulesFromGivenState(t *testing.T) {
	s := NewSession(queue(2))

	latest := dueCard("a", "deck", t0)
	latest.Repetitions = 1
	latest.IntervalDays = 1
	latest.EasinessFactor = 2.6

	updated, err := s.RateLatest(latest, 5, t0, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Repetitions)
	assert.Equal(t, 6, updated.IntervalDays)
	assert.Equal(t, 1, s.Position())

	_, err = s.RateLatest(dueCard("a", "deck", t0), 5, t0, nil)
	assert.ErrorIs(t, err, ErrCardNotFound)
	assert.Equal(t, 1, s.Position())
	assert.Equal(t, Summary{Reviewed: 1, Mastered: 1}, s.Summary())
}

func TestSession_InvalidRatingLeavesStateUnchanged(t *testing.T) {
	s := NewSession(queue(2))
	calls := 0

	_, err := s.Rate(9, t0, func(Card) error { calls++; return nil })
	assert.ErrorIs(t, err, ErrInvalidRating)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, s.Position())
	assert.Equal(t, Summary{}, s.Summary())
	assert.Equal(t, StatusActive, s.Status())
}

func TestSession_PersistFailureDoesNotAdvance(t *testing.T) {
	s := NewSession(queue(2))
	boom := errors.New("disk full")

	_, err := s.Rate(5, t0, func(Card) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Position())
	assert.Equal(t, Summary{}, s.Summary())

	cur, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, cur.Repetitions, "queued card must keep its original schedule")
}

func TestSession_AbandonLeavesUnratedCardsAlone(t *testing.T) {
	cards := queue(3)
	s := NewSession(cards)

	_, err := s.Rate(5, t0, nil)
	require.NoError(t, err)
	require.NoError(t, s.Abandon())

	assert.Equal(t, StatusAbandoned, s.Status())
	assert.Equal(t, Summary{Reviewed: 1, Mastered: 1}, s.Summary())
	assert.Equal(t, 0, s.Remaining())

	unrated := s.Unrated()
	require.Len(t, unrated, 2)
	for i, c := range unrated {
		assert.Equal(t, cards[i+1].NextReviewAt, c.NextReviewAt)
		assert.Equal(t, cards[i+1].State, c.State)
	}

	_, err = s.Rate(5, t0, nil)
	assert.ErrorIs(t, err, ErrInvalidSessionState)
	assert.ErrorIs(t, s.Abandon(), ErrInvalidSessionState)
}

func TestSession_QueueIsFixedAtStart(t *testing.T) {
	cards := queue(2)
	s := NewSession(cards)

	cards[0].Front = "mutated after start"
	cur, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, "a", cur.Front)
}
