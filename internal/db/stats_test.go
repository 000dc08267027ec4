package db

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"studyhub/internal/srs"
	"testing"
	"time"
)

func TestStreak(t *testing.T) {
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		days []string
		want int
	}{
		{"no activity", nil, 0},
		{"today only", []string{"2024-03-10"}, 1},
		{"ending yesterday", []string{"2024-03-09", "2024-03-08"}, 2},
		{"gap breaks streak", []string{"2024-03-10", "2024-03-09", "2024-03-07"}, 2},
		{"stale", []string{"2024-03-05"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, streak(tt.days, today))
		})
	}
}

func TestGetUserStudyStats(t *testing.T) {
	s := newTestStorage(t)
	u := createUser(t, s, 1)
	deck, err := s.CreateDeck(u.ID, "A", "", t0)
	require.NoError(t, err)
	cards, err := s.AddCardsInBatch(deck.ID, []CardInput{
		{Front: "1", Back: "1"},
		{Front: "2", Back: "2"},
		{Front: "3", Back: "3"},
	}, t0)
	require.NoError(t, err)

	review := func(c srs.Card, q srs.Quality, at time.Time) {
		next, err := srs.ScheduleNext(c.State, q, at)
		require.NoError(t, err)
		c.State = next
		require.NoError(t, s.SaveReview(c, Review{UserID: u.ID, Quality: int(q), ReviewedAt: at}))
	}

	yesterday := t0.Add(-24 * time.Hour)
	review(cards[0], 5, yesterday)
	review(cards[0], 5, t0)
	review(cards[1], 1, t0.Add(time.Hour))
	review(cards[2], 3, t0.Add(2*time.Hour))

	stats, err := s.GetUserStudyStats(u.ID, t0.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CardsStudiedToday)
	assert.Equal(t, 1, stats.MasteredToday)
	assert.Equal(t, 1, stats.NeedsWorkToday)
	assert.Equal(t, 3, stats.TotalCards)
	assert.Equal(t, 4, stats.TotalReviews)
	assert.Equal(t, 2, stats.StudyDays)
	assert.Equal(t, 2, stats.StreakDays)

	history, err := s.GetUserStudyHistory(u.ID, 7, t0)
	require.NoError(t, err)
	assert.Equal(t, []StudyHistoryItem{
		{Date: "2024-02-29", CardCount: 1},
		{Date: "2024-03-01", CardCount: 3},
	}, history)
}
