package srs

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestAggregate(t *testing.T) {
	reviewed := dueCard("r", "d1", t0.Add(48*time.Hour))
	at := t0.Add(-24 * time.Hour)
	reviewed.LastReviewedAt = &at

	cards := []Card{
		dueCard("a", "d1", t0.Add(-time.Hour)),
		reviewed,
		dueCard("b", "d2", t0),
		dueCard("orphan", "gone", t0),
	}
	latest := map[string]Summary{
		"d1": {Reviewed: 3, Mastered: 2, NeedsWork: 1},
		"":   {Reviewed: 1, Mastered: 1},
	}

	ov := Aggregate([]string{"d1", "d2", "d3"}, cards, latest, t0)

	assert.Equal(t, 3, ov.TotalDecks)
	assert.Equal(t, 3, ov.TotalCards)
	assert.Equal(t, 2, ov.DueCards)
	assert.Equal(t, 2, ov.Mastered)
	assert.Equal(t, 1, ov.NeedsWork)
	require.NotNil(t, ov.LastSession)
	assert.Equal(t, Summary{Reviewed: 1, Mastered: 1}, *ov.LastSession)

	require.Len(t, ov.Decks, 3)
	assert.Equal(t, DeckStats{DeckID: "d1", TotalCards: 2, DueCards: 1, NewCards: 1, LastSession: &Summary{Reviewed: 3, Mastered: 2, NeedsWork: 1}}, ov.Decks[0])
	assert.Equal(t, DeckStats{DeckID: "d2", TotalCards: 1, DueCards: 1, NewCards: 1}, ov.Decks[1])
	assert.Equal(t, DeckStats{DeckID: "d3"}, ov.Decks[2])
}

func TestAggregateIgnoresUnlistedDecks(t *testing.T) {
	latest := map[string]Summary{
		"live":    {Reviewed: 1, Mastered: 1},
		"deleted": {Reviewed: 9, Mastered: 7, NeedsWork: 2},
		"":        {Reviewed: 3, Mastered: 3},
	}

	ov := Aggregate([]string{"live"}, nil, latest, t0)

	assert.Equal(t, 1, ov.TotalDecks)
	assert.Equal(t, 1, ov.Mastered)
	assert.Equal(t, 0, ov.NeedsWork)
	require.Len(t, ov.Decks, 1)
	assert.Equal(t, &Summary{Reviewed: 1, Mastered: 1}, ov.Decks[0].LastSession)
	assert.Equal(t, &Summary{Reviewed: 3, Mastered: 3}, ov.LastSession)
}
