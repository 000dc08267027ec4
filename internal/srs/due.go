package srs

import (
	"cmp"
	"slices"
	"time"
)

// IsDue reports whether the card's next review time has been reached.
func (c Card) IsDue(now time.Time) bool {
	return !c.NextReviewAt.After(now)
}

// SelectDue returns the cards due at now, ordered by next review time and then
// by card id. When deckID is not empty only cards of that deck are considered.
// The input slice is left untouched.
func SelectDue(cards []Card, now time.Time, deckID string) []Card {
	due := make([]Card, 0, len(cards))
	for _, c := range cards {
		if deckID != "" && c.DeckID != deckID {
			continue
		}
		if c.IsDue(now) {
			due = append(due, c)
		}
	}
	SortByDue(due)
	return due
}

// SortByDue orders cards in place by next review time, ties broken by id.
func SortByDue(cards []Card) {
	slices.SortStableFunc(cards, func(a, b Card) int {
		if c := a.NextReviewAt.Compare(b.NextReviewAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// CountDue returns how many of cards are due at now, grouped by deck id.
func CountDue(cards []Card, now time.Time) map[string]int {
	counts := make(map[string]int)
	for _, c := range cards {
		if c.IsDue(now) {
			counts[c.DeckID]++
		}
	}
	return counts
}

// IDs returns the ids of cards in order.
func IDs(cards []Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}
