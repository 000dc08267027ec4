package srs

import "time"

// DeckStats aggregates one deck.
type DeckStats struct {
	DeckID      string   `json:"deck_id"`
	TotalCards  int      `json:"total_cards"`
	DueCards    int      `json:"due_cards"`
	NewCards    int      `json:"new_cards"`
	LastSession *Summary `json:"last_session,omitempty"`
}

// Overview is the dashboard view over a store snapshot.
type Overview struct {
	TotalDecks int         `json:"total_decks"`
	TotalCards int         `json:"total_cards"`
	DueCards   int         `json:"due_cards"`
	Mastered   int         `json:"mastered_count"`
	NeedsWork  int         `json:"needs_work_count"`
	Decks      []DeckStats `json:"decks"`

	// LastSession is the latest session run across all decks, if any.
	LastSession *Summary `json:"last_session,omitempty"`
}

// Aggregate computes an Overview for the given decks. latest holds the most
// recent session summary per deck id, with "" for sessions over every deck.
// Cards and summaries of decks not listed are ignored; Mastered and NeedsWork
// only sum the listed decks.
func Aggregate(deckIDs []string, cards []Card, latest map[string]Summary, now time.Time) Overview {
	byDeck := make(map[string]*DeckStats, len(deckIDs))
	ov := Overview{
		TotalDecks: len(deckIDs),
		Decks:      make([]DeckStats, len(deckIDs)),
	}
	for i, id := range deckIDs {
		ov.Decks[i].DeckID = id
		byDeck[id] = &ov.Decks[i]
	}

	for _, c := range cards {
		ds, ok := byDeck[c.DeckID]
		if !ok {
			continue
		}
		ds.TotalCards++
		ov.TotalCards++
		if !c.Reviewed() {
			ds.NewCards++
		}
		if c.IsDue(now) {
			ds.DueCards++
			ov.DueCards++
		}
	}

	for id, sum := range latest {
		s := sum
		if id == "" {
			ov.LastSession = &s
			continue
		}
		ds, ok := byDeck[id]
		if !ok {
			continue
		}
		ds.LastSession = &s
		ov.Mastered += sum.Mastered
		ov.NeedsWork += sum.NeedsWork
	}
	return ov
}
