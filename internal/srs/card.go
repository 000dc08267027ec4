package srs

import "time"

// State is the part of a card owned by the scheduler.
type State struct {
	Repetitions    int        `json:"repetitions"`
	EasinessFactor float64    `json:"easiness_factor"`
	IntervalDays   int        `json:"interval_days"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// NewState returns the scheduling state of a card that has never been
// reviewed. Such a card is due immediately.
func NewState(now time.Time) State {
	return State{
		Repetitions:    0,
		EasinessFactor: InitialEasiness,
		IntervalDays:   0,
		NextReviewAt:   now,
	}
}

// Card is a single question/answer unit together with its schedule.
type Card struct {
	ID         string `json:"id"`
	DeckID     string `json:"deck_id"`
	Front      string `json:"front"`
	Back       string `json:"back"`
	Hint       string `json:"hint,omitempty"`
	Difficulty string `json:"difficulty,omitempty"` // informational only
	State
}

// Reviewed reports whether the card has been rated at least once.
func (c Card) Reviewed() bool {
	return c.LastReviewedAt != nil
}
