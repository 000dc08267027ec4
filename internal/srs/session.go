package srs

import (
	"fmt"
	"slices"
	"time"
)

// Status is the lifecycle state of a review session.
type Status string

const (
	StatusActive    Status = "active"
	StatusComplete  Status = "complete"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether no further ratings are accepted.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusAbandoned
}

// Summary is the outcome tally of a session.
type Summary struct {
	Reviewed  int `json:"reviewed_count"`
	Mastered  int `json:"mastered_count"`
	NeedsWork int `json:"needs_work_count"`
}

// Session walks a fixed queue of cards once. It is not safe for concurrent
// use; the owner serializes calls.
type Session struct {
	queue   []Card
	index   int
	status  Status
	summary Summary
}

// NewSession starts a session over cards. An empty queue yields a session
// that is already complete.
func NewSession(cards []Card) *Session {
	s := &Session{
		queue:  slices.Clone(cards),
		status: StatusActive,
	}
	if len(s.queue) == 0 {
		s.status = StatusComplete
	}
	return s
}

func (s *Session) Status() Status   { return s.status }
func (s *Session) Summary() Summary { return s.summary }
func (s *Session) Len() int         { return len(s.queue) }

// Position is the 0-based index of the current card; it equals Len once the
// queue has been exhausted.
func (s *Session) Position() int { return s.index }

// Remaining is the number of cards not yet rated. Zero for abandoned sessions.
func (s *Session) Remaining() int {
	if s.status != StatusActive {
		return 0
	}
	return len(s.queue) - s.index
}

// Current returns the card awaiting a rating.
func (s *Session) Current() (Card, error) {
	if s.status != StatusActive {
		return Card{}, fmt.Errorf("%w: session is %s", ErrInvalidSessionState, s.status)
	}
	return s.queue[s.index], nil
}

// Rate schedules the current card with quality q and hands the result to
// persist. The session only advances when persist succeeds; on any error the
// session is left exactly as it was. A nil persist skips the write.
func (s *Session) Rate(q Quality, now time.Time, persist func(Card) error) (Card, error) {
	current, err := s.Current()
	if err != nil {
		return Card{}, err
	}
	return s.RateLatest(current, q, now, persist)
}

// RateLatest is Rate scheduled from latest, a fresher copy of the current
// card read back from the store, instead of the copy queued at start.
func (s *Session) RateLatest(latest Card, q Quality, now time.Time, persist func(Card) error) (Card, error) {
	current, err := s.Current()
	if err != nil {
		return Card{}, err
	}
	if latest.ID != current.ID {
		return Card{}, fmt.Errorf("%w: %s is not the current card", ErrCardNotFound, latest.ID)
	}

	next, err := ScheduleNext(latest.State, q, now)
	if err != nil {
		return Card{}, err
	}
	updated := latest
	updated.State = next

	if persist != nil {
		if err := persist(updated); err != nil {
			return Card{}, err
		}
	}

	s.queue[s.index] = updated
	s.index++
	s.summary.Reviewed++
	switch OutcomeOf(q) {
	case OutcomeMastered:
		s.summary.Mastered++
	case OutcomeNeedsWork:
		s.summary.NeedsWork++
	}
	if s.index == len(s.queue) {
		s.status = StatusComplete
	}
	return updated, nil
}

// Abandon ends an active session early. Cards not yet rated are untouched.
func (s *Session) Abandon() error {
	if s.status != StatusActive {
		return fmt.Errorf("%w: cannot abandon a %s session", ErrInvalidSessionState, s.status)
	}
	s.status = StatusAbandoned
	return nil
}

// Unrated returns copies of the cards that were not rated. After Abandon these
// are the cards whose schedule was left alone.
func (s *Session) Unrated() []Card {
	return slices.Clone(s.queue[s.index:])
}
