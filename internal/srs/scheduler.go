package srs

import (
	"math"
	"time"
)

// Constants of the SM-2 algorithm.
const (
	MinEasiness     = 1.3
	InitialEasiness = 2.5

	firstIntervalDays  = 1
	secondIntervalDays = 6
	lapseIntervalDays  = 1
)

const day = 24 * time.Hour

// ScheduleNext applies one SM-2 review with quality q at time now and returns
// the resulting state. The input state is not modified.
//
// A state carrying an easiness factor below the floor is clamped before use.
// The returned interval is always at least one day.
func ScheduleNext(state State, q Quality, now time.Time) (State, error) {
	if err := q.validate(); err != nil {
		return state, err
	}

	prev := sanitize(state)
	ef := nextEasiness(prev.EasinessFactor, q)

	next := State{EasinessFactor: ef}
	if q.IsLapse() {
		next.Repetitions = 0
		next.IntervalDays = lapseIntervalDays
	} else {
		next.Repetitions = prev.Repetitions + 1
		next.IntervalDays = nextInterval(next.Repetitions, prev.IntervalDays, ef)
	}

	reviewedAt := now
	next.LastReviewedAt = &reviewedAt
	next.NextReviewAt = now.Add(time.Duration(next.IntervalDays) * day)
	return next, nil
}

// nextEasiness computes EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02)),
// floored at MinEasiness.
func nextEasiness(ef float64, q Quality) float64 {
	d := float64(QualityMax - q)
	ef += 0.1 - d*(0.08+d*0.02)
	return math.Max(ef, MinEasiness)
}

func nextInterval(repetitions, prevInterval int, ef float64) int {
	switch repetitions {
	case 1:
		return firstIntervalDays
	case 2:
		return secondIntervalDays
	}
	interval := int(math.Round(float64(prevInterval) * ef))
	if interval < firstIntervalDays {
		return firstIntervalDays
	}
	return interval
}

// sanitize repairs values a corrupted caller could hand in.
func sanitize(s State) State {
	if s.EasinessFactor < MinEasiness || math.IsNaN(s.EasinessFactor) {
		s.EasinessFactor = MinEasiness
	}
	if s.Repetitions < 0 {
		s.Repetitions = 0
	}
	if s.IntervalDays < 0 {
		s.IntervalDays = 0
	}
	return s
}
