package srs

import "fmt"

// Quality is a recall rating on the SM-2 scale, 0 (blackout) to 5 (perfect).
type Quality int

const (
	QualityMin Quality = 0
	QualityMax Quality = 5

	// SuccessThreshold is the lowest quality that does not count as a lapse.
	SuccessThreshold Quality = 3

	// Qualities supplied by the two-outcome swipe surface.
	QualityNeedsWork Quality = 2
	QualityMastered  Quality = 5
)

// IsValid reports whether q lies within 0..5.
func (q Quality) IsValid() bool {
	return q >= QualityMin && q <= QualityMax
}

// IsLapse reports whether q resets the repetition streak.
func (q Quality) IsLapse() bool {
	return q < SuccessThreshold
}

func (q Quality) validate() error {
	if !q.IsValid() {
		return fmt.Errorf("%w: %d is outside %d..%d", ErrInvalidRating, int(q), int(QualityMin), int(QualityMax))
	}
	return nil
}

// Outcome is the bucket a rating falls into for session statistics.
type Outcome string

const (
	OutcomeNeedsWork Outcome = "needs_work"
	OutcomeMastered  Outcome = "mastered"
	OutcomeNeutral   Outcome = "neutral"
)

// OutcomeOf classifies q. Qualities 3 and 4 are neither mastered nor needs work.
func OutcomeOf(q Quality) Outcome {
	switch {
	case q <= QualityNeedsWork:
		return OutcomeNeedsWork
	case q >= QualityMastered:
		return OutcomeMastered
	default:
		return OutcomeNeutral
	}
}

// Swipe is the coarse gesture the study UI reports.
type Swipe string

const (
	SwipeLeft  Swipe = "left"
	SwipeRight Swipe = "right"
)

// QualityForSwipe maps a swipe onto the quality scale:
// left is "needs work" (2), right is "mastered" (5).
func QualityForSwipe(s Swipe) (Quality, error) {
	switch s {
	case SwipeLeft:
		return QualityNeedsWork, nil
	case SwipeRight:
		return QualityMastered, nil
	default:
		return 0, fmt.Errorf("%w: unknown swipe %q", ErrInvalidRating, string(s))
	}
}
