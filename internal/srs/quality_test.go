package srs

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestQualityForSwipe(t *testing.T) {
	q, err := QualityForSwipe(SwipeLeft)
	require.NoError(t, err)
	assert.Equal(t, Quality(2), q)

	q, err = QualityForSwipe(SwipeRight)
	require.NoError(t, err)
	assert.Equal(t, Quality(5), q)

	_, err = QualityForSwipe("up")
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		q    Quality
		want Outcome
	}{
		{0, OutcomeNeedsWork},
		{2, OutcomeNeedsWork},
		{3, OutcomeNeutral},
		{4, OutcomeNeutral},
		{5, OutcomeMastered},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutcomeOf(tt.q), "quality %d", tt.q)
	}
}
