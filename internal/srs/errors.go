package srs

import "errors"

// Sentinel errors returned by the scheduler and the review session.
// Callers match them with errors.Is.
var (
	ErrInvalidRating       = errors.New("srs: invalid rating")
	ErrInvalidSessionState = errors.New("srs: invalid session state")
	ErrCardNotFound        = errors.New("srs: card not found")
)
