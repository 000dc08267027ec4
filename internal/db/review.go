package db

import (
	"fmt"
	nanoid "github.com/matoous/go-nanoid/v2"
	"studyhub/internal/srs"
	"time"
)

// Review is one entry of the review history.
type Review struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	CardID       string    `db:"card_id" json:"card_id"`
	SessionID    string    `db:"session_id" json:"session_id,omitempty"`
	Quality      int       `db:"quality" json:"quality"`
	ReviewedAt   time.Time `db:"reviewed_at" json:"reviewed_at"`
	PrevInterval int       `db:"prev_interval" json:"prev_interval"`
	NewInterval  int       `db:"new_interval" json:"new_interval"`
	PrevEase     float64   `db:"prev_ease" json:"prev_ease"`
	NewEase      float64   `db:"new_ease" json:"new_ease"`
}

// SaveReview stores the rescheduled card and appends review to the history
// in a single transaction. ErrNotFound is returned if the card is gone.
func (s *Storage) SaveReview(card srs.Card, review Review) error {
	if review.ID == "" {
		review.ID = nanoid.Must()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.Exec(`
		UPDATE cards
		SET repetitions = ?, easiness_factor = ?, interval_days = ?, next_review_at = ?, last_reviewed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`,
		card.Repetitions,
		card.EasinessFactor,
		card.IntervalDays,
		card.NextReviewAt,
		card.LastReviewedAt,
		review.ReviewedAt,
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating card schedule: %w", err)
	}
	if err = expectAffected(res); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO reviews (id, user_id, card_id, session_id, quality, reviewed_at, prev_interval, new_interval, prev_ease, new_ease)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		review.ID,
		review.UserID,
		card.ID,
		review.SessionID,
		review.Quality,
		review.ReviewedAt,
		review.PrevInterval,
		review.NewInterval,
		review.PrevEase,
		review.NewEase,
	)
	if err != nil {
		return fmt.Errorf("error creating review: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

// GetCardReviews returns the history of a card, oldest first.
func (s *Storage) GetCardReviews(cardID string) ([]Review, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, card_id, session_id, quality, reviewed_at, prev_interval, new_interval, prev_ease, new_ease
		FROM reviews
		WHERE card_id = ?
		ORDER BY reviewed_at, id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("error getting reviews: %w", err)
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var r Review
		if err := rows.Scan(
			&r.ID,
			&r.UserID,
			&r.CardID,
			&r.SessionID,
			&r.Quality,
			&r.ReviewedAt,
			&r.PrevInterval,
			&r.NewInterval,
			&r.PrevEase,
			&r.NewEase,
		); err != nil {
			return nil, fmt.Errorf("error scanning review: %w", err)
		}
		reviews = append(reviews, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review rows: %w", err)
	}

	return reviews, nil
}

// ResetProgress puts the cards of one deck (or of every deck of the user when
// deckID is empty) back to a fresh, immediately due schedule.
func (s *Storage) ResetProgress(userID, deckID string, now time.Time) (int64, error) {
	query := `
		UPDATE cards
		SET repetitions = 0, easiness_factor = ?, interval_days = 0, next_review_at = ?, last_reviewed_at = NULL, updated_at = ?
		WHERE deleted_at IS NULL AND deck_id IN (
			SELECT id FROM decks WHERE user_id = ? AND deleted_at IS NULL
		)
	`
	args := []any{srs.InitialEasiness, now, now, userID}

	if deckID != "" {
		query += ` AND deck_id = ?`
		args = append(args, deckID)
	}

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("error resetting card progress: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}

	return n, nil
}
