package db

import (
	"fmt"
	"studyhub/internal/srs"
	"time"
)

// SessionResult is the stored outcome of a finished study session.
type SessionResult struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	DeckID    string     `db:"deck_id" json:"deck_id,omitempty"`
	Status    srs.Status `db:"status" json:"status"`
	Reviewed  int        `db:"reviewed" json:"reviewed_count"`
	Mastered  int        `db:"mastered" json:"mastered_count"`
	NeedsWork int        `db:"needs_work" json:"needs_work_count"`
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	EndedAt   time.Time  `db:"ended_at" json:"ended_at"`
}

func (r SessionResult) Summary() srs.Summary {
	return srs.Summary{Reviewed: r.Reviewed, Mastered: r.Mastered, NeedsWork: r.NeedsWork}
}

func (s *Storage) SaveSessionResult(r SessionResult) error {
	_, err := s.db.Exec(`
		INSERT INTO study_sessions (id, user_id, deck_id, status, reviewed, mastered, needs_work, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			reviewed = excluded.reviewed,
			mastered = excluded.mastered,
			needs_work = excluded.needs_work,
			ended_at = excluded.ended_at
	`, r.ID, r.UserID, r.DeckID, string(r.Status), r.Reviewed, r.Mastered, r.NeedsWork, r.StartedAt, r.EndedAt)
	if err != nil {
		return fmt.Errorf("error saving session result: %w", err)
	}

	return nil
}

// LatestSessionResults returns the most recent session outcome per deck id.
// Sessions that spanned every deck are keyed by the empty string.
func (s *Storage) LatestSessionResults(userID string) (map[string]srs.Summary, error) {
	rows, err := s.db.Query(`
		SELECT deck_id, reviewed, mastered, needs_work
		FROM study_sessions
		WHERE user_id = ?
		ORDER BY julianday(ended_at), id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting session results: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]srs.Summary)
	for rows.Next() {
		var deckID string
		var sum srs.Summary
		if err := rows.Scan(&deckID, &sum.Reviewed, &sum.Mastered, &sum.NeedsWork); err != nil {
			return nil, fmt.Errorf("error scanning session result: %w", err)
		}
		// later rows win
		latest[deckID] = sum
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	return latest, nil
}
