package db

import (
	"fmt"
	"time"
)

// StudyStats contains statistics about user's learning activity
type StudyStats struct {
	// Today's statistics
	CardsStudiedToday int `json:"cards_studied_today"`
	MasteredToday     int `json:"mastered_today"`
	NeedsWorkToday    int `json:"needs_work_today"`

	// Overall statistics
	TotalCards   int `json:"total_cards"`
	TotalReviews int `json:"total_reviews"`
	StudyDays    int `json:"study_days"`
	StreakDays   int `json:"streak_days"`
}

// StudyHistoryItem represents study activity for a single day
type StudyHistoryItem struct {
	Date      string `json:"date"` // Format: "YYYY-MM-DD"
	CardCount int    `json:"card_count"`
}

const dateLayout = "2006-01-02"

// GetUserStudyStats retrieves study statistics for a user. Days are UTC days.
func (s *Storage) GetUserStudyStats(userID string, now time.Time) (StudyStats, error) {
	stats := StudyStats{}

	now = now.UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	todayEnd := todayStart.Add(24 * time.Hour)

	todayStatsQuery := `
		SELECT
			COUNT(*),
			IFNULL(SUM(CASE WHEN r.quality >= 5 THEN 1 ELSE 0 END), 0),
			IFNULL(SUM(CASE WHEN r.quality <= 2 THEN 1 ELSE 0 END), 0)
		FROM reviews r
		JOIN cards c ON c.id = r.card_id
		WHERE r.user_id = ?
		AND c.deleted_at IS NULL
		AND julianday(r.reviewed_at) >= julianday(?)
		AND julianday(r.reviewed_at) < julianday(?)
	`

	err := s.db.QueryRow(todayStatsQuery, userID, todayStart, todayEnd).
		Scan(&stats.CardsStudiedToday, &stats.MasteredToday, &stats.NeedsWorkToday)
	if err != nil {
		return stats, fmt.Errorf("error getting today's stats: %w", err)
	}

	totalCardsQuery := `
		SELECT COUNT(*)
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		WHERE d.user_id = ? AND d.deleted_at IS NULL AND c.deleted_at IS NULL
	`
	if err := s.db.QueryRow(totalCardsQuery, userID).Scan(&stats.TotalCards); err != nil {
		return stats, fmt.Errorf("error counting cards: %w", err)
	}

	daysQuery := `
		SELECT DATE(r.reviewed_at) AS study_date, COUNT(*)
		FROM reviews r
		JOIN cards c ON c.id = r.card_id
		WHERE r.user_id = ? AND c.deleted_at IS NULL
		GROUP BY study_date
		ORDER BY study_date DESC
	`

	rows, err := s.db.Query(daysQuery, userID)
	if err != nil {
		return stats, fmt.Errorf("error getting study days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return stats, fmt.Errorf("error scanning study day: %w", err)
		}
		days = append(days, day)
		stats.TotalReviews += count
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("error iterating study days: %w", err)
	}

	stats.StudyDays = len(days)
	stats.StreakDays = streak(days, todayStart)

	return stats, nil
}

// streak counts consecutive study days ending today or yesterday.
// days must be sorted newest first.
func streak(days []string, today time.Time) int {
	if len(days) == 0 {
		return 0
	}

	expected := today
	if days[0] != today.Format(dateLayout) {
		expected = today.AddDate(0, 0, -1)
	}

	n := 0
	for _, day := range days {
		if day != expected.Format(dateLayout) {
			break
		}
		n++
		expected = expected.AddDate(0, 0, -1)
	}

	return n
}

// GetUserStudyHistory retrieves study history for a user for the last N days
func (s *Storage) GetUserStudyHistory(userID string, days int, now time.Time) ([]StudyHistoryItem, error) {
	history := []StudyHistoryItem{}

	if days <= 0 {
		days = 100
	}

	now = now.UTC()
	startDate := now.AddDate(0, 0, -days)

	query := `
		SELECT DATE(r.reviewed_at) AS study_date, COUNT(*)
		FROM reviews r
		JOIN cards c ON c.id = r.card_id
		WHERE r.user_id = ?
		AND c.deleted_at IS NULL
		AND DATE(r.reviewed_at) >= ?
		AND DATE(r.reviewed_at) <= ?
		GROUP BY study_date
		ORDER BY study_date ASC
	`

	rows, err := s.db.Query(query, userID, startDate.Format(dateLayout), now.Format(dateLayout))
	if err != nil {
		return history, fmt.Errorf("error getting study history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item StudyHistoryItem
		if err := rows.Scan(&item.Date, &item.CardCount); err != nil {
			return history, fmt.Errorf("error scanning study history: %w", err)
		}
		history = append(history, item)
	}

	if err := rows.Err(); err != nil {
		return history, err
	}

	return history, nil
}
