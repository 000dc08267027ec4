package db

import (
	"database/sql"
	"errors"
	"fmt"
	nanoid "github.com/matoous/go-nanoid/v2"
	"studyhub/internal/srs"
	"time"
)

// CardInput is the content of a card as supplied by its author.
type CardInput struct {
	Front      string `json:"front" validate:"required"`
	Back       string `json:"back" validate:"required"`
	Hint       string `json:"hint,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

const cardColumns = `c.id, c.deck_id, c.front, c.back, c.hint, c.difficulty,
		c.repetitions, c.easiness_factor, c.interval_days, c.next_review_at, c.last_reviewed_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (srs.Card, error) {
	var card srs.Card
	err := row.Scan(
		&card.ID,
		&card.DeckID,
		&card.Front,
		&card.Back,
		&card.Hint,
		&card.Difficulty,
		&card.Repetitions,
		&card.EasinessFactor,
		&card.IntervalDays,
		&card.NextReviewAt,
		&card.LastReviewedAt,
	)
	return card, err
}

func newCard(deckID string, in CardInput, now time.Time) srs.Card {
	return srs.Card{
		ID:         nanoid.Must(),
		DeckID:     deckID,
		Front:      in.Front,
		Back:       in.Back,
		Hint:       in.Hint,
		Difficulty: in.Difficulty,
		State:      srs.NewState(now),
	}
}

const insertCardQuery = `
	INSERT INTO cards (id, deck_id, front, back, hint, difficulty,
		repetitions, easiness_factor, interval_days, next_review_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (s *Storage) AddCard(deckID string, in CardInput, now time.Time) (*srs.Card, error) {
	cards, err := s.AddCardsInBatch(deckID, []CardInput{in}, now)
	if err != nil {
		return nil, err
	}
	return &cards[0], nil
}

// AddCardsInBatch creates every card in one transaction. Each card starts
// with a fresh schedule and is due at now.
func (s *Storage) AddCardsInBatch(deckID string, inputs []CardInput, now time.Time) ([]srs.Card, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	err = tx.QueryRow(`SELECT COUNT(*) FROM decks WHERE id = ? AND deleted_at IS NULL`, deckID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("error checking deck: %w", err)
	}
	if exists == 0 {
		err = ErrNotFound
		return nil, err
	}

	cards, err := insertCards(tx, deckID, inputs, now)
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(`UPDATE decks SET updated_at = ? WHERE id = ?`, now, deckID); err != nil {
		return nil, fmt.Errorf("error touching deck: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}

	return cards, nil
}

func insertCards(tx *sql.Tx, deckID string, inputs []CardInput, now time.Time) ([]srs.Card, error) {
	stmt, err := tx.Prepare(insertCardQuery)
	if err != nil {
		return nil, fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close()

	cards := make([]srs.Card, 0, len(inputs))
	for i, in := range inputs {
		card := newCard(deckID, in, now)
		_, err = stmt.Exec(
			card.ID,
			card.DeckID,
			card.Front,
			card.Back,
			card.Hint,
			card.Difficulty,
			card.Repetitions,
			card.EasinessFactor,
			card.IntervalDays,
			card.NextReviewAt,
			now,
			now,
		)
		if err != nil {
			return nil, fmt.Errorf("error inserting card %d: %w", i, err)
		}
		cards = append(cards, card)
	}

	return cards, nil
}

func (s *Storage) GetCard(cardID string) (*srs.Card, error) {
	query := `SELECT ` + cardColumns + `
		FROM cards c
		WHERE c.id = ? AND c.deleted_at IS NULL
	`

	card, err := scanCard(s.db.QueryRow(query, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting card: %w", err)
	}

	return &card, nil
}

// ListCards returns the live cards of one of the user's decks, or of all of
// them when deckID is empty.
func (s *Storage) ListCards(userID, deckID string) ([]srs.Card, error) {
	query := `SELECT ` + cardColumns + `
		FROM cards c
		JOIN decks d ON d.id = c.deck_id AND d.user_id = ? AND d.deleted_at IS NULL
		WHERE c.deleted_at IS NULL
	`
	args := []any{userID}
	if deckID != "" {
		query += ` AND c.deck_id = ?`
		args = append(args, deckID)
	}
	query += ` ORDER BY c.created_at, c.id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing cards: %w", err)
	}
	defer rows.Close()

	cards := []srs.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning card: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card rows: %w", err)
	}

	return cards, nil
}

// UpdateCard replaces the content of a card. The schedule is not touched.
func (s *Storage) UpdateCard(cardID string, in CardInput, now time.Time) error {
	res, err := s.db.Exec(`
		UPDATE cards SET front = ?, back = ?, hint = ?, difficulty = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, in.Front, in.Back, in.Hint, in.Difficulty, now, cardID)
	if err != nil {
		return fmt.Errorf("error updating card: %w", err)
	}

	return expectAffected(res)
}

func (s *Storage) DeleteCard(cardID string, now time.Time) error {
	res, err := s.db.Exec(`UPDATE cards SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now, cardID)
	if err != nil {
		return fmt.Errorf("error deleting card: %w", err)
	}

	return expectAffected(res)
}

// MoveCard reassigns a card to another live deck.
func (s *Storage) MoveCard(cardID, toDeckID string, now time.Time) error {
	res, err := s.db.Exec(`
		UPDATE cards SET deck_id = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
		AND EXISTS (SELECT 1 FROM decks WHERE id = ? AND deleted_at IS NULL)
	`, toDeckID, now, cardID, toDeckID)
	if err != nil {
		return fmt.Errorf("error moving card: %w", err)
	}

	return expectAffected(res)
}
