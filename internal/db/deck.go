package db

import (
	"database/sql"
	"errors"
	"fmt"
	nanoid "github.com/matoous/go-nanoid/v2"
	"studyhub/internal/srs"
	"time"
)

// Deck is a named collection of cards. CardIDs is derived from the cards
// table on every read and never written directly.
type Deck struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Title     string     `db:"title" json:"title"`
	Subject   string     `db:"subject" json:"subject"`
	CardIDs   []string   `json:"card_ids"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

func (s *Storage) CreateDeck(userID, title, subject string, now time.Time) (*Deck, error) {
	deck := &Deck{
		ID:        nanoid.Must(),
		UserID:    userID,
		Title:     title,
		Subject:   subject,
		CardIDs:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO decks (id, user_id, title, subject, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, deck.ID, deck.UserID, deck.Title, deck.Subject, deck.CreatedAt, deck.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating deck: %w", err)
	}

	return deck, nil
}

// CreateDeckWithCards creates a deck and its cards in one transaction, so a
// failed insert leaves no empty deck behind.
func (s *Storage) CreateDeckWithCards(userID, title, subject string, inputs []CardInput, now time.Time) (*Deck, []srs.Card, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	deck := &Deck{
		ID:        nanoid.Must(),
		UserID:    userID,
		Title:     title,
		Subject:   subject,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = tx.Exec(`
		INSERT INTO decks (id, user_id, title, subject, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, deck.ID, deck.UserID, deck.Title, deck.Subject, deck.CreatedAt, deck.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating deck: %w", err)
	}

	cards, err := insertCards(tx, deck.ID, inputs, now)
	if err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("error committing transaction: %w", err)
	}

	deck.CardIDs = make([]string, 0, len(cards))
	for _, c := range cards {
		deck.CardIDs = append(deck.CardIDs, c.ID)
	}

	return deck, cards, nil
}

func (s *Storage) GetDecks(userID string) ([]Deck, error) {
	query := `
		SELECT id, user_id, title, subject, created_at, updated_at, deleted_at
		FROM decks
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id
	`
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting decks: %w", err)
	}
	defer rows.Close()

	decks := []Deck{}
	for rows.Next() {
		var deck Deck
		if err := rows.Scan(
			&deck.ID,
			&deck.UserID,
			&deck.Title,
			&deck.Subject,
			&deck.CreatedAt,
			&deck.UpdatedAt,
			&deck.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning deck: %w", err)
		}
		decks = append(decks, deck)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deck rows: %w", err)
	}

	members, err := s.cardIDsByDeck(userID)
	if err != nil {
		return nil, err
	}
	for i := range decks {
		decks[i].CardIDs = members[decks[i].ID]
		if decks[i].CardIDs == nil {
			decks[i].CardIDs = []string{}
		}
	}

	return decks, nil
}

func (s *Storage) GetDeck(deckID string) (*Deck, error) {
	query := `
		SELECT id, user_id, title, subject, created_at, updated_at, deleted_at
		FROM decks
		WHERE id = ? AND deleted_at IS NULL
	`

	var deck Deck
	err := s.db.QueryRow(query, deckID).Scan(
		&deck.ID,
		&deck.UserID,
		&deck.Title,
		&deck.Subject,
		&deck.CreatedAt,
		&deck.UpdatedAt,
		&deck.DeletedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting deck: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT id FROM cards
		WHERE deck_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id
	`, deckID)
	if err != nil {
		return nil, fmt.Errorf("error getting deck cards: %w", err)
	}
	defer rows.Close()

	deck.CardIDs = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning card id: %w", err)
		}
		deck.CardIDs = append(deck.CardIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card id rows: %w", err)
	}

	return &deck, nil
}

func (s *Storage) cardIDsByDeck(userID string) (map[string][]string, error) {
	rows, err := s.db.Query(`
		SELECT c.deck_id, c.id
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		WHERE d.user_id = ? AND d.deleted_at IS NULL AND c.deleted_at IS NULL
		ORDER BY c.created_at, c.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting deck members: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string)
	for rows.Next() {
		var deckID, cardID string
		if err := rows.Scan(&deckID, &cardID); err != nil {
			return nil, fmt.Errorf("error scanning deck member: %w", err)
		}
		members[deckID] = append(members[deckID], cardID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deck member rows: %w", err)
	}

	return members, nil
}

func (s *Storage) UpdateDeck(deckID, title, subject string, now time.Time) error {
	res, err := s.db.Exec(`
		UPDATE decks SET title = ?, subject = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, title, subject, now, deckID)
	if err != nil {
		return fmt.Errorf("error updating deck: %w", err)
	}

	return expectAffected(res)
}

// DeleteDeck removes the deck together with its cards.
func (s *Storage) DeleteDeck(deckID string, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.Exec(`UPDATE decks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now, deckID)
	if err != nil {
		return fmt.Errorf("error deleting deck: %w", err)
	}
	if err = expectAffected(res); err != nil {
		return err
	}

	if _, err = tx.Exec(`UPDATE cards SET deleted_at = ? WHERE deck_id = ? AND deleted_at IS NULL`, now, deckID); err != nil {
		return fmt.Errorf("error deleting deck cards: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
