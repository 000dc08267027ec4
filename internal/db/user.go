package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type User struct {
	ID           string     `db:"id" json:"id"`
	TelegramID   int64      `db:"telegram_id" json:"telegram_id"`
	Username     *string    `db:"username" json:"username"`
	Name         *string    `db:"name" json:"name"`
	AvatarURL    *string    `db:"avatar_url" json:"avatar_url"`
	LanguageCode string     `db:"language_code" json:"language_code"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

const userColumns = `id, telegram_id, username, name, avatar_url, language_code, created_at, updated_at, deleted_at`

func scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.Name,
		&user.AvatarURL,
		&user.LanguageCode,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return &user, nil
}

func (s *Storage) GetUser(telegramID int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = ? AND deleted_at IS NULL`
	return scanUser(s.db.QueryRow(query, telegramID))
}

func (s *Storage) GetUserByID(id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND deleted_at IS NULL`
	return scanUser(s.db.QueryRow(query, id))
}

func (s *Storage) SaveUser(user *User) error {
	query := `
		INSERT INTO users
		    (id, telegram_id, username, name, avatar_url, language_code)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, user.ID, user.TelegramID, user.Username, user.Name, user.AvatarURL, user.LanguageCode)
	if err != nil {
		return fmt.Errorf("error saving user: %w", err)
	}

	return nil
}

func (s *Storage) UpdateUser(user *User) error {
	query := `
		UPDATE users
		SET username = ?, name = ?, avatar_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE telegram_id = ?`

	_, err := s.db.Exec(query, user.Username, user.Name, user.AvatarURL, user.TelegramID)
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}

	return nil
}
