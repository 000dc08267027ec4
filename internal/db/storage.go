package db

import (
	"database/sql"
	"errors"
	"fmt"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("not found")

type Storage struct {
	db *sql.DB
}

// ConnectDB opens the SQLite database at dbPath and applies the schema.
// ":memory:" is accepted for tests.
func ConnectDB(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// a single connection keeps writes serialized and makes :memory: databases usable
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.UpdateSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error applying schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
