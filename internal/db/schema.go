package db

// UpdateSchema creates the study tables if they do not exist yet
func (s *Storage) UpdateSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		telegram_id INTEGER UNIQUE,
		username TEXT,
		name TEXT,
		avatar_url TEXT,
		language_code TEXT NOT NULL DEFAULT 'en',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP
	);
	-- Decks table
	CREATE TABLE IF NOT EXISTS decks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		deleted_at TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);
	-- Cards table; scheduling state lives on the card itself
	CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		deck_id TEXT NOT NULL,
		front TEXT NOT NULL,
		back TEXT NOT NULL,
		hint TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT '',
		repetitions INTEGER NOT NULL DEFAULT 0,
		easiness_factor REAL NOT NULL DEFAULT 2.5,
		interval_days INTEGER NOT NULL DEFAULT 0,
		next_review_at TIMESTAMP NOT NULL,
		last_reviewed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		deleted_at TIMESTAMP,
		FOREIGN KEY (deck_id) REFERENCES decks(id)
	);
	-- Reviews history table
	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		card_id TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		quality INTEGER NOT NULL,
		reviewed_at TIMESTAMP NOT NULL,
		prev_interval INTEGER NOT NULL,
		new_interval INTEGER NOT NULL,
		prev_ease REAL NOT NULL,
		new_ease REAL NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (card_id) REFERENCES cards(id)
	);
	-- Finished study sessions; deck_id is empty for sessions over every deck
	CREATE TABLE IF NOT EXISTS study_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		deck_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		reviewed INTEGER NOT NULL DEFAULT 0,
		mastered INTEGER NOT NULL DEFAULT 0,
		needs_work INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_cards_next_review ON cards(next_review_at);
	CREATE INDEX IF NOT EXISTS idx_cards_deck_id ON cards(deck_id);
	CREATE INDEX IF NOT EXISTS idx_decks_user_id ON decks(user_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_user_reviewed ON reviews(user_id, reviewed_at);
	CREATE INDEX IF NOT EXISTS idx_study_sessions_user ON study_sessions(user_id, deck_id, ended_at);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return err
	}

	return nil
}
