// Package store persists connective lexicons, phrase-pair counts used to
// seed occurrence ledgers, and the results of search runs in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	-- lexicon_terms holds one accepted rendering per row; rows of the same
	-- connective are read back in insertion order
	CREATE TABLE IF NOT EXISTS lexicon_terms (
		id TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		connective TEXT NOT NULL,
		accepted TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_lang, target_lang, connective, accepted)
	);

	-- phrase_counts seeds the occurrence ledger of new documents
	CREATE TABLE IF NOT EXISTS phrase_counts (
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_phrase TEXT NOT NULL,
		target_phrase TEXT NOT NULL,
		count INTEGER NOT NULL CHECK (count > 0),
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (source_lang, target_lang, source_phrase, target_phrase)
	);

	CREATE TABLE IF NOT EXISTS score_runs (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		initial_score REAL NOT NULL,
		final_score REAL NOT NULL,
		steps INTEGER NOT NULL,
		accepted INTEGER NOT NULL,
		underflows INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS score_run_sentences (
		run_id TEXT NOT NULL,
		sentence_idx INTEGER NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (run_id, sentence_idx),
		FOREIGN KEY (run_id) REFERENCES score_runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_lexicon_lookup ON lexicon_terms(source_lang, target_lang);
	CREATE INDEX IF NOT EXISTS idx_runs_document ON score_runs(document_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace, collapses inner runs of whitespace and
// applies Unicode NFC normalization for consistent key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.Join(strings.Fields(text), " "))
}

func newID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}
