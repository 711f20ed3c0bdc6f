package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run summarises one search over a document.
type Run struct {
	ID           string
	DocumentID   string
	SourceLang   string
	TargetLang   string
	InitialScore float64
	FinalScore   float64
	Steps        int
	Accepted     int
	Underflows   int
	Sentences    []float64
	CreatedAt    time.Time
}

// SaveRun stores r and its per-sentence scores. An empty ID is replaced by a
// new UUID, which is returned.
func (s *Store) SaveRun(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO score_runs (id, document_id, source_lang, target_lang, initial_score, final_score, steps, accepted, underflows, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.DocumentID, r.SourceLang, r.TargetLang, r.InitialScore, r.FinalScore, r.Steps, r.Accepted, r.Underflows, r.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i, score := range r.Sentences {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO score_run_sentences (run_id, sentence_idx, score) VALUES (?, ?, ?)`,
			r.ID, i, score); err != nil {
			return "", fmt.Errorf("failed to insert sentence %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return r.ID, nil
}

// GetRun returns a run with its sentence scores.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx,
		`SELECT id, document_id, source_lang, target_lang, initial_score, final_score, steps, accepted, underflows, created_at
		 FROM score_runs WHERE id = ?`, id).Scan(
		&r.ID, &r.DocumentID, &r.SourceLang, &r.TargetLang, &r.InitialScore, &r.FinalScore,
		&r.Steps, &r.Accepted, &r.Underflows, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT score FROM score_run_sentences WHERE run_id = ? ORDER BY sentence_idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, err
		}
		r.Sentences = append(r.Sentences, score)
	}
	return &r, rows.Err()
}

// ListRuns returns runs newest first, optionally filtered by document ID.
// Sentence scores are not loaded.
func (s *Store) ListRuns(ctx context.Context, documentID string) ([]Run, error) {
	query := `SELECT id, document_id, source_lang, target_lang, initial_score, final_score, steps, accepted, underflows, created_at
		FROM score_runs`
	var args []interface{}
	if documentID != "" {
		query += ` WHERE document_id = ?`
		args = append(args, documentID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.SourceLang, &r.TargetLang, &r.InitialScore, &r.FinalScore,
			&r.Steps, &r.Accepted, &r.Underflows, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
