package store

import (
	"context"
	"fmt"
	"time"

	"github.com/valpere/peredisc/internal/lexicon"
)

// LexiconTerm is a row in the lexicon_terms table.
type LexiconTerm struct {
	ID         string
	SourceLang string
	TargetLang string
	Connective string
	Accepted   string
	CreatedAt  time.Time
}

// AddLexiconTerm inserts an accepted rendering for a connective. Adding an
// existing rendering is a no-op.
func (s *Store) AddLexiconTerm(ctx context.Context, sourceLang, targetLang, connective, accepted string) error {
	connective, accepted = normalizeText(connective), normalizeText(accepted)
	if connective == "" || accepted == "" {
		return fmt.Errorf("connective and accepted rendering must be non-empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO lexicon_terms (id, source_lang, target_lang, connective, accepted)
		 VALUES (?, ?, ?, ?, ?)`,
		newID("lx"), sourceLang, targetLang, connective, accepted)
	return err
}

// ListLexiconTerms returns all lexicon rows, optionally filtered by language
// pair (pass empty strings to return everything).
func (s *Store) ListLexiconTerms(ctx context.Context, sourceLang, targetLang string) ([]LexiconTerm, error) {
	query := `SELECT id, source_lang, target_lang, connective, accepted, created_at FROM lexicon_terms`
	var args []interface{}

	switch {
	case sourceLang != "" && targetLang != "":
		query += ` WHERE source_lang = ? AND target_lang = ?`
		args = append(args, sourceLang, targetLang)
	case sourceLang != "":
		query += ` WHERE source_lang = ?`
		args = append(args, sourceLang)
	case targetLang != "":
		query += ` WHERE target_lang = ?`
		args = append(args, targetLang)
	}
	query += ` ORDER BY source_lang, target_lang, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []LexiconTerm
	for rows.Next() {
		var e LexiconTerm
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.Connective, &e.Accepted, &e.CreatedAt); err != nil {
			return nil, err
		}
		terms = append(terms, e)
	}
	return terms, rows.Err()
}

// DeleteLexiconTerm removes a lexicon row by ID.
func (s *Store) DeleteLexiconTerm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lexicon_terms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("lexicon term not found: %s", id)
	}
	return nil
}

// LoadLexicon assembles the stored rows of a language pair into a Lexicon.
// Connectives appear in the order their first rendering was added.
func (s *Store) LoadLexicon(ctx context.Context, sourceLang, targetLang string, mode lexicon.Mode) (lexicon.Lexicon, error) {
	terms, err := s.ListLexiconTerms(ctx, sourceLang, targetLang)
	if err != nil {
		return lexicon.Lexicon{}, err
	}

	lex := lexicon.Lexicon{SourceLang: sourceLang, TargetLang: targetLang, Mode: mode}
	index := make(map[string]int)
	for _, t := range terms {
		i, ok := index[t.Connective]
		if !ok {
			i = len(lex.Connectives)
			index[t.Connective] = i
			lex.Connectives = append(lex.Connectives, lexicon.Entry{Connective: t.Connective})
		}
		lex.Connectives[i].Accepted = append(lex.Connectives[i].Accepted, t.Accepted)
	}
	return lex, nil
}

// ImportLexicon stores every rendering of lex in one transaction and
// returns the number of rows inserted.
func (s *Store) ImportLexicon(ctx context.Context, lex lexicon.Lexicon) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO lexicon_terms (id, source_lang, target_lang, connective, accepted)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for i, e := range lex.Connectives {
		for j, acc := range e.Accepted {
			id := fmt.Sprintf("%s_%d_%d", newID("lx"), i, j)
			res, err := stmt.ExecContext(ctx, id, lex.SourceLang, lex.TargetLang,
				normalizeText(e.Connective), normalizeText(acc))
			if err != nil {
				return 0, fmt.Errorf("failed to insert %q → %q: %w", e.Connective, acc, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}
