package store

import (
	"context"
	"fmt"
	"time"

	"github.com/valpere/peredisc/internal/ledger"
	"github.com/valpere/peredisc/internal/phrase"
)

// PhraseCount is a row in the phrase_counts table.
type PhraseCount struct {
	SourceLang   string
	TargetLang   string
	SourcePhrase string
	TargetPhrase string
	Count        int
	UpdatedAt    time.Time
}

// AddPhraseCount adds n occurrences of (source, target) for a language pair.
func (s *Store) AddPhraseCount(ctx context.Context, sourceLang, targetLang, source, target string, n int) error {
	if n <= 0 {
		return fmt.Errorf("count must be positive, got %d", n)
	}
	source, target = normalizeText(source), normalizeText(target)
	if source == "" || target == "" {
		return fmt.Errorf("source and target phrases must be non-empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO phrase_counts (source_lang, target_lang, source_phrase, target_phrase, count, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_lang, target_lang, source_phrase, target_phrase)
		 DO UPDATE SET count = count + excluded.count, updated_at = excluded.updated_at`,
		sourceLang, targetLang, source, target, n, time.Now())
	return err
}

// PhraseCounts returns the stored counts of a language pair ordered by
// source then target phrase.
func (s *Store) PhraseCounts(ctx context.Context, sourceLang, targetLang string) ([]PhraseCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_lang, target_lang, source_phrase, target_phrase, count, updated_at
		 FROM phrase_counts WHERE source_lang = ? AND target_lang = ?
		 ORDER BY source_phrase, target_phrase`,
		sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []PhraseCount
	for rows.Next() {
		var c PhraseCount
		if err := rows.Scan(&c.SourceLang, &c.TargetLang, &c.SourcePhrase, &c.TargetPhrase, &c.Count, &c.UpdatedAt); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ClearPhraseCounts removes all counts of a language pair.
func (s *Store) ClearPhraseCounts(ctx context.Context, sourceLang, targetLang string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM phrase_counts WHERE source_lang = ? AND target_lang = ?`, sourceLang, targetLang)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Seeder returns a function that fills a ledger from counts, for use as a
// connective model seed. The counts are read once by the caller.
func Seeder(counts []PhraseCount) func(*ledger.Ledger) {
	return func(l *ledger.Ledger) {
		for _, c := range counts {
			src, tgt := phrase.Parse(c.SourcePhrase), phrase.Parse(c.TargetPhrase)
			for i := 0; i < c.Count; i++ {
				l.Add(src, tgt)
			}
		}
	}
}
