package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/valpere/peredisc/internal/ledger"
	"github.com/valpere/peredisc/internal/lexicon"
	"github.com/valpere/peredisc/internal/phrase"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_New(t *testing.T) {
	s := newTestStore(t)
	if s == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_LexiconRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	terms := [][2]string{
		{"while", "während"},
		{"while", "solange"},
		{"however", "jedoch"},
		{"while", "  während "},
	}
	for _, tm := range terms {
		if err := s.AddLexiconTerm(ctx, "en", "de", tm[0], tm[1]); err != nil {
			t.Fatalf("AddLexiconTerm(%q, %q): %v", tm[0], tm[1], err)
		}
	}

	rows, err := s.ListLexiconTerms(ctx, "en", "de")
	if err != nil {
		t.Fatalf("ListLexiconTerms: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (duplicate ignored), got %d", len(rows))
	}

	lex, err := s.LoadLexicon(ctx, "en", "de", lexicon.ModeToken)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	if len(lex.Connectives) != 2 {
		t.Fatalf("expected 2 connectives, got %d", len(lex.Connectives))
	}
	if lex.Connectives[0].Connective != "while" {
		t.Errorf("expected first connective 'while', got %q", lex.Connectives[0].Connective)
	}
	if got := lex.Connectives[0].Accepted; len(got) != 2 || got[0] != "während" || got[1] != "solange" {
		t.Errorf("unexpected accepted list: %v", got)
	}
	if _, err := lexicon.Compile(lex); err != nil {
		t.Errorf("stored lexicon should compile: %v", err)
	}
}

func TestStore_AddLexiconTerm_Empty(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddLexiconTerm(context.Background(), "en", "de", "  ", "jedoch"); err == nil {
		t.Error("expected error for empty connective")
	}
}

func TestStore_DeleteLexiconTerm(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddLexiconTerm(ctx, "en", "de", "however", "jedoch"); err != nil {
		t.Fatalf("AddLexiconTerm: %v", err)
	}
	rows, err := s.ListLexiconTerms(ctx, "", "")
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d (err %v)", len(rows), err)
	}

	if err := s.DeleteLexiconTerm(ctx, rows[0].ID); err != nil {
		t.Fatalf("DeleteLexiconTerm: %v", err)
	}
	if err := s.DeleteLexiconTerm(ctx, rows[0].ID); err == nil {
		t.Error("expected error deleting a missing term")
	}
}

func TestStore_ImportLexicon(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lex, err := lexicon.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	want := 0
	for _, e := range lex.Connectives {
		want += len(e.Accepted)
	}

	n, err := s.ImportLexicon(ctx, lex)
	if err != nil {
		t.Fatalf("ImportLexicon: %v", err)
	}
	if n != want {
		t.Errorf("expected %d inserted, got %d", want, n)
	}

	n, err = s.ImportLexicon(ctx, lex)
	if err != nil {
		t.Fatalf("second ImportLexicon: %v", err)
	}
	if n != 0 {
		t.Errorf("expected re-import to insert nothing, got %d", n)
	}
}

func TestStore_PhraseCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddPhraseCount(ctx, "en", "de", "while", "während", 2); err != nil {
		t.Fatalf("AddPhraseCount: %v", err)
	}
	if err := s.AddPhraseCount(ctx, "en", "de", "while", "während", 1); err != nil {
		t.Fatalf("AddPhraseCount: %v", err)
	}
	if err := s.AddPhraseCount(ctx, "en", "de", "house", "Haus", 1); err != nil {
		t.Fatalf("AddPhraseCount: %v", err)
	}
	if err := s.AddPhraseCount(ctx, "en", "de", "house", "Haus", 0); err == nil {
		t.Error("expected error for zero count")
	}

	counts, err := s.PhraseCounts(ctx, "en", "de")
	if err != nil {
		t.Fatalf("PhraseCounts: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(counts))
	}
	if counts[1].SourcePhrase != "while" || counts[1].Count != 3 {
		t.Errorf("expected while→während x3, got %+v", counts[1])
	}

	l := ledger.New()
	Seeder(counts)(l)
	if got := l.Count(phrase.Parse("while"), phrase.Parse("während")); got != 3 {
		t.Errorf("expected seeded count 3, got %d", got)
	}
	if l.Total() != 4 {
		t.Errorf("expected ledger total 4, got %d", l.Total())
	}

	removed, err := s.ClearPhraseCounts(ctx, "en", "de")
	if err != nil {
		t.Fatalf("ClearPhraseCounts: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 rows removed, got %d", removed)
	}
}

func TestStore_Runs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, Run{
		DocumentID:   "doc-1",
		SourceLang:   "en",
		TargetLang:   "de",
		InitialScore: 2,
		FinalScore:   -1,
		Steps:        10,
		Accepted:     2,
		Sentences:    []float64{-1, 0, 0},
	})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated run ID")
	}
	if _, err := s.SaveRun(ctx, Run{DocumentID: "doc-2", SourceLang: "en", TargetLang: "de"}); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	run, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.FinalScore != -1 || run.Accepted != 2 {
		t.Errorf("unexpected run: %+v", run)
	}
	if len(run.Sentences) != 3 || run.Sentences[0] != -1 {
		t.Errorf("unexpected sentence scores: %v", run.Sentences)
	}

	runs, err := s.ListRuns(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Errorf("expected only run %s, got %+v", id, runs)
	}

	all, err := s.ListRuns(ctx, "")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 runs, got %d", len(all))
	}

	if _, err := s.GetRun(ctx, "missing"); err == nil {
		t.Error("expected error for missing run")
	}
}
