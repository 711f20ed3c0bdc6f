package connective

import (
	"fmt"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/valpere/peredisc/internal/feature"
	"github.com/valpere/peredisc/internal/ledger"
	"github.com/valpere/peredisc/internal/metrics"
	"github.com/valpere/peredisc/internal/phrase"
	"github.com/valpere/peredisc/internal/search"
)

type fakeDoc struct {
	sents [][]phrase.AnchoredPair
}

func (d *fakeDoc) NumSentences() int { return len(d.sents) }

func (d *fakeDoc) Segmentation(i int) []phrase.AnchoredPair { return d.sents[i] }

func (d *fakeDoc) ApplyStep(step search.Step) error {
	for _, m := range step.Modifications {
		if m.Sentence < 0 || m.Sentence >= len(d.sents) {
			return fmt.Errorf("sentence %d out of range", m.Sentence)
		}
	}
	for _, m := range step.Modifications {
		var kept []phrase.AnchoredPair
		for _, p := range d.sents[m.Sentence] {
			if !p.Anchor.Within(m.From, m.To) {
				kept = append(kept, p)
			}
		}
		kept = append(kept, m.Proposal...)
		sort.Slice(kept, func(i, j int) bool { return kept[i].Anchor.Start < kept[j].Anchor.Start })
		d.sents[m.Sentence] = kept
	}
	return nil
}

func at(start int, source, target string) phrase.AnchoredPair {
	src := phrase.Parse(source)
	return phrase.AnchoredPair{
		Anchor: phrase.Span{Start: start, End: start + src.Len()},
		Source: src,
		Target: phrase.Parse(target),
	}
}

// newDoc builds two sentences: the first opens with a mistranslated
// "While", the second with a correct "However".
func newDoc() *fakeDoc {
	return &fakeDoc{sents: [][]phrase.AnchoredPair{
		{at(0, "While", "Als"), at(1, "he slept", "er schlief")},
		{at(0, "However", "Jedoch"), at(1, "it rained", "regnete es")},
	}}
}

func replaceStep(sentence int, p phrase.AnchoredPair) search.Step {
	return search.Step{
		Label: fmt.Sprintf("%d:%s", sentence, p.Target),
		Modifications: []search.Modification{{
			Sentence: sentence,
			From:     p.Anchor.Start,
			To:       p.Anchor.End,
			Proposal: []phrase.AnchoredPair{p},
		}},
	}
}

func TestModel_InitDocument(t *testing.T) {
	m := NewModel(Static(defaultTable(t)))
	s := m.InitDocument(newDoc())

	if got := m.SentenceScore(s, 0); got != 1 {
		t.Errorf("sentence 0 score = %v, want 1", got)
	}
	if got := m.SentenceScore(s, 1); got != -1 {
		t.Errorf("sentence 1 score = %v, want -1", got)
	}
	if s.Underflows() != 1 {
		t.Errorf("expected one underflow for the unseeded retirement, got %d", s.Underflows())
	}
	if s.Ledger().Len() != 0 {
		t.Errorf("expected empty ledger, got %v", s.Ledger().Entries())
	}
}

func TestModel_NoConnectives(t *testing.T) {
	doc := &fakeDoc{sents: [][]phrase.AnchoredPair{
		{at(0, "he slept", "er schlief")},
		{at(0, "it rained", "es regnete"), at(2, "all day", "den ganzen Tag")},
		{},
	}}
	m := NewModel(Static(defaultTable(t)))
	s := m.InitDocument(doc)

	for i := 0; i < doc.NumSentences(); i++ {
		if got := m.SentenceScore(s, i); got != 0 {
			t.Errorf("sentence %d score = %v, want 0", i, got)
		}
	}
	if s.Total() != 0 {
		t.Errorf("total = %v, want 0", s.Total())
	}
}

func TestModel_SeededRetirement(t *testing.T) {
	seed := func(l *ledger.Ledger) {
		l.Add(phrase.Parse("However"), phrase.Parse("Jedoch"))
		l.Add(phrase.Parse("However"), phrase.Parse("Jedoch"))
	}
	m := NewModel(Static(defaultTable(t)), WithSeed(seed))
	s := m.InitDocument(newDoc())

	if got := s.Ledger().Count(phrase.Parse("However"), phrase.Parse("Jedoch")); got != 1 {
		t.Errorf("expected one occurrence left after retirement, got %d", got)
	}
	if s.Underflows() != 0 {
		t.Errorf("expected no underflows, got %d", s.Underflows())
	}
}

func TestModel_EstimateLeavesAcceptedUntouched(t *testing.T) {
	doc := newDoc()
	m := NewModel(Static(defaultTable(t)), WithSeed(func(l *ledger.Ledger) {
		l.Add(phrase.Parse("While"), phrase.Parse("Während"))
	}))
	accepted := m.InitDocument(doc)
	scoresBefore := accepted.Scores()
	ledgerBefore := accepted.Ledger().Clone()

	est := m.EstimateUpdate(doc, replaceStep(0, at(0, "While", "Während")), accepted)
	est = m.UpdateScore(doc, search.Step{}, accepted, est)

	if got := est.SentenceScore(0); got != -1 {
		t.Errorf("estimated sentence 0 score = %v, want -1", got)
	}
	if est.Ledger().Count(phrase.Parse("While"), phrase.Parse("Während")) != 0 {
		t.Error("expected estimate to retire the confirmed pair")
	}

	// Rejecting means dropping est; accepted must be exactly as before.
	if got := accepted.Scores(); got[0] != scoresBefore[0] || got[1] != scoresBefore[1] {
		t.Errorf("accepted scores changed: %v -> %v", scoresBefore, got)
	}
	if !accepted.Ledger().Equal(ledgerBefore) {
		t.Errorf("accepted ledger changed: %v", accepted.Ledger().Entries())
	}
}

func TestState_CloneIndependence(t *testing.T) {
	m := NewModel(Static(defaultTable(t)))
	s := m.InitDocument(newDoc())
	c := s.Clone()

	c.add(0, at(0, "While", "Während"))
	c.Ledger().Add(phrase.Parse("x"), phrase.Parse("y"))
	if s.SentenceScore(0) != 1 || s.Ledger().Len() != 0 {
		t.Error("mutating the clone changed the source state")
	}

	s.add(1, at(0, "however", "aber"))
	s.Ledger().Add(phrase.Parse("p"), phrase.Parse("q"))
	if c.SentenceScore(1) != -1 || c.Ledger().Count(phrase.Parse("p"), phrase.Parse("q")) != 0 {
		t.Error("mutating the source changed the clone")
	}
	if c.Table() != s.Table() {
		t.Error("expected clone to share the immutable table")
	}
}

func TestModel_ApplySwapsState(t *testing.T) {
	doc := newDoc()
	m := NewModel(Static(defaultTable(t)))
	accepted := m.InitDocument(doc)

	est := m.EstimateUpdate(doc, replaceStep(0, at(0, "While", "Obwohl")), accepted)
	got := m.ApplyStateModifications(accepted, est)

	if got != accepted {
		t.Fatal("expected Apply to return the accepted state")
	}
	if accepted.SentenceScore(0) != -1 {
		t.Errorf("accepted sentence 0 = %v, want -1", accepted.SentenceScore(0))
	}
	if accepted.Underflows() != 2 {
		t.Errorf("expected 2 underflows after apply, got %d", accepted.Underflows())
	}
}

func TestSession_IncrementalMatchesFreshScore(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt := metrics.New(reg)
	doc := newDoc()
	seed := func(l *ledger.Ledger) {
		l.Add(phrase.Parse("While"), phrase.Parse("Während"))
		l.Add(phrase.Parse("While"), phrase.Parse("Während"))
		l.Add(phrase.Parse("However"), phrase.Parse("Jedoch"))
	}
	m := NewModel(Static(defaultTable(t)), WithMetrics(mt), WithSeed(seed))
	sess := feature.NewSession[*State](m, doc, feature.WithMetrics(mt), feature.WithDocumentID("d1"))

	steps := []search.Step{
		replaceStep(0, at(0, "While", "Während")),
		replaceStep(1, at(0, "However", "Und")),
		replaceStep(1, at(0, "However", "Allerdings")),
		{Label: "split", Modifications: []search.Modification{{
			Sentence: 0, From: 0, To: 3,
			Proposal: []phrase.AnchoredPair{at(0, "While he", "Obwohl er"), at(2, "slept", "schlief")},
		}}},
	}
	for _, step := range steps {
		c := sess.Propose(step)
		if err := sess.Accept(c); err != nil {
			t.Fatalf("Accept(%s) failed: %v", step.Label, err)
		}
	}

	fresh := m.InitDocument(doc)
	got := sess.SentenceScores()
	for i := range got {
		if got[i] != fresh.SentenceScore(i) {
			t.Errorf("sentence %d: incremental %v, fresh %v", i, got[i], fresh.SentenceScore(i))
		}
	}
	if sess.Score() != -2 {
		t.Errorf("expected final score -2, got %v", sess.Score())
	}
	sess.Inspect(func(s *State) {
		if !s.Ledger().Equal(fresh.Ledger()) {
			t.Errorf("incremental ledger %v, fresh %v", s.Ledger().Entries(), fresh.Ledger().Entries())
		}
	})
	if v := testutil.ToFloat64(mt.DocumentScore.WithLabelValues("d1")); v != -2 {
		t.Errorf("document score gauge = %v, want -2", v)
	}
	if v := testutil.ToFloat64(mt.Decisions.WithLabelValues("connective", "accepted")); v != 4 {
		t.Errorf("accepted decisions = %v, want 4", v)
	}
	if v := testutil.ToFloat64(mt.LedgerUnderflows); v == 0 {
		t.Error("expected unseeded retirements to be counted")
	}
}

func TestSession_SwitchBackRestoresLedger(t *testing.T) {
	src, tgt := phrase.Parse("While"), phrase.Parse("Während")
	doc := newDoc()
	m := NewModel(Static(defaultTable(t)), WithSeed(func(l *ledger.Ledger) {
		l.Add(src, tgt)
		l.Add(src, tgt)
	}))
	sess := feature.NewSession[*State](m, doc)

	for _, target := range []string{"Während", "Als", "Während"} {
		c := sess.Propose(replaceStep(0, at(0, "While", target)))
		if err := sess.Accept(c); err != nil {
			t.Fatalf("Accept(%s) failed: %v", target, err)
		}
	}

	fresh := m.InitDocument(doc)
	if got := fresh.Ledger().Count(src, tgt); got != 1 {
		t.Fatalf("fresh ledger count = %d, want 1", got)
	}
	sess.Inspect(func(s *State) {
		if got := s.Ledger().Count(src, tgt); got != 1 {
			t.Errorf("incremental ledger count = %d, want 1", got)
		}
		if !s.Ledger().Equal(fresh.Ledger()) {
			t.Errorf("incremental ledger %v, fresh %v", s.Ledger().Entries(), fresh.Ledger().Entries())
		}
	})
}

func TestModel_UnderflowedRetirementRestoresNothing(t *testing.T) {
	src, tgt := phrase.Parse("While"), phrase.Parse("Obwohl")
	doc := newDoc()
	m := NewModel(Static(defaultTable(t)), WithSeed(func(l *ledger.Ledger) {
		l.Add(src, tgt)
	}))
	accepted := m.InitDocument(doc)

	// Two confirmed occurrences against one seeded entry: the second
	// underflows, so removing one of them must leave the ledger empty.
	step := search.Step{Modifications: []search.Modification{
		{Sentence: 0, From: 0, To: 1, Proposal: []phrase.AnchoredPair{at(0, "While", "Obwohl")}},
		{Sentence: 1, From: 0, To: 1, Proposal: []phrase.AnchoredPair{at(0, "While", "Obwohl")}},
	}}
	est := m.EstimateUpdate(doc, step, accepted)
	if est.Underflows() != accepted.Underflows()+1 {
		t.Fatalf("expected one new underflow, got %d -> %d", accepted.Underflows(), est.Underflows())
	}
	m.ApplyStateModifications(accepted, est)
	if err := doc.ApplyStep(step); err != nil {
		t.Fatal(err)
	}

	est = m.EstimateUpdate(doc, replaceStep(1, at(0, "However", "Jedoch")), accepted)
	if got := est.Ledger().Count(src, tgt); got != 0 {
		t.Errorf("ledger count = %d, want 0", got)
	}
}

func TestSession_RejectKeepsScore(t *testing.T) {
	doc := newDoc()
	m := NewModel(Static(defaultTable(t)))
	sess := feature.NewSession[*State](m, doc)
	before := sess.SentenceScores()

	c := sess.Propose(replaceStep(0, at(0, "While", "Während")))
	if c.Score() != -2 {
		t.Errorf("candidate score = %v, want -2", c.Score())
	}
	if err := sess.Reject(c); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	after := sess.SentenceScores()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("sentence %d changed on reject: %v -> %v", i, before[i], after[i])
		}
	}
	if doc.sents[0][0].Target != phrase.Parse("Als") {
		t.Error("rejected step reached the document")
	}
}
