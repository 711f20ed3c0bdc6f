package connective

import (
	"log/slog"

	"github.com/valpere/peredisc/internal/feature"
	"github.com/valpere/peredisc/internal/ledger"
	"github.com/valpere/peredisc/internal/lexicon"
	"github.com/valpere/peredisc/internal/logger"
	"github.com/valpere/peredisc/internal/metrics"
	"github.com/valpere/peredisc/internal/search"
)

var _ feature.Feature[*State] = (*Model)(nil)

// TableSource supplies the lexicon table used for newly initialised
// documents. *lexicon.Watcher implements it.
type TableSource interface {
	Table() *lexicon.Table
}

type staticTable struct{ t *lexicon.Table }

func (s staticTable) Table() *lexicon.Table { return s.t }

// Static wraps a fixed table as a TableSource.
func Static(t *lexicon.Table) TableSource { return staticTable{t: t} }

// Option configures a Model.
type Option func(*Model)

// WithSeed registers a function that fills the ledger of every new document
// before its initial pairs are scored.
func WithSeed(seed func(*ledger.Ledger)) Option {
	return func(m *Model) { m.seed = seed }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Model) { m.metrics = mt }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.log = l }
}

// Model is the connective scoring feature.
type Model struct {
	tables  TableSource
	seed    func(*ledger.Ledger)
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewModel(tables TableSource, opts ...Option) *Model {
	m := &Model{tables: tables}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.WithComponent("connective")
	}
	return m
}

func (m *Model) Name() string { return "connective" }

// InitDocument scores every phrase pair of doc's current segmentation.
func (m *Model) InitDocument(doc search.Document) *State {
	s := newState(m.tables.Table(), doc.NumSentences())
	if m.seed != nil {
		m.seed(s.ledger)
	}
	for i := 0; i < doc.NumSentences(); i++ {
		for _, pair := range doc.Segmentation(i) {
			s.add(i, pair)
		}
	}
	m.countUnderflows(s.underflows)
	m.log.Debug("document initialised",
		"sentences", doc.NumSentences(),
		"score", s.Total(),
		"ledger_pairs", s.ledger.Len(),
		"underflows", s.underflows)
	return s
}

func (m *Model) SentenceScore(state *State, sentence int) float64 {
	return state.SentenceScore(sentence)
}

// EstimateUpdate clones state and rescores the pairs each modification
// replaces and proposes.
func (m *Model) EstimateUpdate(doc search.Document, step search.Step, state *State) *State {
	s := state.Clone()
	for _, mod := range step.Modifications {
		for _, pair := range search.Replaced(doc, mod) {
			s.subtract(mod.Sentence, pair)
		}
		for _, pair := range mod.Proposal {
			s.add(mod.Sentence, pair)
		}
	}
	return s
}

// UpdateScore has no second pass for this feature.
func (m *Model) UpdateScore(_ search.Document, _ search.Step, _ *State, estimate *State) *State {
	return estimate
}

// ApplyStateModifications swaps the estimate's scores and ledger into
// state. mods holds the previous contents afterwards and should be dropped.
func (m *Model) ApplyStateModifications(state *State, mods *State) *State {
	before := state.underflows
	state.swap(mods)
	m.countUnderflows(state.underflows - before)
	return state
}

func (m *Model) countUnderflows(n int) {
	if m.metrics != nil && n > 0 {
		m.metrics.LedgerUnderflows.Add(float64(n))
	}
}
