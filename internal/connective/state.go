package connective

import (
	"maps"

	"github.com/valpere/peredisc/internal/ledger"
	"github.com/valpere/peredisc/internal/lexicon"
	"github.com/valpere/peredisc/internal/phrase"
)

// State is the connective feature's per-document scoring state: one running
// score per sentence plus the occurrence ledger. The lexicon table is
// fixed when the document is initialised and shared read-only by clones.
type State struct {
	table      *lexicon.Table
	scores     []float64
	ledger     *ledger.Ledger
	underflows int
	// owed counts, per pair, confirmed occurrences whose retirement found
	// nothing to drain. Dropping such an occurrence restores nothing.
	owed map[pairKey]int
}

type pairKey struct {
	source phrase.Phrase
	target phrase.Phrase
}

func newState(table *lexicon.Table, sentences int) *State {
	return &State{
		table:  table,
		scores: make([]float64, sentences),
		ledger: ledger.New(),
		owed:   make(map[pairKey]int),
	}
}

// Clone returns a deep copy that shares no mutable data with s.
func (s *State) Clone() *State {
	return &State{
		table:      s.table,
		scores:     append([]float64(nil), s.scores...),
		ledger:     s.ledger.Clone(),
		underflows: s.underflows,
		owed:       maps.Clone(s.owed),
	}
}

func (s *State) SentenceScore(sentence int) float64 { return s.scores[sentence] }

// Scores returns a copy of the per-sentence scores.
func (s *State) Scores() []float64 { return append([]float64(nil), s.scores...) }

func (s *State) Total() float64 {
	var total float64
	for _, v := range s.scores {
		total += v
	}
	return total
}

// Ledger returns the state's ledger. It must be treated as read-only.
func (s *State) Ledger() *ledger.Ledger { return s.ledger }

// Underflows counts retirements that found no matching ledger entry.
func (s *State) Underflows() int { return s.underflows }

func (s *State) Table() *lexicon.Table { return s.table }

// add classifies pair, adds its delta to the sentence and drains a
// confirmed pair from the ledger.
func (s *State) add(sentence int, pair phrase.AnchoredPair) Result {
	res := Classify(s.table, pair)
	s.scores[sentence] += float64(res.Delta)
	if res.Retire == nil {
		return res
	}
	if !s.ledger.Remove(res.Retire.Source, res.Retire.Target) {
		s.underflows++
		s.owed[pairKey{res.Retire.Source, res.Retire.Target}]++
	}
	return res
}

// subtract takes back the delta of a pair that is being replaced and
// returns its retirement to the ledger unless that retirement underflowed.
func (s *State) subtract(sentence int, pair phrase.AnchoredPair) {
	res := Classify(s.table, pair)
	s.scores[sentence] -= float64(res.Delta)
	if res.Retire == nil {
		return
	}
	key := pairKey{res.Retire.Source, res.Retire.Target}
	switch n := s.owed[key]; {
	case n > 1:
		s.owed[key] = n - 1
		return
	case n == 1:
		delete(s.owed, key)
		return
	}
	s.ledger.Add(res.Retire.Source, res.Retire.Target)
}

// swap exchanges scores, ledger and counters with other in constant time.
func (s *State) swap(other *State) {
	s.scores, other.scores = other.scores, s.scores
	s.ledger.Swap(other.ledger)
	s.underflows, other.underflows = other.underflows, s.underflows
	s.owed, other.owed = other.owed, s.owed
}
