// Package connective scores how discourse connectives are rendered in a
// candidate translation. A source connective whose aligned target side holds
// one of its accepted translations earns -1; any other rendering costs +1.
package connective

import (
	"strings"

	"github.com/valpere/peredisc/internal/lexicon"
	"github.com/valpere/peredisc/internal/phrase"
)

// Retirement names a phrase pair whose connective rendering was confirmed
// and that should be drained from the occurrence ledger.
type Retirement struct {
	Source phrase.Phrase
	Target phrase.Phrase
}

// Check records one connective found in a pair.
type Check struct {
	Position   int
	Connective string
	Accepted   bool
}

// Result is the outcome of classifying one phrase pair.
type Result struct {
	Delta  int
	Retire *Retirement
	Checks []Check
}

// Classify tests pair against t. In token mode the source is scanned left
// to right; at each token the longest connective starting there wins and its
// tokens are consumed. A one-word connective is compared with the target
// token at the same index, a longer one with the target from that index to
// the end of the phrase. In phrase mode the whole phrase is the only
// position. Deltas add up across positions. The result depends only on pair
// and t.
func Classify(t *lexicon.Table, pair phrase.AnchoredPair) Result {
	var res Result
	if t == nil || t.Len() == 0 {
		return res
	}

	if t.Mode() == lexicon.ModePhrase {
		if rule, ok := t.Lookup(pair.Source.String()); ok {
			res.record(pair, 0, rule, rule.MatchTarget(pair.Target.String()))
		}
		return res
	}

	src := pair.Source.Words()
	trg := pair.Target.Words()
	for j := 0; j < len(src); {
		rule, ok := t.LookupWords(src[j:])
		if !ok {
			j++
			continue
		}
		res.record(pair, j, rule, matchAligned(rule, trg, j))
		j += rule.Words()
	}
	return res
}

func matchAligned(rule *lexicon.Rule, trg []string, j int) bool {
	if j >= len(trg) {
		return false
	}
	if rule.Words() == 1 {
		return rule.MatchTarget(trg[j])
	}
	return rule.MatchTarget(strings.Join(trg[j:], " "))
}

func (res *Result) record(pair phrase.AnchoredPair, pos int, rule *lexicon.Rule, accepted bool) {
	res.Checks = append(res.Checks, Check{
		Position:   pos,
		Connective: rule.Connective(),
		Accepted:   accepted,
	})
	if !accepted {
		res.Delta++
		return
	}
	res.Delta--
	if res.Retire == nil {
		res.Retire = &Retirement{Source: pair.Source, Target: pair.Target}
	}
}
