// Package ledger implements the phrase occurrence ledger: a multiset of
// (source phrase, target phrase) co-occurrences indexed from both sides.
package ledger

import (
	"fmt"
	"sort"

	"github.com/valpere/peredisc/internal/phrase"
)

// Entry is one (source, target) pair with its current count.
type Entry struct {
	Source phrase.Phrase
	Target phrase.Phrase
	Count  int
}

// Ledger keeps source→target and target→source counts as mirror images.
// Counts are always positive; a pair whose count drops to zero is removed
// from both directions. A Ledger is not safe for concurrent use.
type Ledger struct {
	bySource map[phrase.Phrase]map[phrase.Phrase]int
	byTarget map[phrase.Phrase]map[phrase.Phrase]int

	// Reserved for dispersion statistics; carried through Clone and Swap
	// but not computed.
	sourceSpread int
	targetSpread int
}

func New() *Ledger {
	return &Ledger{
		bySource: make(map[phrase.Phrase]map[phrase.Phrase]int),
		byTarget: make(map[phrase.Phrase]map[phrase.Phrase]int),
	}
}

// Add records one more occurrence of (source, target).
func (l *Ledger) Add(source, target phrase.Phrase) {
	increment(l.bySource, source, target)
	increment(l.byTarget, target, source)
}

// Remove drops one occurrence of (source, target). It returns false and
// leaves the ledger unchanged when the pair is not present.
func (l *Ledger) Remove(source, target phrase.Phrase) bool {
	if l.Count(source, target) == 0 {
		return false
	}
	decrement(l.bySource, source, target)
	decrement(l.byTarget, target, source)
	return true
}

func (l *Ledger) Count(source, target phrase.Phrase) int {
	return l.bySource[source][target]
}

// Len returns the number of distinct pairs.
func (l *Ledger) Len() int {
	n := 0
	for _, inner := range l.bySource {
		n += len(inner)
	}
	return n
}

// Total returns the sum of all counts.
func (l *Ledger) Total() int {
	n := 0
	for _, inner := range l.bySource {
		for _, c := range inner {
			n += c
		}
	}
	return n
}

// Targets returns the target phrases observed with source and their counts.
func (l *Ledger) Targets(source phrase.Phrase) map[phrase.Phrase]int {
	return copyInner(l.bySource[source])
}

// Sources returns the source phrases observed with target and their counts.
func (l *Ledger) Sources(target phrase.Phrase) map[phrase.Phrase]int {
	return copyInner(l.byTarget[target])
}

// Spread returns the reserved dispersion counters.
func (l *Ledger) Spread() (source, target int) {
	return l.sourceSpread, l.targetSpread
}

// Entries returns every pair ordered by source, then target.
func (l *Ledger) Entries() []Entry {
	entries := make([]Entry, 0, l.Len())
	for src, inner := range l.bySource {
		for tgt, c := range inner {
			entries = append(entries, Entry{Source: src, Target: tgt, Count: c})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if c := entries[i].Source.Compare(entries[j].Source); c != 0 {
			return c < 0
		}
		return entries[i].Target.Compare(entries[j].Target) < 0
	})
	return entries
}

// Clone returns a deep copy that shares no maps with l.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		bySource:     cloneOuter(l.bySource),
		byTarget:     cloneOuter(l.byTarget),
		sourceSpread: l.sourceSpread,
		targetSpread: l.targetSpread,
	}
	return c
}

// Swap exchanges the full contents of l and other without copying entries.
func (l *Ledger) Swap(other *Ledger) {
	l.bySource, other.bySource = other.bySource, l.bySource
	l.byTarget, other.byTarget = other.byTarget, l.byTarget
	l.sourceSpread, other.sourceSpread = other.sourceSpread, l.sourceSpread
	l.targetSpread, other.targetSpread = other.targetSpread, l.targetSpread
}

// Equal reports whether both ledgers hold the same pairs with the same counts.
func (l *Ledger) Equal(other *Ledger) bool {
	if l.Len() != other.Len() {
		return false
	}
	for src, inner := range l.bySource {
		for tgt, c := range inner {
			if other.Count(src, tgt) != c {
				return false
			}
		}
	}
	return l.sourceSpread == other.sourceSpread && l.targetSpread == other.targetSpread
}

// Verify checks that both directions mirror each other and hold only
// positive counts.
func (l *Ledger) Verify() error {
	n := 0
	for src, inner := range l.bySource {
		if len(inner) == 0 {
			return fmt.Errorf("empty target map for source %q", src)
		}
		for tgt, c := range inner {
			if c <= 0 {
				return fmt.Errorf("non-positive count %d for (%q, %q)", c, src, tgt)
			}
			if back := l.byTarget[tgt][src]; back != c {
				return fmt.Errorf("count mismatch for (%q, %q): %d forward, %d backward", src, tgt, c, back)
			}
			n++
		}
	}
	m := 0
	for tgt, inner := range l.byTarget {
		if len(inner) == 0 {
			return fmt.Errorf("empty source map for target %q", tgt)
		}
		m += len(inner)
	}
	if n != m {
		return fmt.Errorf("direction sizes differ: %d forward, %d backward", n, m)
	}
	return nil
}

func increment(outer map[phrase.Phrase]map[phrase.Phrase]int, key, inner phrase.Phrase) {
	m, ok := outer[key]
	if !ok {
		m = make(map[phrase.Phrase]int)
		outer[key] = m
	}
	m[inner]++
}

func decrement(outer map[phrase.Phrase]map[phrase.Phrase]int, key, inner phrase.Phrase) {
	m := outer[key]
	if m[inner] > 1 {
		m[inner]--
		return
	}
	delete(m, inner)
	if len(m) == 0 {
		delete(outer, key)
	}
}

func copyInner(m map[phrase.Phrase]int) map[phrase.Phrase]int {
	out := make(map[phrase.Phrase]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneOuter(outer map[phrase.Phrase]map[phrase.Phrase]int) map[phrase.Phrase]map[phrase.Phrase]int {
	out := make(map[phrase.Phrase]map[phrase.Phrase]int, len(outer))
	for k, inner := range outer {
		out[k] = copyInner(inner)
	}
	return out
}
