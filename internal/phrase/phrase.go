// Package phrase defines the token sequences and anchored phrase pairs that
// make up a candidate translation's phrase segmentation.
package phrase

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Phrase is an immutable sequence of tokens. The zero value is the empty
// phrase. Phrases are comparable and can be used as map keys.
type Phrase struct {
	text string
}

// New builds a phrase from individual tokens. Each token is trimmed and NFC
// normalised; empty tokens are dropped.
func New(words ...string) Phrase {
	kept := make([]string, 0, len(words))
	for _, w := range words {
		w = norm.NFC.String(strings.TrimSpace(w))
		if w != "" {
			kept = append(kept, w)
		}
	}
	return Phrase{text: strings.Join(kept, " ")}
}

// Parse splits s on whitespace and builds a phrase from the fields.
func Parse(s string) Phrase {
	return New(strings.Fields(s)...)
}

// Words returns a fresh copy of the tokens.
func (p Phrase) Words() []string {
	if p.text == "" {
		return nil
	}
	return strings.Split(p.text, " ")
}

func (p Phrase) Len() int {
	if p.text == "" {
		return 0
	}
	return strings.Count(p.text, " ") + 1
}

func (p Phrase) IsEmpty() bool { return p.text == "" }

func (p Phrase) String() string { return p.text }

// Compare orders phrases lexicographically by their text.
func (p Phrase) Compare(q Phrase) int {
	return strings.Compare(p.text, q.text)
}

// Span is a half-open range [Start, End) of source word positions within a
// sentence.
type Span struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

func (s Span) Len() int { return s.End - s.Start }

// Within reports whether s lies entirely inside [from, to).
func (s Span) Within(from, to int) bool {
	return s.Start >= from && s.End <= to
}

// AnchoredPair binds a source phrase to its target rendering at a fixed
// position in the candidate translation.
type AnchoredPair struct {
	Anchor Span
	Source Phrase
	Target Phrase
}

// NewPair is a convenience constructor that parses both sides from text.
func NewPair(anchor Span, source, target string) AnchoredPair {
	return AnchoredPair{Anchor: anchor, Source: Parse(source), Target: Parse(target)}
}
