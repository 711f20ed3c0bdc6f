// Package search defines what a scoring feature needs from the host decoder:
// read access to the current phrase segmentation and the shape of a proposed
// edit.
package search

import "github.com/valpere/peredisc/internal/phrase"

// Document exposes the current phrase segmentation of every sentence.
type Document interface {
	NumSentences() int
	// Segmentation returns the anchored phrase pairs of a sentence in source
	// order. Callers must not modify the returned slice.
	Segmentation(sentence int) []phrase.AnchoredPair
}

// MutableDocument is a Document that can take an accepted step.
type MutableDocument interface {
	Document
	// ApplyStep installs the step's proposals. It must either apply every
	// modification or leave the document unchanged and return an error.
	ApplyStep(step Step) error
}

// Modification replaces the phrase pairs of one sentence whose anchors lie
// inside the source range [From, To) by Proposal.
type Modification struct {
	Sentence int
	From     int
	To       int
	Proposal []phrase.AnchoredPair
}

// Step is one proposed edit. Its modifications must not overlap.
type Step struct {
	Label         string
	Modifications []Modification
}

// Replaced returns the pairs of doc that m would replace.
func Replaced(doc Document, m Modification) []phrase.AnchoredPair {
	var out []phrase.AnchoredPair
	for _, p := range doc.Segmentation(m.Sentence) {
		if p.Anchor.Within(m.From, m.To) {
			out = append(out, p)
		}
	}
	return out
}
