// Package feature defines the evaluation protocol between a document-level
// search and its scoring features, and a Session that drives one feature
// over one document.
//
// A feature owns a state type S. The search initialises S once per
// document, estimates a speculative S for every proposed step, commits it
// and, if the step is accepted, applies it to the accepted S. Rejected
// speculative states are dropped without touching the accepted one.
package feature

import "github.com/valpere/peredisc/internal/search"

// Feature is the four-phase protocol, generic over the feature's own state
// type so that a state can only ever be handed back to the feature that
// created it.
type Feature[S any] interface {
	Name() string

	// InitDocument scores the document's initial segmentation.
	InitDocument(doc search.Document) S

	// SentenceScore returns the feature's contribution for one sentence.
	SentenceScore(state S, sentence int) float64

	// EstimateUpdate returns a speculative state for step. state is read
	// but never modified.
	EstimateUpdate(doc search.Document, step search.Step, state S) S

	// UpdateScore commits an estimate after every feature has estimated.
	UpdateScore(doc search.Document, step search.Step, state S, estimate S) S

	// ApplyStateModifications moves an accepted estimate into state and
	// returns the new accepted state. mods must not be used afterwards.
	ApplyStateModifications(state S, mods S) S
}
