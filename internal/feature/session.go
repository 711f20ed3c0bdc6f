package feature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/valpere/peredisc/internal/logger"
	"github.com/valpere/peredisc/internal/metrics"
	"github.com/valpere/peredisc/internal/search"
)

var (
	// ErrStaleCandidate is returned when a candidate was estimated against an
	// accepted state that has since changed.
	ErrStaleCandidate = errors.New("candidate is stale")
	// ErrCandidateConsumed is returned when a candidate is accepted or
	// rejected a second time.
	ErrCandidateConsumed = errors.New("candidate already consumed")
)

// Candidate is a committed speculative state for one step.
type Candidate[S any] struct {
	Step    search.Step
	state   S
	version uint64
	score   float64
	done    atomic.Bool
}

// Score is the document score the candidate would produce if accepted.
func (c *Candidate[S]) Score() float64 { return c.score }

// State returns the speculative state. It must be treated as read-only.
func (c *Candidate[S]) State() S { return c.state }

type options struct {
	workers  int
	metrics  *metrics.Metrics
	log      *slog.Logger
	document string
}

// Option configures a Session.
type Option func(*options)

// WithWorkers bounds how many candidates EvaluateAll estimates at once.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDocumentID labels the session's logs and score gauge.
func WithDocumentID(id string) Option {
	return func(o *options) { o.document = id }
}

// Session holds the accepted state of one feature for one document.
// Propose and EvaluateAll may run concurrently with each other; Accept is
// serialised against everything else.
type Session[S any] struct {
	feature Feature[S]
	doc     search.MutableDocument
	opts    options

	mu       sync.RWMutex
	accepted S
	version  uint64
}

// NewSession initialises the feature on doc.
func NewSession[S any](f Feature[S], doc search.MutableDocument, opts ...Option) *Session[S] {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.log == nil {
		o.log = logger.WithComponent("session")
	}
	o.log = o.log.With("feature", f.Name(), "document", o.document)

	s := &Session[S]{
		feature:  f,
		doc:      doc,
		opts:     o,
		accepted: f.InitDocument(doc),
	}
	s.observeScore()
	return s
}

// Propose estimates and commits step against the accepted state.
func (s *Session[S]) Propose(step search.Step) *Candidate[S] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := time.Now()
	est := s.feature.EstimateUpdate(s.doc, step, s.accepted)
	est = s.feature.UpdateScore(s.doc, step, s.accepted, est)
	c := &Candidate[S]{
		Step:    step,
		state:   est,
		version: s.version,
		score:   s.total(est),
	}

	if m := s.opts.metrics; m != nil {
		m.Proposals.WithLabelValues(s.feature.Name()).Inc()
		m.EstimateDuration.WithLabelValues(s.feature.Name()).Observe(time.Since(start).Seconds())
	}
	return c
}

// EvaluateAll proposes every step, running up to the configured number of
// workers in parallel. Candidates are returned in step order.
func (s *Session[S]) EvaluateAll(ctx context.Context, steps []search.Step) ([]*Candidate[S], error) {
	out := make([]*Candidate[S], len(steps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.workers)
	for i, step := range steps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = s.Propose(step)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Accept applies c to the document and the accepted state.
func (s *Session[S]) Accept(c *Candidate[S]) error {
	if !c.done.CompareAndSwap(false, true) {
		return ErrCandidateConsumed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c.version != s.version {
		s.decision("stale")
		return fmt.Errorf("%w: built on version %d, accepted state is at %d", ErrStaleCandidate, c.version, s.version)
	}
	if err := s.doc.ApplyStep(c.Step); err != nil {
		return fmt.Errorf("failed to apply step to document: %w", err)
	}
	s.accepted = s.feature.ApplyStateModifications(s.accepted, c.state)
	s.version++

	s.decision("accepted")
	s.observeScore()
	s.opts.log.Debug("step accepted", "step", c.Step.Label, "score", c.score, "version", s.version)
	return nil
}

// Reject drops c. The accepted state is not touched.
func (s *Session[S]) Reject(c *Candidate[S]) error {
	if !c.done.CompareAndSwap(false, true) {
		return ErrCandidateConsumed
	}
	s.decision("rejected")
	return nil
}

// Score returns the accepted document score.
func (s *Session[S]) Score() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total(s.accepted)
}

// SentenceScores returns the accepted per-sentence scores.
func (s *Session[S]) SentenceScores() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.doc.NumSentences()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = s.feature.SentenceScore(s.accepted, i)
	}
	return out
}

// Version counts accepted steps.
func (s *Session[S]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Inspect calls fn with the accepted state while holding the read lock. fn
// must not modify the state or retain it.
func (s *Session[S]) Inspect(fn func(S)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.accepted)
}

func (s *Session[S]) total(state S) float64 {
	var total float64
	for i := 0; i < s.doc.NumSentences(); i++ {
		total += s.feature.SentenceScore(state, i)
	}
	return total
}

func (s *Session[S]) decision(outcome string) {
	if m := s.opts.metrics; m != nil {
		m.Decisions.WithLabelValues(s.feature.Name(), outcome).Inc()
	}
}

func (s *Session[S]) observeScore() {
	if m := s.opts.metrics; m != nil && s.opts.document != "" {
		m.DocumentScore.WithLabelValues(s.opts.document).Set(s.total(s.accepted))
	}
}
