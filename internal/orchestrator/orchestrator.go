// Package orchestrator runs a hill-climbing search over a decoder document:
// each round it proposes a batch of steps, evaluates them in parallel
// through a feature session and accepts the best one if it lowers the
// document score.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/valpere/peredisc/internal/decoder"
	"github.com/valpere/peredisc/internal/feature"
	"github.com/valpere/peredisc/internal/logger"
	"github.com/valpere/peredisc/internal/search"
)

type OrchestratorConfig struct {
	Timeout    time.Duration
	MaxSteps   int
	Candidates int
	// Patience stops the search after this many rounds without an accepted
	// step. Zero means stop at the first such round.
	Patience int
}

type OrchestratorResult struct {
	InitialScore float64
	FinalScore   float64
	Sentences    []float64
	Rounds       int
	Evaluated    int
	Accepted     int
	Rejected     int
	Elapsed      time.Duration
}

// Proposer supplies candidate steps for the current document.
type Proposer interface {
	Steps(d *decoder.Document, n int) []search.Step
}

type Orchestrator[S any] struct {
	session  *feature.Session[S]
	doc      *decoder.Document
	proposer Proposer
	config   OrchestratorConfig
	log      *slog.Logger
}

// New returns an orchestrator over session, whose document must be doc.
func New[S any](session *feature.Session[S], doc *decoder.Document, proposer Proposer, config OrchestratorConfig) *Orchestrator[S] {
	if config.Candidates < 1 {
		config.Candidates = 1
	}
	return &Orchestrator[S]{
		session:  session,
		doc:      doc,
		proposer: proposer,
		config:   config,
		log:      logger.WithComponent("orchestrator").With("document", doc.ID()),
	}
}

// Execute climbs until MaxSteps rounds have run, the proposer runs dry,
// patience is exhausted or the timeout expires. Hitting the timeout is not
// an error; cancellation of ctx is.
func (o *Orchestrator[S]) Execute(ctx context.Context) (*OrchestratorResult, error) {
	start := time.Now()
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	result := &OrchestratorResult{InitialScore: o.session.Score()}
	idle := 0

	var err error
	for result.Rounds < o.config.MaxSteps {
		if err = ctx.Err(); err != nil {
			break
		}

		steps := o.proposer.Steps(o.doc, o.config.Candidates)
		if len(steps) == 0 {
			break
		}

		var accepted bool
		accepted, err = o.round(ctx, steps, result)
		if err != nil {
			break
		}
		result.Rounds++

		if accepted {
			idle = 0
			continue
		}
		idle++
		if idle > o.config.Patience {
			break
		}
	}

	result.FinalScore = o.session.Score()
	result.Sentences = o.session.SentenceScores()
	result.Elapsed = time.Since(start)

	o.log.Info("search finished",
		"rounds", result.Rounds,
		"accepted", result.Accepted,
		"initial_score", result.InitialScore,
		"final_score", result.FinalScore,
		"elapsed", result.Elapsed)

	if errors.Is(err, context.DeadlineExceeded) {
		return result, nil
	}
	return result, err
}

func (o *Orchestrator[S]) round(ctx context.Context, steps []search.Step, result *OrchestratorResult) (bool, error) {
	candidates, err := o.session.EvaluateAll(ctx, steps)
	if err != nil {
		return false, err
	}
	result.Evaluated += len(candidates)

	current := o.session.Score()
	best := -1
	for i, c := range candidates {
		if c.Score() < current {
			current = c.Score()
			best = i
		}
	}

	for i, c := range candidates {
		if i == best {
			continue
		}
		if err := o.session.Reject(c); err != nil {
			return false, err
		}
		result.Rejected++
	}
	if best < 0 {
		return false, nil
	}

	if err := o.session.Accept(candidates[best]); err != nil {
		return false, err
	}
	result.Accepted++
	o.log.Debug("step accepted", "step", candidates[best].Step.Label, "score", current)
	return true, nil
}
