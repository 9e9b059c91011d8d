// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieval runs the question-to-answer state machine: plan
// queries, search, rank, fetch and extract under a budget, then compose,
// escalating once to a relaxed Deep Check pass when the sources found do
// not satisfy the budget.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/citations-engine/internal/compose"
	"github.com/pdiddy/citations-engine/internal/logging"
	"github.com/pdiddy/citations-engine/internal/search"
	"github.com/pdiddy/citations-engine/pkg/types"
)

// ErrEmptyQuestion is returned by Run for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// Stage is one state of the retrieval state machine.
type Stage int

const (
	StagePlanning Stage = iota
	StageSearching
	StageRanking
	StageFetching
	StageExtracting
	StageComposing
	StageEscalated
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StagePlanning:
		return "planning"
	case StageSearching:
		return "searching"
	case StageRanking:
		return "ranking"
	case StageFetching:
		return "fetching"
	case StageExtracting:
		return "extracting"
	case StageComposing:
		return "composing"
	case StageEscalated:
		return "escalated"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Orchestrator answers questions with a Toolkit. It holds no per-request
// state and may serve concurrent requests.
type Orchestrator struct {
	Toolkit Toolkit
	Logger  zerolog.Logger

	// Now is the clock for recency filtering and query years. Defaults to time.Now.
	Now func() time.Time
}

// New returns an orchestrator over tk.
func New(tk Toolkit, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{Toolkit: tk, Logger: logger}
}

// Result is everything a finished run produced.
type Result struct {
	RunID  string
	Answer types.ComposedAnswer
	State  *types.RetrievalState

	// Stages lists the states visited, in order.
	Stages []Stage
}

// Run answers question and returns the composed answer. The only errors
// are an empty question and an invalid budget; every retrieval failure
// degrades the answer instead.
func (o *Orchestrator) Run(ctx context.Context, question string, attachments []types.Attachment, budget types.RetrievalBudget) (*types.ComposedAnswer, error) {
	res, err := o.Execute(ctx, question, attachments, budget)
	if err != nil {
		return nil, err
	}
	return &res.Answer, nil
}

// Execute is Run returning the full Result.
func (o *Orchestrator) Execute(ctx context.Context, question string, attachments []types.Attachment, budget types.RetrievalBudget) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	budget = budget.WithDefaults()
	if err := budget.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.NewString()
	logger := o.Logger.With().Str("run_id", runID).Str("question", question).Logger()
	ctx = logger.WithContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, budget.LatencyBudget)
	defer cancel()

	r := &run{
		o:         o,
		log:       &logger,
		question:  question,
		budget:    budget,
		pass:      budget,
		now:       o.now(),
		state:     types.NewRetrievalState(question),
		issued:    make(map[string]bool),
		docQuotes: make(map[string][]types.Quote),
	}
	r.addAttachments(attachments)

	stages := r.loop(ctx)

	r.state.Elapsed = time.Since(start)
	answer := compose.Compose(r.state, budget)
	logging.Decision(r.log, "finalize", "composed answer", map[string]any{
		"confidence": string(answer.Confidence),
		"sources":    len(answer.Sources),
		"quotes":     len(answer.Quotes),
		"hops":       answer.Method.Hops,
		"escalated":  r.state.Escalated,
	})
	logging.Performance(r.log, "retrieval", r.state.Elapsed, !r.state.DeadlineExceeded)

	return &Result{RunID: runID, Answer: answer, State: r.state, Stages: stages}, nil
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// run is the per-request machine. Only the goroutine executing loop
// touches it; fetch workers communicate through channels.
type run struct {
	o        *Orchestrator
	log      *zerolog.Logger
	question string
	budget   types.RetrievalBudget

	// pass is the budget of the current pass: budget, then budget.Relaxed().
	pass types.RetrievalBudget

	now   time.Time
	state *types.RetrievalState

	// issued holds lowercased query strings already sent.
	issued map[string]bool

	// planned is the current pass's queries.
	planned []search.Request

	// found is every deduplicated search result, before ranking and
	// recency filtering.
	found []types.SearchResult

	// docQuotes holds candidate quotes per successful document URL.
	docQuotes map[string][]types.Quote
}

func (r *run) loop(ctx context.Context) []Stage {
	var stages []Stage
	stage := StagePlanning
	for {
		stages = append(stages, stage)
		if stage == StageDone {
			return stages
		}
		if ctx.Err() != nil && stage < StageComposing {
			r.deadline(stage)
			r.extract()
			stage = StageComposing
			continue
		}

		next := r.step(ctx, stage)
		if next != stage+1 {
			logging.Decision(r.log, "transition", fmt.Sprintf("%s -> %s", stage, next), nil)
		}
		stage = next
	}
}

func (r *run) step(ctx context.Context, stage Stage) Stage {
	switch stage {
	case StagePlanning:
		return r.plan()
	case StageSearching:
		return r.search(ctx)
	case StageRanking:
		return r.rank()
	case StageFetching:
		return r.fetch(ctx)
	case StageExtracting:
		return r.extract()
	case StageComposing:
		return r.decide(ctx)
	case StageEscalated:
		return r.escalate()
	default:
		return StageDone
	}
}

func (r *run) plan() Stage {
	if r.state.Escalated {
		r.planned = planDeep(r.question, r.pass, r.now, r.issued)
	} else {
		r.planned = planQuick(r.question, r.pass, r.issued)
	}
	if len(r.planned) == 0 {
		r.state.AddNote("no new query reformulations available")
		return StageRanking
	}
	return StageSearching
}

func (r *run) search(ctx context.Context) Stage {
	out := search.All(ctx, r.searchOne, r.planned)

	for _, req := range r.planned {
		r.state.Queries = append(r.state.Queries, req.QueryString())
	}
	r.state.QueriesIssued = len(r.state.Queries)
	r.state.SearchFailures += len(out.Failures)
	r.found, _ = search.Deduplicate(append(r.found, out.Results...))

	if ctx.Err() != nil {
		return StageRanking
	}
	if len(out.Failures) > 0 && len(out.Failures) == len(r.planned) {
		r.state.AddNote(fmt.Sprintf("search failed: all %d queries returned errors", len(r.planned)))
	} else {
		for _, f := range out.Failures {
			r.state.AddNote(fmt.Sprintf("search failed for %q", f.Query))
		}
	}
	return StageRanking
}

func (r *run) searchOne(ctx context.Context, req search.Request) ([]types.SearchResult, error) {
	start := time.Now()
	results, err := r.o.Toolkit.Search(ctx, req)
	logging.SearchQuery(zerolog.Ctx(ctx), req.QueryString(), len(results), time.Since(start), err)
	return results, err
}

func (r *run) rank() Stage {
	kept, dropped := rankResults(r.found, r.o.Toolkit.ScoreQuality, r.pass.RecencyWindowDays, r.now)
	r.state.Results = kept
	if dropped > 0 {
		r.state.AddNote(fmt.Sprintf("%d result(s) older than %d days dropped", dropped, r.pass.RecencyWindowDays))
	}
	return StageFetching
}

func (r *run) extract() Stage {
	r.state.Quotes = roundRobin(r.state.Successful(), r.docQuotes, r.budget.MaxQuotes)
	return StageComposing
}

func (r *run) decide(ctx context.Context) Stage {
	a := compose.Assess(r.state, r.budget)
	switch {
	case a.CriteriaMet:
		logging.Decision(r.log, "terminate", "source criteria met", map[string]any{
			"domains": a.Domains, "primary": a.Primary,
		})
		return StageDone
	case r.state.Escalated:
		logging.Decision(r.log, "terminate", "deep check did not satisfy criteria: "+a.Shortfall, nil)
		return StageDone
	case r.state.DeadlineExceeded || ctx.Err() != nil:
		logging.Decision(r.log, "terminate", "deadline reached before criteria were met", nil)
		return StageDone
	default:
		logging.Decision(r.log, "escalate", a.Shortfall, map[string]any{
			"domains": a.Domains, "primary": a.Primary,
		})
		return StageEscalated
	}
}

func (r *run) escalate() Stage {
	r.state.Escalated = true
	r.pass = r.budget.Relaxed()
	r.state.AddNote("escalated to deep check")
	return StagePlanning
}

func (r *run) deadline(at Stage) {
	if r.state.DeadlineExceeded {
		return
	}
	r.state.DeadlineExceeded = true
	r.state.AddNote(fmt.Sprintf("latency budget of %s exceeded during %s; answer is partial", r.budget.LatencyBudget, at))
	logging.Decision(r.log, "deadline", "latency budget exceeded", map[string]any{"stage": at.String()})
}
