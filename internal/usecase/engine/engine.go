package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/clerkdesk/agenda-report/errors"
	"github.com/clerkdesk/agenda-report/internal/domain/entities"
	"github.com/clerkdesk/agenda-report/internal/usecase/prompt"
	"github.com/clerkdesk/agenda-report/pkg/config"
	"github.com/clerkdesk/agenda-report/pkg/llm"
)

// Engine drives the local model through the two generation passes. The model
// runtime is a serially-reusable resource: at most one run, and within it one
// in-flight inference call, exists system-wide.
type Engine struct {
	client  llm.ChatClient
	builder *prompt.Builder
	cfg     *config.Config
	logger  *zap.Logger

	mu     sync.Mutex
	active bool
}

// Draft is the generated material handed to the document assembler: the
// pass-2 prose body plus one ordered section per selected item.
type Draft struct {
	RunID        uuid.UUID
	Body         string
	Sections     []entities.ReportSection
	MeetingDates []string
	Results      []entities.PassResult
}

// Run is a handle on one in-flight generation. Events() streams progress;
// the channel closes when the run reaches a terminal state.
type Run struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	run      *entities.GenerationRun
	draft    *Draft
	err      error
	failures []error
}

// New constructs an Engine.
func New(client llm.ChatClient, builder *prompt.Builder, cfg *config.Config, logger *zap.Logger) *Engine {
	return &Engine{client: client, builder: builder, cfg: cfg, logger: logger}
}

// Start begins a two-pass generation over the selected items on a background
// worker and returns immediately. Only one run may be active at a time.
func (e *Engine) Start(ctx context.Context, items []entities.AgendaItem) (*Run, error) {
	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return nil, fmt.Errorf("a generation run is already active")
	}
	e.active = true
	e.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r := &Run{
		events: make(chan Event, 64),
		cancel: cancel,
		done:   make(chan struct{}),
		run:    entities.NewGenerationRun(len(items)),
	}

	go func() {
		defer func() {
			close(r.events)
			close(r.done)
			cancel()
			e.mu.Lock()
			e.active = false
			e.mu.Unlock()
		}()
		e.execute(runCtx, r, items)
	}()

	return r, nil
}

// Events returns the run's progress stream. It closes on completion.
func (r *Run) Events() <-chan Event { return r.events }

// Cancel requests cooperative cancellation. The in-flight call is abandoned
// at the next streamed chunk and no further calls are issued.
func (r *Run) Cancel() { r.cancel() }

// Wait blocks until the run terminates. A cancelled run returns the
// RUN_CANCELLED outcome and no draft; partial results are discarded.
func (r *Run) Wait() (*Draft, error) {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft, r.err
}

// State reports the run's current state.
func (r *Run) State() entities.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run.State
}

// Failures lists the per-item generation failures consumed by the
// skip-and-continue policy during the run.
func (r *Run) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.failures))
	copy(out, r.failures)
	return out
}

func (r *Run) setState(transition func(*entities.GenerationRun)) entities.RunState {
	r.mu.Lock()
	transition(r.run)
	state := r.run.State
	r.mu.Unlock()
	return state
}

// execute runs the state machine on the background worker.
func (e *Engine) execute(ctx context.Context, r *Run, items []entities.AgendaItem) {
	runID := r.run.ID
	log := e.logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", runID.String()))

	fail := func(err error) {
		msg := err.Error()
		r.events <- Event{Kind: EventStateChanged, State: r.setState(func(g *entities.GenerationRun) { g.MarkFailed(msg) }), ItemIndex: -1, Err: err}
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		log.Error("generation run failed", zap.Error(err))
	}
	cancelled := func() {
		r.events <- stateEvent(r.setState((*entities.GenerationRun).MarkCancelled))
		r.mu.Lock()
		r.err = apperrors.ErrRunCancelled()
		r.mu.Unlock()
		log.Info("generation run cancelled")
	}

	// LoadingModel: probe the runtime before any prompt is sent.
	r.events <- stateEvent(r.setState((*entities.GenerationRun).MarkLoadingModel))
	if err := e.client.Ready(ctx); err != nil {
		if ctx.Err() != nil {
			cancelled()
			return
		}
		fail(apperrors.ErrModelUnavailable(err))
		return
	}

	// Pass 1: one invocation per selected item, sequential, in item order.
	results := make([]entities.PassResult, 0, len(items))
	for i, item := range items {
		if ctx.Err() != nil {
			cancelled()
			return
		}

		r.events <- stateEvent(r.setState(func(g *entities.GenerationRun) { g.MarkPass1Running(i + 1) }))
		r.events <- Event{Kind: EventPassStarted, State: entities.RunStatePass1Running, Pass: 1, ItemIndex: item.Index}

		p, err := e.builder.RenderPass1(item)
		if err != nil {
			fail(err)
			return
		}

		res, err := e.invoke(ctx, r, 1, item.Index, p)
		if err != nil {
			if ctx.Err() != nil {
				cancelled()
				return
			}
			genErr := apperrors.ErrGenerationFailure(1, item.Index, err)
			if e.cfg.Generation.Policy() == entities.FailurePolicySkip {
				log.Warn("pass 1 item skipped",
					zap.Int("item_index", item.Index),
					zap.Error(err),
				)
				r.mu.Lock()
				r.failures = append(r.failures, genErr)
				r.mu.Unlock()
				skipped := entities.NewSkippedResult(runID, item.Index)
				results = append(results, skipped)
				r.events <- Event{Kind: EventItemSkipped, State: entities.RunStatePass1Running, Pass: 1, ItemIndex: item.Index, Err: genErr}
				continue
			}
			fail(genErr)
			return
		}

		results = append(results, res)
		r.events <- Event{Kind: EventPassCompleted, State: entities.RunStatePass1Running, Pass: 1, ItemIndex: item.Index, Result: &res}
	}

	r.events <- stateEvent(r.setState((*entities.GenerationRun).MarkPass1Complete))

	if ctx.Err() != nil {
		cancelled()
		return
	}

	// Pass 2: exactly one invocation over the pass-1 results, aggregated in
	// item order.
	itemsText, dates := aggregate(items, results, e.builder.FieldValue)
	p2, err := e.builder.RenderPass2(itemsText, dates, len(items))
	if err != nil {
		fail(err)
		return
	}

	r.events <- stateEvent(r.setState((*entities.GenerationRun).MarkPass2Running))
	r.events <- Event{Kind: EventPassStarted, State: entities.RunStatePass2Running, Pass: 2, ItemIndex: -1}

	res, err := e.invoke(ctx, r, 2, -1, p2)
	if err != nil {
		if ctx.Err() != nil {
			cancelled()
			return
		}
		fail(apperrors.ErrGenerationFailure(2, -1, err))
		return
	}
	results = append(results, res)
	r.events <- Event{Kind: EventPassCompleted, State: entities.RunStatePass2Running, Pass: 2, ItemIndex: -1, Result: &res}

	draft := &Draft{
		RunID:        runID,
		Body:         res.Text,
		Sections:     sections(items, results),
		MeetingDates: dates,
		Results:      results,
	}

	r.mu.Lock()
	r.draft = draft
	r.mu.Unlock()
	r.events <- stateEvent(r.setState((*entities.GenerationRun).MarkPass2Complete))
	log.Info("generation run complete",
		zap.Int("items", len(items)),
		zap.Int("skipped", len(r.Failures())),
	)
}

// invoke performs one streamed model call, filtering think-tag ranges out of
// the chunks it republishes and recording token and timing metrics.
func (e *Engine) invoke(ctx context.Context, r *Run, pass, itemIndex int, promptText string) (entities.PassResult, error) {
	filter := &llm.ThinkFilter{}
	tokens := 0
	started := time.Now()

	req := llm.ChatRequest{
		Prompt:      promptText,
		Temperature: e.cfg.Sampling.Temperature,
		TopP:        e.cfg.Sampling.TopP,
		TopK:        e.cfg.Sampling.TopK,
		MaxTokens:   e.cfg.Sampling.MaxTokens,
	}

	raw, err := e.client.ChatStream(ctx, req, func(chunk string) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		tokens++
		if visible := filter.Filter(chunk); visible != "" {
			r.events <- Event{Kind: EventToken, Pass: pass, ItemIndex: itemIndex, Token: visible}
		}
		return nil
	})
	if err != nil {
		return entities.PassResult{}, err
	}
	if tail := filter.Flush(); tail != "" {
		r.events <- Event{Kind: EventToken, Pass: pass, ItemIndex: itemIndex, Token: tail}
	}

	text := llm.CleanOutput(raw)
	if strings.TrimSpace(text) == "" {
		return entities.PassResult{}, errors.New("model produced empty output")
	}

	result := entities.NewPassResult(r.run.ID, pass, itemIndex, text)
	result.Tokens = tokens
	result.Duration = time.Since(started)
	return result, nil
}

// aggregate joins the pass-1 outputs in item order for the pass-2 prompt and
// collects the distinct meeting dates in first-seen order. Dates pass through
// the same field hygiene as every other prompt value; a skipped item is
// labeled by its position within the selected batch, matching the numbering
// the pass-2 prompt presents.
func aggregate(items []entities.AgendaItem, results []entities.PassResult, clean func(string) string) (string, []string) {
	var b strings.Builder
	position := 0
	for _, res := range results {
		if res.Pass != 1 {
			continue
		}
		position++
		if res.Skipped {
			fmt.Fprintf(&b, "- Item %d: TBD (summary unavailable)\n", position)
			continue
		}
		b.WriteString(res.Text)
		b.WriteString("\n")
	}

	seen := map[string]bool{}
	var dates []string
	for _, item := range items {
		d := clean(item.MeetingDate)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		dates = append(dates, d)
	}
	return b.String(), dates
}

// sections builds one ordered report section per selected item. A skipped
// item gets a literal placeholder section, never model text.
func sections(items []entities.AgendaItem, results []entities.PassResult) []entities.ReportSection {
	byIndex := map[int]entities.PassResult{}
	for _, res := range results {
		if res.Pass == 1 {
			byIndex[res.ItemIndex] = res
		}
	}

	out := make([]entities.ReportSection, 0, len(items))
	for _, item := range items {
		section := entities.ReportSection{
			Heading:   item.Title,
			ItemIndex: item.Index,
		}
		if res, ok := byIndex[item.Index]; ok && !res.Skipped {
			section.Body = res.Text
		} else {
			section.Body = entities.TBDText
			section.Placeholder = true
		}
		out = append(out, section)
	}
	return out
}
