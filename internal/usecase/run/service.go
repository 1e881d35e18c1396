package run

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/clerkdesk/agenda-report/errors"
	"github.com/clerkdesk/agenda-report/internal/domain/entities"
	"github.com/clerkdesk/agenda-report/internal/usecase/assembler"
	"github.com/clerkdesk/agenda-report/internal/usecase/engine"
	"github.com/clerkdesk/agenda-report/internal/usecase/loader"
	"github.com/clerkdesk/agenda-report/internal/usecase/prompt"
	"github.com/clerkdesk/agenda-report/internal/usecase/selector"
	"github.com/clerkdesk/agenda-report/pkg/config"
	"github.com/clerkdesk/agenda-report/pkg/llm"
)

// Request describes one end-to-end generation.
type Request struct {
	InputPath  string
	OutputPath string

	// Sheet names the worksheet to read; empty means the first sheet.
	Sheet string

	// SkipDecorationRows drops rows whose date cell does not start with a
	// digit (spacer and banner rows in hand-maintained workbooks).
	SkipDecorationRows bool

	// Overrides flips per-item inclusion, keyed by the item's Index as
	// assigned by the loader: the ordinal among loaded rows, the same
	// number the preview command prints. Items absent from the map keep
	// their source inclusion flag.
	Overrides map[int]bool

	// OnEvent, when set, receives every run event as it happens: state
	// transitions, streamed tokens and skip notices.
	OnEvent func(engine.Event)
}

// Result is the outcome of a completed generation.
type Result struct {
	RunID      uuid.UUID
	Report     entities.Report
	OutputPath string
	TotalItems int
	Failures   []error
}

// Service wires the full pipeline: load, select, prompt, generate, assemble.
type Service struct {
	cfg       *config.Config
	loader    *loader.Loader
	builder   *prompt.Builder
	engine    *engine.Engine
	assembler *assembler.Assembler
	logger    *zap.Logger
}

// NewService constructs the pipeline around a model client. Templates and
// header mapping come from the configuration.
func NewService(cfg *config.Config, client llm.ChatClient, logger *zap.Logger) *Service {
	builder := prompt.NewBuilder(
		entities.PromptTemplate{Name: entities.TemplatePass1, Body: cfg.Templates.Pass1},
		entities.PromptTemplate{Name: entities.TemplatePass2, Body: cfg.Templates.Pass2},
		cfg.Generation.StripBrackets,
	)
	return &Service{
		cfg:       cfg,
		loader:    loader.New(logger),
		builder:   builder,
		engine:    engine.New(client, builder, cfg, logger),
		assembler: assembler.New(logger),
		logger:    logger,
	}
}

// Sheets lists the worksheets of a workbook source.
func (s *Service) Sheets(path string) ([]string, error) {
	return s.loader.Sheets(path)
}

// Preview loads and selects the agenda items without generating anything, so
// a caller can show what a run would cover.
func (s *Service) Preview(req Request) ([]entities.AgendaItem, error) {
	items, err := s.loader.Load(req.InputPath, s.cfg.Headers, loader.Options{
		Sheet:              req.Sheet,
		SkipDecorationRows: req.SkipDecorationRows,
	})
	if err != nil {
		return nil, err
	}
	return selector.Apply(items, req.Overrides), nil
}

// Execute runs the whole pipeline. Templates and the header mapping are
// validated before the source is read, so misconfiguration fails fast. A
// cancelled run returns RUN_CANCELLED and writes no document.
func (s *Service) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := s.builder.Validate(); err != nil {
		return nil, err
	}
	if err := s.cfg.Headers.Validate(); err != nil {
		return nil, apperrors.ErrConfigInvalid("headers", err)
	}

	selected, err := s.Preview(req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("starting generation run",
		zap.Int("items", len(selected)),
		zap.String("input", req.InputPath),
		zap.String("output", req.OutputPath),
	)

	r, err := s.engine.Start(ctx, selected)
	if err != nil {
		return nil, err
	}
	for ev := range r.Events() {
		if req.OnEvent != nil {
			req.OnEvent(ev)
		}
	}

	draft, err := r.Wait()
	if err != nil {
		return nil, err
	}

	report := s.assembler.BuildReport(draft.Body, draft.Sections, draft.MeetingDates)
	if err := s.assembler.Write(report, req.OutputPath); err != nil {
		return nil, err
	}

	s.logger.Info("generation run complete",
		zap.String("run_id", draft.RunID.String()),
		zap.String("output", req.OutputPath),
		zap.Int("skipped", len(r.Failures())),
	)
	return &Result{
		RunID:      draft.RunID,
		Report:     report,
		OutputPath: req.OutputPath,
		TotalItems: len(selected),
		Failures:   r.Failures(),
	}, nil
}
