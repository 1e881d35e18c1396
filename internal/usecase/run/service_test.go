package run

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/clerkdesk/agenda-report/errors"
	"github.com/clerkdesk/agenda-report/internal/domain/entities"
	"github.com/clerkdesk/agenda-report/internal/usecase/engine"
	"github.com/clerkdesk/agenda-report/pkg/config"
	"github.com/clerkdesk/agenda-report/pkg/llm"
)

// stubClient answers every pass-1 call with a summary and the last call with
// the report body.
type stubClient struct {
	items int

	mu    sync.Mutex
	calls int
	ready int
}

func (s *stubClient) Ready(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready++
	return nil
}

func (s *stubClient) ChatStream(ctx context.Context, req llm.ChatRequest, onChunk func(string) error) (string, error) {
	s.mu.Lock()
	call := s.calls
	s.calls++
	s.mu.Unlock()

	text := "8-Sep Meeting\nConsent:\n- Everything approved"
	if call < s.items {
		text = "Item summary"
	}
	if onChunk != nil {
		if err := onChunk(text); err != nil {
			return "", err
		}
	}
	return text, nil
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testConfig() *config.Config {
	return &config.Config{
		Sampling: config.SamplingConfig{TopK: 20, MaxTokens: 1000},
		Headers:  entities.DefaultHeaderMapping(),
		Templates: config.TemplatesConfig{
			Pass1: entities.DefaultPass1Template().Body,
			Pass2: entities.DefaultPass2Template().Body,
		},
		Generation: config.GenerationConfig{FailurePolicy: "abort"},
	}
}

func writeSource(t *testing.T) string {
	t.Helper()
	content := "MEETING DATE,AGENDA SECTION,AGENDA ITEM,NOTES,Include in Summary for Mayor\n" +
		"8-Sep,Consent,Budget,First reading,Y\n" +
		"8-Sep,Study Session,Traffic,Staff report,N\n" +
		"22-Sep,Consent,Roads,,Y\n"
	path := filepath.Join(t.TempDir(), "agenda.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExecute_EndToEnd(t *testing.T) {
	client := &stubClient{items: 2}
	svc := NewService(testConfig(), client, zap.NewNop())

	out := filepath.Join(t.TempDir(), "report.docx")
	var tokens int
	res, err := svc.Execute(context.Background(), Request{
		InputPath:  writeSource(t),
		OutputPath: out,
		OnEvent: func(ev engine.Event) {
			if ev.Kind == engine.EventToken {
				tokens++
			}
		},
	})
	require.NoError(t, err)

	// Two included items, so two pass-1 calls plus the aggregate pass.
	assert.Equal(t, 3, client.callCount())
	assert.Equal(t, 2, res.TotalItems)
	assert.Empty(t, res.Failures)
	assert.Positive(t, tokens)

	require.Len(t, res.Report.Sections, 2)
	assert.Equal(t, "Budget", res.Report.Sections[0].Heading)
	assert.Equal(t, "Roads", res.Report.Sections[1].Heading)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExecute_OverridesChangeSelection(t *testing.T) {
	client := &stubClient{items: 3}
	svc := NewService(testConfig(), client, zap.NewNop())

	out := filepath.Join(t.TempDir(), "report.docx")
	res, err := svc.Execute(context.Background(), Request{
		InputPath:  writeSource(t),
		OutputPath: out,
		Overrides:  map[int]bool{1: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalItems)
	assert.Equal(t, 4, client.callCount())
}

func TestExecute_InvalidTemplateFailsBeforeAnyCall(t *testing.T) {
	cfg := testConfig()
	cfg.Templates.Pass1 = "Summarize {items_text}" // pass-2 key in pass 1
	client := &stubClient{}
	svc := NewService(cfg, client, zap.NewNop())

	_, err := svc.Execute(context.Background(), Request{
		InputPath:  writeSource(t),
		OutputPath: filepath.Join(t.TempDir(), "report.docx"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrorCode_TEMPLATE_RESOLUTION))
	assert.Zero(t, client.callCount())
	assert.Zero(t, client.ready)
}

func TestExecute_SchemaMismatchSurfaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("WRONG,HEADERS\n1,2\n"), 0o644))

	svc := NewService(testConfig(), &stubClient{}, zap.NewNop())
	_, err := svc.Execute(context.Background(), Request{
		InputPath:  path,
		OutputPath: filepath.Join(t.TempDir(), "report.docx"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrorCode_SCHEMA_MISMATCH))
}

func TestExecute_CancelledRunWritesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "report.docx")
	svc := NewService(testConfig(), &stubClient{items: 2}, zap.NewNop())
	_, err := svc.Execute(ctx, Request{
		InputPath:  writeSource(t),
		OutputPath: out,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCancelled(err))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPreview(t *testing.T) {
	svc := NewService(testConfig(), &stubClient{}, zap.NewNop())
	items, err := svc.Preview(Request{InputPath: writeSource(t)})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Budget", items[0].Title)
	assert.Equal(t, "Roads", items[1].Title)
}
