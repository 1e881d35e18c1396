package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clerkdesk/agenda-report/internal/domain/entities"
)

func TestLoad_DefaultsWithoutSettingsFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080", cfg.Runtime.BaseURL)
	assert.Equal(t, 10*time.Minute, cfg.Runtime.RequestTimeout)
	assert.Equal(t, 90*time.Second, cfg.Runtime.HealthTimeout)

	assert.Equal(t, entities.DefaultHeaderMapping(), cfg.Headers)
	assert.Equal(t, entities.DefaultPass1Template().Body, cfg.Templates.Pass1)
	assert.Equal(t, 20, cfg.Sampling.TopK)
	assert.Equal(t, 10000, cfg.Sampling.MaxTokens)
	assert.Equal(t, entities.FailurePolicyAbort, cfg.Generation.Policy())
	assert.True(t, cfg.Generation.StripBrackets)
}

func TestLoad_SettingsFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	settings := `{
		"sampling": {"temperature": 0.7, "top_k": 40, "max_tokens": 2048},
		"headers": {"notes": "STAFF NOTES"},
		"generation": {"failure_policy": "skip"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(settings), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Sampling.Temperature)
	assert.Equal(t, 40, cfg.Sampling.TopK)
	assert.Equal(t, 2048, cfg.Sampling.MaxTokens)
	assert.Equal(t, "STAFF NOTES", cfg.Headers.Notes)
	assert.Equal(t, "MEETING DATE", cfg.Headers.Date, "unset keys keep defaults")
	assert.Equal(t, entities.FailurePolicySkip, cfg.Generation.Policy())
}

func TestLoad_MalformedSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RUNTIME_URL", "http://10.0.0.5:9090")
	t.Setenv("RUNTIME_REQUEST_TIMEOUT", "3m")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9090", cfg.Runtime.BaseURL)
	assert.Equal(t, 3*time.Minute, cfg.Runtime.RequestTimeout)
	assert.Equal(t, "production", cfg.Server.Environment)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Sampling.Temperature = 3.5
	assert.Error(t, cfg.Validate())

	cfg, _ = Load("")
	cfg.Generation.FailurePolicy = "retry"
	assert.Error(t, cfg.Validate())

	cfg, _ = Load("")
	cfg.Headers.Item = cfg.Headers.Notes
	assert.Error(t, cfg.Validate())
}
