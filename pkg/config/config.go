package config

import (
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/clerkdesk/agenda-report/errors"
	"github.com/clerkdesk/agenda-report/internal/domain/entities"
)

// Config holds application configuration. A loaded Config is immutable for
// the duration of a run; components receive it by reference and never read
// ambient global state.
type Config struct {
	Server     ServerConfig           `mapstructure:"-"`
	Runtime    RuntimeConfig          `mapstructure:"-"`
	Sampling   SamplingConfig         `mapstructure:"sampling" validate:"required"`
	Headers    entities.HeaderMapping `mapstructure:"headers"`
	Templates  TemplatesConfig        `mapstructure:"templates"`
	Generation GenerationConfig       `mapstructure:"generation"`
}

// ServerConfig holds process-level configuration
type ServerConfig struct {
	Environment string
}

// RuntimeConfig holds the local model runtime endpoint configuration
type RuntimeConfig struct {
	BaseURL        string        `validate:"required,url"`
	Model          string
	RequestTimeout time.Duration `validate:"gt=0"`
	HealthTimeout  time.Duration `validate:"gt=0"`
}

// SamplingConfig holds the model sampling parameters, fixed per run so the
// pipeline around the model is deterministic even though generated text is
// not guaranteed to be.
type SamplingConfig struct {
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	TopP        float64 `mapstructure:"top_p" validate:"gte=0,lte=1"`
	TopK        int     `mapstructure:"top_k" validate:"gte=0"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gt=0"`
}

// TemplatesConfig holds the user-editable prompt template bodies
type TemplatesConfig struct {
	Pass1 string `mapstructure:"pass1" validate:"required"`
	Pass2 string `mapstructure:"pass2" validate:"required"`
}

// GenerationConfig holds run behavior settings
type GenerationConfig struct {
	// FailurePolicy is "abort" (default) or "skip"; see entities.FailurePolicy.
	FailurePolicy string `mapstructure:"failure_policy" validate:"oneof=abort skip"`

	// StripBrackets removes [bracketed] internal annotations from field
	// values before they reach any prompt.
	StripBrackets bool `mapstructure:"strip_brackets"`
}

// Policy returns the typed failure policy.
func (g GenerationConfig) Policy() entities.FailurePolicy {
	if g.FailurePolicy == string(entities.FailurePolicySkip) {
		return entities.FailurePolicySkip
	}
	return entities.FailurePolicyAbort
}

// Load loads configuration from environment variables and the persisted
// settings store. settingsPath may be empty, in which case every setting
// falls back to its default. The settings file is read-only to the core
// during a run.
func Load(settingsPath string) (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	v := viper.New()
	setDefaults(v)

	if settingsPath != "" {
		v.SetConfigFile(settingsPath)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(settingsPath); statErr == nil {
				return nil, apperrors.ErrConfigInvalid("settings file", err)
			}
			// Missing settings file is a first run; defaults apply.
		}
	}

	config := &Config{
		Server: ServerConfig{
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Runtime: RuntimeConfig{
			BaseURL:        getEnv("RUNTIME_URL", "http://127.0.0.1:8080"),
			Model:          getEnv("RUNTIME_MODEL", ""),
			RequestTimeout: getEnvAsDuration("RUNTIME_REQUEST_TIMEOUT", "10m"),
			HealthTimeout:  getEnvAsDuration("RUNTIME_HEALTH_TIMEOUT", "90s"),
		},
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, apperrors.ErrConfigInvalid("settings file", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.ErrConfigInvalid("run configuration", err)
	}
	if err := c.Headers.Validate(); err != nil {
		return apperrors.ErrConfigInvalid("header mapping", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	def := entities.DefaultHeaderMapping()
	v.SetDefault("headers.date", def.Date)
	v.SetDefault("headers.section", def.Section)
	v.SetDefault("headers.item", def.Item)
	v.SetDefault("headers.notes", def.Notes)
	v.SetDefault("headers.include", def.Include)

	v.SetDefault("templates.pass1", entities.DefaultPass1Template().Body)
	v.SetDefault("templates.pass2", entities.DefaultPass2Template().Body)

	v.SetDefault("sampling.temperature", 0.0)
	v.SetDefault("sampling.top_p", 0.0)
	v.SetDefault("sampling.top_k", 20)
	v.SetDefault("sampling.max_tokens", 10000)

	v.SetDefault("generation.failure_policy", string(entities.FailurePolicyAbort))
	v.SetDefault("generation.strip_brackets", true)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
