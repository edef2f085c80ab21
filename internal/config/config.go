// Package config builds the process-wide Settings object.
//
// All tunables come from environment variables (a .env file, if present, is
// loaded by main before this package runs). Settings is constructed once at
// startup and passed by value into each component; no library code reads the
// environment directly.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variable names.
const (
	EnvEndpoint       = "AZURE_OPENAI_ENDPOINT"
	EnvAPIVersion     = "AZURE_OPENAI_API_VERSION"
	EnvAPIKey         = "AZURE_OPENAI_API_KEY"
	EnvDeployment     = "MODEL_DEPLOYMENT_NAME"
	EnvMaxDuration    = "DEPOSCRIBE_MAX_DURATION"
	EnvChunkDuration  = "DEPOSCRIBE_CHUNK_DURATION"
	EnvMaxAttempts    = "DEPOSCRIBE_MAX_ATTEMPTS"
	EnvRetryDelay     = "DEPOSCRIBE_RETRY_DELAY"
	EnvChunkDelay     = "DEPOSCRIBE_CHUNK_DELAY"
	EnvRequestTimeout = "DEPOSCRIBE_REQUEST_TIMEOUT"
	EnvOutputDir      = "DEPOSCRIBE_OUTPUT_DIR"
	EnvLanguage       = "DEPOSCRIBE_LANGUAGE"
	EnvTemperature    = "DEPOSCRIBE_TEMPERATURE"
)

// Defaults matching the gpt-4o-transcribe-diarize deployment limits:
// the model rejects audio over 1500s, so chunks are cut at 1400s to leave
// a processing buffer.
const (
	DefaultAPIVersion     = "2025-04-01-preview"
	DefaultDeployment     = "gpt-4o-transcribe-diarize"
	DefaultMaxDuration    = 1500.0
	DefaultChunkDuration  = 1400.0
	DefaultMaxAttempts    = 3
	DefaultRetryDelay     = 10 * time.Second
	DefaultChunkDelay     = 5 * time.Second
	DefaultRequestTimeout = 5 * time.Minute
	DefaultOutputDir      = "output/depositions"
	DefaultLanguage       = "en"
	DefaultTemperature    = 0.0
)

// Settings holds every knob the pipeline reads.
type Settings struct {
	// Remote endpoint.
	Endpoint   string // base URL, trailing slash normalized
	APIVersion string
	APIKey     string
	Deployment string

	// Splitting.
	MaxDuration   float64 // seconds; files over this get chunked
	ChunkDuration float64 // seconds per chunk window

	// Retry and throttling.
	MaxAttempts    int
	RetryDelay     time.Duration // fixed inter-attempt delay
	ChunkDelay     time.Duration // throttle between successful chunks
	RequestTimeout time.Duration

	// Request parameters.
	Language    string
	Temperature float64

	OutputDir string
}

// Load reads Settings from the environment.
func Load() (Settings, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(EnvAPIVersion, DefaultAPIVersion)
	v.SetDefault(EnvDeployment, DefaultDeployment)
	v.SetDefault(EnvMaxDuration, DefaultMaxDuration)
	v.SetDefault(EnvChunkDuration, DefaultChunkDuration)
	v.SetDefault(EnvMaxAttempts, DefaultMaxAttempts)
	v.SetDefault(EnvRetryDelay, DefaultRetryDelay)
	v.SetDefault(EnvChunkDelay, DefaultChunkDelay)
	v.SetDefault(EnvRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(EnvOutputDir, DefaultOutputDir)
	v.SetDefault(EnvLanguage, DefaultLanguage)
	v.SetDefault(EnvTemperature, DefaultTemperature)

	s := Settings{
		Endpoint:       normalizeEndpoint(v.GetString(EnvEndpoint)),
		APIVersion:     v.GetString(EnvAPIVersion),
		APIKey:         v.GetString(EnvAPIKey),
		Deployment:     v.GetString(EnvDeployment),
		MaxDuration:    v.GetFloat64(EnvMaxDuration),
		ChunkDuration:  v.GetFloat64(EnvChunkDuration),
		MaxAttempts:    v.GetInt(EnvMaxAttempts),
		RetryDelay:     v.GetDuration(EnvRetryDelay),
		ChunkDelay:     v.GetDuration(EnvChunkDelay),
		RequestTimeout: v.GetDuration(EnvRequestTimeout),
		Language:       v.GetString(EnvLanguage),
		Temperature:    v.GetFloat64(EnvTemperature),
		OutputDir:      v.GetString(EnvOutputDir),
	}

	return s, s.validate()
}

// validate rejects values the pipeline cannot run with.
// Endpoint presence is checked later, at command time, so that commands
// that never touch the API (render, probe) work without credentials.
func (s Settings) validate() error {
	if s.ChunkDuration <= 0 {
		return fmt.Errorf("%s must be positive, got %v", EnvChunkDuration, s.ChunkDuration)
	}
	if s.MaxDuration <= 0 {
		return fmt.Errorf("%s must be positive, got %v", EnvMaxDuration, s.MaxDuration)
	}
	if s.MaxAttempts < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", EnvMaxAttempts, s.MaxAttempts)
	}
	if s.RetryDelay < 0 || s.ChunkDelay < 0 {
		return fmt.Errorf("retry and chunk delays must be non-negative")
	}
	return nil
}

// TranscriptionURL returns the full deployment URL for audio transcription.
func (s Settings) TranscriptionURL() string {
	return fmt.Sprintf("%s/openai/deployments/%s/audio/transcriptions?api-version=%s",
		s.Endpoint, s.Deployment, s.APIVersion)
}

// normalizeEndpoint strips a trailing slash so URL construction is uniform.
func normalizeEndpoint(e string) string {
	return strings.TrimRight(e, "/")
}
