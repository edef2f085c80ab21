// Package transcribe submits audio chunks to an Azure OpenAI
// speech-transcription deployment and classifies the outcome.
//
// The diarized path speaks the wire format directly: the SDK does not yet
// support the diarized_json response format or the chunking_strategy field,
// so requests are built as multipart forms. The plain path (text-only
// transcripts, no speaker labels) goes through go-openai.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	openai "github.com/sashabaranov/go-openai"

	"github.com/veritas-legal/deposcribe/internal/auth"
	"github.com/veritas-legal/deposcribe/internal/config"
)

// Request parameters fixed by the deployment.
const (
	// FormatDiarizedJSON requests per-segment speaker attribution.
	FormatDiarizedJSON = "diarized_json"

	// ChunkingStrategyAuto is the provider-side VAD directive. The service
	// requires it for the diarize model even though the caller has already
	// split the audio locally.
	ChunkingStrategyAuto = "auto"
)

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// audioTranscriber is the slice of the go-openai client the plain path uses.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance check.
var _ audioTranscriber = (*openai.Client)(nil)

// Client submits one audio file per call. It performs no retries itself;
// the retry controller wraps it.
type Client struct {
	url         string
	deployment  string
	language    string
	temperature float64
	cred        auth.Credential
	http        httpDoer
	sdk         audioTranscriber
	settings    config.Settings
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(d httpDoer) ClientOption {
	return func(c *Client) { c.http = d }
}

// WithSDKClient sets the go-openai client used by the plain path (for testing).
func WithSDKClient(t audioTranscriber) ClientOption {
	return func(c *Client) { c.sdk = t }
}

// NewClient creates a Client from settings and a credential.
func NewClient(s config.Settings, cred auth.Credential, opts ...ClientOption) *Client {
	c := &Client{
		url:         s.TranscriptionURL(),
		deployment:  s.Deployment,
		language:    s.Language,
		temperature: s.Temperature,
		cred:        cred,
		http:        &http.Client{Timeout: s.RequestTimeout},
		settings:    s,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe submits one chunk file for diarized transcription.
//
// Outcome classification:
//   - 200: parsed Result
//   - 500: ErrServer (transient, retryable)
//   - any other status: ErrRequest (deterministic, never retried)
//   - transport failure: ErrTransport (retryable)
func (c *Client) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	body, contentType, err := c.buildForm(audioPath)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if err := c.cred.Apply(ctx, req); err != nil {
		return Result{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return parseWireResult(respBody)
	case resp.StatusCode == http.StatusInternalServerError:
		return Result{}, fmt.Errorf("%w: %s", ErrServer, apiErrorMessage(respBody))
	default:
		return Result{}, fmt.Errorf("%w: HTTP %d: %s", ErrRequest, resp.StatusCode, apiErrorMessage(respBody))
	}
}

// buildForm assembles the multipart request body.
func (c *Client) buildForm(audioPath string) (*bytes.Buffer, string, error) {
	file, err := os.Open(audioPath) // #nosec G304 -- audioPath comes from the splitter
	if err != nil {
		return nil, "", fmt.Errorf("open audio file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("copy audio into form: %w", err)
	}

	fields := map[string]string{
		"model":             c.deployment,
		"response_format":   FormatDiarizedJSON,
		"chunking_strategy": ChunkingStrategyAuto,
		"language":          c.language,
		"temperature":       strconv.FormatFloat(c.temperature, 'g', -1, 64),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write %s field: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

// TranscribePlain submits the file through go-openai with the plain JSON
// response format. No speaker labels; Segments stays empty.
func (c *Client) TranscribePlain(ctx context.Context, audioPath string) (Result, error) {
	sdk, err := c.sdkClient(ctx)
	if err != nil {
		return Result{}, err
	}

	resp, err := sdk.CreateTranscription(ctx, openai.AudioRequest{
		Model:       c.deployment,
		FilePath:    audioPath,
		Format:      openai.AudioResponseFormatJSON,
		Language:    c.language,
		Temperature: float32(c.temperature),
	})
	if err != nil {
		return Result{}, classifySDKError(err)
	}

	return Result{Text: resp.Text}, nil
}

// sdkClient lazily builds the go-openai Azure client. With api-key auth the
// key goes straight into the config; with Entra auth a bearer token is
// fetched from the credential.
func (c *Client) sdkClient(ctx context.Context) (audioTranscriber, error) {
	if c.sdk != nil {
		return c.sdk, nil
	}

	var cfg openai.ClientConfig
	switch cred := c.cred.(type) {
	case *auth.APIKeyCredential:
		cfg = openai.DefaultAzureConfig(c.settings.APIKey, c.settings.Endpoint)
	case *auth.EntraCredential:
		tok, err := cred.Bearer(ctx)
		if err != nil {
			return nil, err
		}
		cfg = openai.DefaultAzureConfig(tok, c.settings.Endpoint)
		cfg.APIType = openai.APITypeAzureAD
	default:
		return nil, fmt.Errorf("credential scheme %q has no SDK support", c.cred.Name())
	}
	cfg.APIVersion = c.settings.APIVersion

	c.sdk = openai.NewClientWithConfig(cfg)
	return c.sdk, nil
}

// classifySDKError maps go-openai errors onto the package sentinels.
func classifySDKError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusInternalServerError {
			return fmt.Errorf("%w: %s", ErrServer, apiErr.Message)
		}
		return fmt.Errorf("%w: HTTP %d: %s", ErrRequest, apiErr.HTTPStatusCode, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// wireResult is the diarized_json response shape.
type wireResult struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Usage    struct {
		TotalTokens       int `json:"total_tokens"`
		InputTokens       int `json:"input_tokens"`
		OutputTokens      int `json:"output_tokens"`
		InputTokenDetails struct {
			AudioTokens int `json:"audio_tokens"`
			TextTokens  int `json:"text_tokens"`
		} `json:"input_token_details"`
	} `json:"usage"`
}

// parseWireResult decodes a 200 response body into a Result.
func parseWireResult(body []byte) (Result, error) {
	var wire wireResult
	if err := json.Unmarshal(body, &wire); err != nil {
		return Result{}, fmt.Errorf("%w: malformed success payload: %v", ErrRequest, err)
	}

	return Result{
		Text:     wire.Text,
		Segments: wire.Segments,
		Usage: Usage{
			TotalTokens:  wire.Usage.TotalTokens,
			InputTokens:  wire.Usage.InputTokens,
			OutputTokens: wire.Usage.OutputTokens,
			AudioTokens:  wire.Usage.InputTokenDetails.AudioTokens,
			TextTokens:   wire.Usage.InputTokenDetails.TextTokens,
		},
	}, nil
}

// apiErrorResponse is the service's error envelope.
type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// apiErrorMessage extracts a readable message from an error body, falling
// back to the raw body when it is not the expected envelope.
func apiErrorMessage(body []byte) string {
	var envelope apiErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(body)
}
