package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arin/chatbot-llm/internal/config"
)

const completionsPath = "/chat/completions"

// HTTPTransport implements Transport for OpenAI-compatible endpoints.
// The credential, base URL and model are fixed at construction.
type HTTPTransport struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        *slog.Logger
}

// NewHTTPTransport creates a transport from the loaded configuration. The
// client timeout bounds the whole request, body reads included.
func NewHTTPTransport(cfg *config.Config) (*HTTPTransport, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, config.ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	return &HTTPTransport{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      chooseModel(cfg.Model, config.DefaultModel),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout()},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func (t *HTTPTransport) WithHTTPClient(c *http.Client) *HTTPTransport {
	t.httpClient = c
	return t
}

// WithLogger sets the logger used for request diagnostics.
func (t *HTTPTransport) WithLogger(l *slog.Logger) *HTTPTransport {
	t.log = l
	return t
}

// Model returns the model used when a request does not name one.
func (t *HTTPTransport) Model() string {
	return t.model
}

// Endpoint returns the full completions URL.
func (t *HTTPTransport) Endpoint() string {
	return t.baseURL + completionsPath
}

// Open sends the conversation and returns the response body unread.
func (t *HTTPTransport) Open(ctx context.Context, req Request) (io.ReadCloser, error) {
	body, err := json.Marshal(t.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	t.log.Debug("opening completion",
		"endpoint", t.Endpoint(),
		"model", chooseModel(req.Model, t.model),
		"messages", len(req.Messages),
		"stream", req.Stream)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		errBody, readErr := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(errBody))
		if readErr != nil {
			msg = "unable to read error response"
		}
		t.log.Debug("completion rejected", "status", resp.StatusCode)
		return nil, &TransportError{Kind: KindStatus, StatusCode: resp.StatusCode, Body: msg}
	}

	t.log.Debug("completion opened", "status", resp.StatusCode)
	return resp.Body, nil
}

func (t *HTTPTransport) buildRequest(req Request) chatRequest {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	return chatRequest{
		Model:       chooseModel(req.Model, t.model),
		Messages:    toWire(req.Messages),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stream:      req.Stream,
	}
}

func chooseModel(requested, fallback string) string {
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return fallback
}
