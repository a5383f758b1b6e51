package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Dinesh-raya/news-intel/internal/config"
	"github.com/Dinesh-raya/news-intel/internal/ports"
	"github.com/Dinesh-raya/news-intel/internal/tokenopt"
)

// ErrMissingAPIKey is returned in strict mode when no backend credential is
// configured. Configuration-fatal: the run must not continue.
var ErrMissingAPIKey = errors.New("llm: api key is not configured")

// mockOutput keeps the pipeline exercisable end-to-end without a credential.
const mockOutput = "MOCK_LLM_OUTPUT (backend key missing): generated text placeholder."

const maxCompletionTokens = 1000

// StatusError carries a non-2xx backend response. Callers decide whether the
// failure is item-recoverable or stage-fatal.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generation backend returned %d: %s", e.Code, e.Body)
}

// OpenRouterClient implements ports.Generator against an OpenAI-compatible
// chat-completions endpoint with deterministic sampling.
type OpenRouterClient struct {
	endpoint   string
	model      string
	apiKey     string
	siteURL    string
	appTitle   string
	strict     bool
	optimizer  *tokenopt.Optimizer
	logger     *slog.Logger
	httpClient *http.Client
}

var _ ports.Generator = (*OpenRouterClient)(nil)

// NewOpenRouterClient builds a gateway from configuration. In strict mode a
// missing API key fails immediately rather than degrading to mock output.
func NewOpenRouterClient(cfg config.LLMConfig, optimizer *tokenopt.Optimizer, logger *slog.Logger) (*OpenRouterClient, error) {
	if cfg.APIKey == "" && cfg.Strict {
		return nil, ErrMissingAPIKey
	}
	if cfg.APIKey == "" && logger != nil {
		logger.Warn("llm api key missing, responses will be mocked")
	}

	return &OpenRouterClient{
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		siteURL:   cfg.SiteURL,
		appTitle:  cfg.AppTitle,
		strict:    cfg.Strict,
		optimizer: optimizer,
		logger:    logger,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Generate posts the composed prompt and returns the first choice's message
// content. Temperature is pinned to zero so retries reproduce the same output.
func (c *OpenRouterClient) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("llm client is nil")
	}
	if c.apiKey == "" {
		if c.strict {
			return "", ErrMissingAPIKey
		}
		return mockOutput, nil
	}

	fullPrompt := prompt
	if strings.TrimSpace(systemInstruction) != "" {
		fullPrompt = systemInstruction + "\n\n" + prompt
	}
	fullPrompt = c.optimizer.CompressPrompt(fullPrompt)

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": fullPrompt},
		},
		"temperature": 0.0,
		"top_p":       0.9,
		"max_tokens":  maxCompletionTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.siteURL)
	req.Header.Set("X-Title", c.appTitle)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("generation response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
