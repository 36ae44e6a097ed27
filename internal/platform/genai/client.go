// Package genai is the HTTP client for the external narrative generator.
// It talks to an OpenAI-compatible chat-completions endpoint, asks for the
// fixed case-study section set as a JSON object, and reports token usage and
// estimated cost per call. All upstream failures are mapped onto the small
// error taxonomy in errors.go so the lifecycle controller can decide what to
// surface.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Sections is the fixed set of named narrative sections a generated case
// study consists of.
type Sections struct {
	PreTreatmentSummary string `json:"pre_treatment_summary"`
	InitialDiagnosis    string `json:"initial_diagnosis"`
	TreatmentGoals      string `json:"treatment_goals"`
	TreatmentSummary    string `json:"treatment_summary"`
	ProceduresPerformed string `json:"procedures_performed"`
	OutcomeSummary      string `json:"outcome_summary"`
	SuccessMetrics      string `json:"success_metrics"`
	FullNarrative       string `json:"full_narrative"`
}

// Usage is the token accounting reported by the generator.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is a successful full generation.
type Result struct {
	Sections Sections
	Model    string
	Usage    Usage
	Cost     float64
}

// SectionResult is a successful single-section regeneration.
type SectionResult struct {
	Text  string
	Model string
	Usage Usage
	Cost  float64
}

// Client is the generator collaborator consumed by the case-study service.
type Client interface {
	// GenerateCaseStudy produces the full section set from the prompt.
	GenerateCaseStudy(ctx context.Context, system, user string) (*Result, error)
	// RegenerateSection produces replacement text for a single named section.
	RegenerateSection(ctx context.Context, system, user, section string) (*SectionResult, error)
}

// Config configures the HTTP client.
type Config struct {
	APIKey               string
	BaseURL              string
	Model                string
	PromptPricePer1K     float64
	CompletionPricePer1K float64
	MaxRetries           int
	RetryDelay           time.Duration
	HTTPClient           *http.Client
}

type httpClient struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

// NewClient builds the HTTP generator client. It returns ErrNotConfigured
// when no API key is present so the caller can surface a terminal
// configuration error instead of failing on first use.
func NewClient(cfg Config, logger zerolog.Logger) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 120 * time.Second}
	}

	return &httpClient{cfg: cfg, http: hc, logger: logger}, nil
}

// chat-completions wire types
type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

func (c *httpClient) GenerateCaseStudy(ctx context.Context, system, user string) (*Result, error) {
	resp, err := c.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	var sections Sections
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &sections); err != nil {
		return nil, &ParseError{Cause: err}
	}

	return &Result{
		Sections: sections,
		Model:    c.modelName(resp),
		Usage:    resp.Usage,
		Cost:     c.cost(resp.Usage),
	}, nil
}

func (c *httpClient) RegenerateSection(ctx context.Context, system, user, section string) (*SectionResult, error) {
	resp, err := c.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	// The regeneration prompt asks for {"<section>": "..."}.
	var body map[string]string
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &body); err != nil {
		return nil, &ParseError{Cause: err}
	}
	text, ok := body[section]
	if !ok || text == "" {
		return nil, &ParseError{Cause: fmt.Errorf("response missing section %q", section)}
	}

	return &SectionResult{
		Text:  text,
		Model: c.modelName(resp),
		Usage: resp.Usage,
		Cost:  c.cost(resp.Usage),
	}, nil
}

// complete performs the chat-completions call with limited retries on
// transient failures.
func (c *httpClient) complete(ctx context.Context, system, user string) (*chatResponse, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("genai: marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn().
				Int("attempt", attempt).
				Err(lastErr).
				Msg("retrying generator call")
			select {
			case <-time.After(c.cfg.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, &TransientError{Message: ctx.Err().Error()}
			}
		}

		resp, err := c.doOnce(ctx, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var te *TransientError
		if !errors.As(err, &te) {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *httpClient) doOnce(ctx context.Context, payload []byte) (*chatResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("genai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransientError{Message: err.Error()}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
	if err != nil {
		return nil, &TransientError{Message: "read response body: " + err.Error()}
	}

	switch {
	case httpResp.StatusCode == http.StatusUnauthorized,
		httpResp.StatusCode == http.StatusForbidden:
		// Bad credentials cannot be fixed by retrying.
		return nil, ErrNotConfigured
	case httpResp.StatusCode == http.StatusTooManyRequests,
		httpResp.StatusCode >= 500:
		return nil, &TransientError{Status: httpResp.StatusCode, Message: upstreamMessage(body)}
	case httpResp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("genai: unexpected status %d: %s", httpResp.StatusCode, upstreamMessage(body))
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{Cause: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &ParseError{Cause: errors.New("response has no choices")}
	}

	return &resp, nil
}

func (c *httpClient) modelName(resp *chatResponse) string {
	if resp.Model != "" {
		return resp.Model
	}
	return c.cfg.Model
}

// cost estimates the call cost in USD from token usage and the configured
// per-1K-token prices.
func (c *httpClient) cost(u Usage) float64 {
	return float64(u.PromptTokens)/1000*c.cfg.PromptPricePer1K +
		float64(u.CompletionTokens)/1000*c.cfg.CompletionPricePer1K
}

// upstreamMessage extracts the error message from an OpenAI-style error body,
// falling back to a truncated raw body.
func upstreamMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
