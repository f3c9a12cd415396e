package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"resume-optimizer/internal/common/errors"
	"resume-optimizer/internal/common/logging"
	"resume-optimizer/internal/common/utils"
)

// AIClient generates a completion for a prompt. Satisfied by Client and by
// test fakes.
type AIClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Client talks to a Gemini-compatible generateContent endpoint. Calls are
// throttled client-side, retried on transient failures and guarded by a
// circuit breaker so a struggling upstream does not pile up requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	logger     logging.Logger
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// apiError marks HTTP-level failures so the retry policy can distinguish
// transient upstream trouble from permanent rejections.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("ai service returned status %d: %s", e.status, e.body)
}

func (e *apiError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// NewClient creates an AI client for the given endpoint and model.
func NewClient(baseURL, apiKey, model string) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ai-optimizer",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		breaker:    breaker,
		// The upstream quota is per project, so throttle outbound calls
		// below it rather than burning it on bursts
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		logger:  logging.GetGlobalLogger(),
	}
}

// GenerateContent sends a prompt and returns the first candidate's text.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.UpstreamError("ai", err)
	}

	var text string
	retryConfig := utils.RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
		RetryableErrors: func(err error) bool {
			if apiErr, ok := err.(*apiError); ok {
				return apiErr.retryable()
			}
			return false
		},
	}

	err := utils.RetryWithBackoff(ctx, retryConfig, func() error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.generate(ctx, prompt)
		})
		if err != nil {
			return err
		}
		text = result.(string)
		return nil
	})
	if err != nil {
		c.logger.Error("AI request failed", err, logging.Field{Key: "model", Value: c.model})
		return "", errors.UpstreamError("ai", err)
	}

	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 2048,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &apiError{status: resp.StatusCode, body: string(respBody)}
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("ai response contained no candidates")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
