package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

const systemPrompt = "You are a content strategy analyst for a technology blog. " +
	"Always respond with a single valid JSON object and nothing else."

// Analyzer is the AI-analysis collaborator contract. Implementations take a
// prompt and return the parsed JSON object produced by the model.
type Analyzer interface {
	AnalyzeJSON(ctx context.Context, prompt string) (map[string]interface{}, error)
}

// Ensure Client implements Analyzer
var _ Analyzer = (*Client)(nil)

// Client implements Analyzer using the official OpenAI Go SDK.
type Client struct {
	client  openai.Client // NewClient returns Client (not *Client)
	model   openai.ChatModel
	timeout time.Duration
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewClient creates an OpenAI-backed analysis client.
func NewClient(apiKey, model string, timeout time.Duration, reqPerMinute int) (*Client, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrNoModelConfigured, "openai API key is required")
	}
	if model == "" {
		return nil, errors.Wrap(errors.ErrNoModelConfigured, "openai model is required")
	}
	if timeout == 0 {
		timeout = 45 * time.Second
	}

	rps := float64(reqPerMinute) / 60.0
	burst := reqPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Client{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   openai.ChatModel(model),
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     logger.Get().With("component", "ai_client", "model", model),
	}, nil
}

// AnalyzeJSON sends a prompt and returns the model output parsed as JSON.
// Transport failures surface as ErrExternal, unparseable output as
// ErrMalformedResponse. Callers at the agent boundary are expected to
// degrade to an empty suggestion list on either.
func (c *Client) AnalyzeJSON(ctx context.Context, prompt string) (map[string]interface{}, error) {
	if prompt == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "prompt cannot be empty")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrRateLimitExceeded, err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "openai API call failed: %v", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.Wrap(errors.ErrMalformedResponse, "no completion choices returned")
	}

	raw := stripCodeFence(resp.Choices[0].Message.Content)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		c.log.Warnf("AI response is not valid JSON (%d bytes): %v", len(raw), err)
		return nil, errors.Wrapf(errors.ErrMalformedResponse, "parse AI response: %v", err)
	}

	c.log.Debug("AI analysis completed",
		"prompt_length", len(prompt),
		"tokens_used", resp.Usage.TotalTokens)

	return parsed, nil
}

// stripCodeFence removes a markdown ```json fence if the model wrapped its
// output despite the system prompt.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
