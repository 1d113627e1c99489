// Package llm is the client side of the scoring service: providers for the
// supported model vendors, the fixed instruction formats, and the decoder for
// JSON-in-text responses.
package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Request is a single-turn completion request.
type Request struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Provider sends one prompt to a model vendor and returns the raw text answer.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// NewProvider builds the provider named in configuration.
func NewProvider(ctx context.Context, name, apiKey string) (Provider, error) {
	switch name {
	case "openai", "":
		return NewOpenAIProvider(apiKey), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey), nil
	case "gemini":
		return NewGeminiProvider(ctx, apiKey)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", name)
	}
}

// RateLimited throttles calls to an underlying provider.
type RateLimited struct {
	Provider
	limiter *rate.Limiter
}

// WithRateLimit wraps p so that at most rps requests per second are issued.
// A non-positive rps returns p unchanged.
func WithRateLimit(p Provider, rps float64) Provider {
	if rps <= 0 {
		return p
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{Provider: p, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Complete(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return r.Provider.Complete(ctx, req)
}
