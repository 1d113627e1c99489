package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"TradingCore/internal/model"
)

// ErrNothingToCompact is returned when a compaction call has no input text.
var ErrNothingToCompact = errors.New("nothing to compact")

// ScorerOptions selects models and sampling for each call type.
type ScorerOptions struct {
	Model              string
	Temperature        float64
	ContextModel       string
	ContextTemperature float64
	MaxTokens          int
}

// Scorer implements the fixed instruction formats on top of a Provider.
type Scorer struct {
	provider Provider
	opts     ScorerOptions
}

func NewScorer(p Provider, opts ScorerOptions) *Scorer {
	if opts.ContextModel == "" {
		opts.ContextModel = opts.Model
	}
	return &Scorer{provider: p, opts: opts}
}

func (s *Scorer) complete(ctx context.Context, prompt string) (string, error) {
	return s.provider.Complete(ctx, Request{
		Model:       s.opts.Model,
		Prompt:      prompt,
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	})
}

// Classify scores one news item against a ticker.
func (s *Scorer) Classify(ctx context.Context, ticker model.Ticker, item model.NewsItem, strategic string) (model.Analysis, error) {
	if strings.TrimSpace(item.Body) == "" {
		return model.Analysis{}, fmt.Errorf("classify %s: empty body", ticker)
	}
	raw, err := s.complete(ctx, classifyPrompt(ticker, item.Body, strategic))
	if err != nil {
		return model.Analysis{}, fmt.Errorf("classify %s: %w", ticker, err)
	}
	p, err := DecodeAnalysis(raw)
	if err != nil {
		return model.Analysis{}, fmt.Errorf("classify %s: %w", ticker, err)
	}
	title := item.Title
	if title == "" {
		title = "Sem título"
	}
	return model.Analysis{
		Ticker:         ticker,
		Title:          title,
		URL:            item.URL,
		Relevant:       *p.Relevant,
		RelevanceScore: p.RelevanceScore,
		Sentiment:      *p.Sentiment,
		Summary:        p.Summary,
	}, nil
}

// Compact turns a list of summaries into a short executive summary.
func (s *Scorer) Compact(ctx context.Context, ticker model.Ticker, summaries []string, strategic string) (string, error) {
	bullets := bulletList(summaries)
	if bullets == "" {
		return "", ErrNothingToCompact
	}
	out, err := s.complete(ctx, compactPrompt(ticker, bullets, strategic))
	if err != nil {
		return "", fmt.Errorf("compact %s: %w", ticker, err)
	}
	if out = strings.TrimSpace(out); out == "" {
		return "", fmt.Errorf("compact %s: empty response", ticker)
	}
	return out, nil
}

// Consolidate produces the positive/negative narrative pair for a ticker.
func (s *Scorer) Consolidate(ctx context.Context, ticker model.Ticker, analyses []model.Analysis, strategic string) (*model.Consolidated, error) {
	lines := make([]string, 0, len(analyses))
	for _, a := range analyses {
		if a.Summary == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("(sentimento %+.1f) %s", roundTenth(a.Sentiment), a.Summary))
	}
	bullets := bulletList(lines)
	if bullets == "" {
		return nil, ErrNothingToCompact
	}
	raw, err := s.complete(ctx, consolidatePrompt(ticker, bullets, strategic))
	if err != nil {
		return nil, fmt.Errorf("consolidate %s: %w", ticker, err)
	}
	c, err := DecodeConsolidated(raw)
	if err != nil {
		return nil, fmt.Errorf("consolidate %s: %w", ticker, err)
	}
	return &c, nil
}

// GenerateContext asks the stronger model for a strategic briefing on a ticker.
func (s *Scorer) GenerateContext(ctx context.Context, ticker model.Ticker) (string, error) {
	out, err := s.provider.Complete(ctx, Request{
		Model:       s.opts.ContextModel,
		Prompt:      contextPrompt(ticker),
		Temperature: s.opts.ContextTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate context %s: %w", ticker, err)
	}
	if out = strings.TrimSpace(out); out == "" {
		return "", fmt.Errorf("generate context %s: empty response", ticker)
	}
	return out, nil
}

func roundTenth(v float64) float64 { return math.Round(v*10) / 10 }
