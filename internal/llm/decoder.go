package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"TradingCore/internal/model"
)

// Scoring responses follow this grammar:
//
//	response := ws [fence-open] ws object ws [fence-close] ws
//	fence-open := "```" [lang]
//	fence-close := "```"
//
// The object must satisfy the schema of the target payload. Anything else is
// rejected; callers treat a decode error as a per-item failure.

// ErrNotJSONObject is returned when the unwrapped payload is not a single JSON object.
var ErrNotJSONObject = errors.New("response is not a JSON object")

var validate = validator.New()

// AnalysisPayload is the decoded classification of one news item.
type AnalysisPayload struct {
	Relevant       *bool    `validate:"required"`
	Summary        string   `validate:"required"`
	Sentiment      *float64 `validate:"required,gte=-1,lte=1"`
	RelevanceScore *float64 `validate:"omitempty,gte=0,lte=10"`
}

// analysisWire accepts both the Portuguese keys of the prompt and English aliases.
type analysisWire struct {
	Relevante      *bool    `json:"relevante"`
	Relevant       *bool    `json:"relevant"`
	Resumo         string   `json:"resumo"`
	Summary        string   `json:"summary"`
	Sentimento     *float64 `json:"sentimento"`
	Sentiment      *float64 `json:"sentiment"`
	Relevancia     *float64 `json:"relevancia"`
	RelevanceScore *float64 `json:"relevance_score"`
}

type consolidatedWire struct {
	Positivo *string `json:"positivo"`
	Positive *string `json:"positive"`
	Negativo *string `json:"negativo"`
	Negative *string `json:"negative"`
}

// StripFences removes an optional markdown code fence, with an optional
// language tag, wrapped around a payload.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
	})
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func decodeObject(raw string, dst any) error {
	payload := StripFences(raw)
	if !strings.HasPrefix(payload, "{") {
		return ErrNotJSONObject
	}
	dec := json.NewDecoder(strings.NewReader(payload))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: trailing data after object")
	}
	return nil
}

// DecodeAnalysis parses a classification response.
func DecodeAnalysis(raw string) (AnalysisPayload, error) {
	var w analysisWire
	if err := decodeObject(raw, &w); err != nil {
		return AnalysisPayload{}, err
	}
	p := AnalysisPayload{
		Relevant:       firstBool(w.Relevante, w.Relevant),
		Summary:        strings.TrimSpace(firstString(w.Resumo, w.Summary)),
		Sentiment:      firstFloat(w.Sentimento, w.Sentiment),
		RelevanceScore: firstFloat(w.Relevancia, w.RelevanceScore),
	}
	if err := validate.Struct(p); err != nil {
		return AnalysisPayload{}, fmt.Errorf("invalid analysis response: %w", err)
	}
	return p, nil
}

// DecodeConsolidated parses a positive/negative narrative response. At least
// one side must be present.
func DecodeConsolidated(raw string) (model.Consolidated, error) {
	var w consolidatedWire
	if err := decodeObject(raw, &w); err != nil {
		return model.Consolidated{}, err
	}
	pos := firstStringPtr(w.Positivo, w.Positive)
	neg := firstStringPtr(w.Negativo, w.Negative)
	if pos == nil && neg == nil {
		return model.Consolidated{}, fmt.Errorf("invalid consolidated response: no positive or negative field")
	}
	var c model.Consolidated
	if pos != nil {
		c.Positive = strings.TrimSpace(*pos)
	}
	if neg != nil {
		c.Negative = strings.TrimSpace(*neg)
	}
	return c, nil
}

func firstBool(vs ...*bool) *bool {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstFloat(vs ...*float64) *float64 {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstString(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstStringPtr(vs ...*string) *string {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}
