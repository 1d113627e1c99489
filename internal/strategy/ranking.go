// Package strategy ranks scored news items for a ticker.
package strategy

import (
	"fmt"
	"math"
	"sort"

	"TradingCore/internal/model"
)

// Ranking names a selectable ordering of relevant analyses.
type Ranking string

const (
	// ByScore orders by relevance score, ties broken by sentiment magnitude.
	ByScore Ranking = "score"
	// BySentiment orders by sentiment magnitude only.
	BySentiment Ranking = "sentiment"
)

// Parse maps a configured name to a Ranking. Empty selects ByScore.
func Parse(name string) (Ranking, error) {
	switch Ranking(name) {
	case "", ByScore:
		return ByScore, nil
	case BySentiment:
		return BySentiment, nil
	}
	return "", fmt.Errorf("unknown ranking %q", name)
}

// less reports whether a ranks strictly ahead of b.
func (r Ranking) less(a, b model.Analysis) bool {
	if r == ByScore {
		sa, sb := score(a), score(b)
		if sa != sb {
			return sa > sb
		}
	}
	return math.Abs(a.Sentiment) > math.Abs(b.Sentiment)
}

// absent scores sort below any real score
func score(a model.Analysis) float64 {
	if a.RelevanceScore == nil {
		return math.Inf(-1)
	}
	return *a.RelevanceScore
}

// Selection controls which analyses survive for a ticker.
type Selection struct {
	Ranking      Ranking
	TopN         int
	MinRelevance float64 // 0 disables the threshold
}

// Select keeps relevant analyses, drops those scored below MinRelevance,
// orders them with the ranking and returns at most TopN. The input slice is
// not modified and equal inputs always produce equal outputs.
func (s Selection) Select(analyses []model.Analysis) []model.Analysis {
	kept := make([]model.Analysis, 0, len(analyses))
	for _, a := range analyses {
		if !a.Relevant {
			continue
		}
		if s.MinRelevance > 0 && a.RelevanceScore != nil && *a.RelevanceScore < s.MinRelevance {
			continue
		}
		kept = append(kept, a)
	}

	r := s.Ranking
	if r == "" {
		r = ByScore
	}
	sort.SliceStable(kept, func(i, j int) bool { return r.less(kept[i], kept[j]) })

	if s.TopN > 0 && len(kept) > s.TopN {
		kept = kept[:s.TopN]
	}
	return kept
}
