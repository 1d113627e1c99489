package model

import "time"

// SummaryUnavailable replaces an executive summary whose compaction call failed.
const SummaryUnavailable = "Resumo não disponível."

// NewsItem is a raw article returned by the news service.
type NewsItem struct {
	Title       string
	Body        string
	URL         string
	Source      string
	PublishedAt time.Time
}

// Analysis is the scoring result for one (ticker, news item) pair.
type Analysis struct {
	Ticker         Ticker
	Title          string
	URL            string
	Relevant       bool
	RelevanceScore *float64 // 0..10, nil when the scorer did not provide one
	Sentiment      float64  // -1..1
	Summary        string
}

// Consolidated is the optional positive/negative narrative pair for a ticker.
type Consolidated struct {
	Positive string `json:"positive"`
	Negative string `json:"negative"`
}

// Empty reports whether neither side carries text.
func (c *Consolidated) Empty() bool {
	return c == nil || (c.Positive == "" && c.Negative == "")
}

// TickerCacheEntry is everything Phase 1 learned about one ticker.
type TickerCacheEntry struct {
	Ticker           Ticker
	Analyses         []Analysis
	ExecutiveSummary string
	StrategicContext string
	Consolidated     *Consolidated
}

// SentimentLabel buckets a sentiment value the way the email shows it.
func SentimentLabel(v float64) string {
	switch {
	case v > 0.3:
		return "Positivo"
	case v < -0.3:
		return "Negativo"
	default:
		return "Neutro"
	}
}
