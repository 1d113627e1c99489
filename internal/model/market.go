package model

import "time"

// Bar is a single daily close used to derive a quote.
type Bar struct {
	Time  time.Time
	Close float64
}

// Quote is the latest close and day-over-day variation for a ticker.
// OK is false when the price service had nothing usable.
type Quote struct {
	Ticker        Ticker
	ClosePrice    float64
	PercentChange float64
	OK            bool
}
