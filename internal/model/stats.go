package model

import "time"

// RunStats is the tally of a single pipeline run.
type RunStats struct {
	RunID            string
	StartedAt        time.Time
	FinishedAt       time.Time
	UniqueTickers    int
	TickersWithNews  int
	TotalSubscribers int
	Succeeded        int
	Failed           int
	Skipped          int // not attempted because the run was cancelled
	NewsDelivered    int
}

// AverageNews is the mean number of news items per successful subscriber.
func (s RunStats) AverageNews() float64 {
	if s.Succeeded == 0 {
		return 0
	}
	return float64(s.NewsDelivered) / float64(s.Succeeded)
}
