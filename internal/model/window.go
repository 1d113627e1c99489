package model

import "time"

const dateLayout = "2006-01-02"

// Window is the news lookback period of a run.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns [now-lookback, now] expressed in loc.
func NewWindow(now time.Time, lookback time.Duration, loc *time.Location) Window {
	if loc != nil {
		now = now.In(loc)
	}
	return Window{Start: now.Add(-lookback), End: now}
}

func (w Window) StartDate() string { return w.Start.Format(dateLayout) }
func (w Window) EndDate() string   { return w.End.Format(dateLayout) }
