package recorder

import (
	"strings"

	"TradingCore/internal/model"
)

// TickerRecord is the outcome of analyzing one ticker in a run.
type TickerRecord struct {
	RunID    string
	Ticker   model.Ticker
	Outcome  model.Outcome
	Analyses int
	Summary  string
}

// DeliveryRecord is the outcome of emailing one subscriber in a run.
type DeliveryRecord struct {
	RunID   string
	Name    string
	Email   string
	Tickers []model.Ticker
	Items   int
	Outcome model.Outcome
}

func (d *DeliveryRecord) tickerList() string {
	parts := make([]string, len(d.Tickers))
	for i, t := range d.Tickers {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func errText(o model.Outcome) string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(stats *model.RunStats) error
	RecordTicker(rec *TickerRecord) error
	RecordDelivery(rec *DeliveryRecord) error
	Close() error
}
