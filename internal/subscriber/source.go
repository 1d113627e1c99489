// Package subscriber loads the subscriber list from a spreadsheet or a CSV file.
package subscriber

import (
	"context"
	"strings"

	"TradingCore/internal/model"
)

// Default column headings of the sign-up form.
const (
	DefaultNameColumn    = "Qual seu nome completo?"
	DefaultEmailColumn   = "Qual seu e-mail?"
	DefaultTickersColumn = "Ticker 1"

	unknownName = "N/A"
)

// Source yields the subscribers of one run.
type Source interface {
	Load(ctx context.Context) ([]model.Subscriber, error)
}

// Columns names the header cells holding each subscriber field.
type Columns struct {
	Name    string
	Email   string
	Tickers string
}

func (c Columns) withDefaults() Columns {
	if c.Name == "" {
		c.Name = DefaultNameColumn
	}
	if c.Email == "" {
		c.Email = DefaultEmailColumn
	}
	if c.Tickers == "" {
		c.Tickers = DefaultTickersColumn
	}
	return c
}

// fromRows maps a header row plus data rows onto subscribers. Missing columns
// yield empty fields; rows with no content at all are skipped.
func fromRows(rows [][]string, cols Columns) []model.Subscriber {
	if len(rows) == 0 {
		return []model.Subscriber{}
	}
	cols = cols.withDefaults()

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	subs := make([]model.Subscriber, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		s := model.Subscriber{
			Name:       cell(row, cols.Name),
			Email:      cell(row, cols.Email),
			RawTickers: cell(row, cols.Tickers),
		}
		if s.Name == "" {
			s.Name = unknownName
		}
		subs = append(subs, s)
	}
	return subs
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
