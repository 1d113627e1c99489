package subscriber

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/phuslu/log"

	"TradingCore/internal/model"
)

// CSVSource reads subscribers from a local CSV export of the sign-up sheet.
type CSVSource struct {
	Path    string
	Columns Columns
}

func NewCSVSource(path string, cols Columns) *CSVSource {
	return &CSVSource{Path: path, Columns: cols}
}

func (s *CSVSource) Load(_ context.Context) ([]model.Subscriber, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open subscribers csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read subscribers csv: %w", err)
	}
	subs := fromRows(rows, s.Columns)
	log.Info().Str("path", s.Path).Int("subscribers", len(subs)).Msg("subscribers loaded from csv")
	return subs, nil
}
