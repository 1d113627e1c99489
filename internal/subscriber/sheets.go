package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/phuslu/log"
	"golang.org/x/oauth2/google"

	"TradingCore/internal/model"
)

const (
	sheetsScope      = "https://www.googleapis.com/auth/spreadsheets.readonly"
	defaultSheetsURL = "https://sheets.googleapis.com"
)

// SheetsSource reads subscribers from the first worksheet of a Google
// spreadsheet through the Sheets values API.
type SheetsSource struct {
	BaseURL string
	SheetID string
	Range   string
	Columns Columns
	Client  *http.Client
}

// NewSheetsSource authenticates with the service-account key at credsFile.
// When the file does not exist, Application Default Credentials are used.
func NewSheetsSource(ctx context.Context, sheetID, rng, credsFile string, cols Columns) (*SheetsSource, error) {
	var client *http.Client
	data, err := os.ReadFile(credsFile)
	switch {
	case err == nil:
		conf, err := google.JWTConfigFromJSON(data, sheetsScope)
		if err != nil {
			return nil, fmt.Errorf("parse service account %s: %w", credsFile, err)
		}
		client = conf.Client(ctx)
	case os.IsNotExist(err):
		log.Warn().Str("path", credsFile).Msg("credentials file not found, using default credentials")
		client, err = google.DefaultClient(ctx, sheetsScope)
		if err != nil {
			return nil, fmt.Errorf("default google credentials: %w", err)
		}
	default:
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return &SheetsSource{
		BaseURL: defaultSheetsURL,
		SheetID: sheetID,
		Range:   rng,
		Columns: cols,
		Client:  client,
	}, nil
}

type valueRange struct {
	Values [][]string `json:"values"`
}

func (s *SheetsSource) Load(ctx context.Context) ([]model.Subscriber, error) {
	rng := s.Range
	if rng == "" {
		rng = "A:Z"
	}
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		s.BaseURL, url.PathEscape(s.SheetID), url.PathEscape(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sheets read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets: status %d, body: %s", resp.StatusCode, string(body))
	}

	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("sheets decode: %w", err)
	}
	subs := fromRows(vr.Values, s.Columns)
	log.Info().Str("sheet", s.SheetID).Int("subscribers", len(subs)).Msg("subscribers loaded from google sheets")
	return subs, nil
}
