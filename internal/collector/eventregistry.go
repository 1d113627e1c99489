package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"TradingCore/internal/model"
)

const (
	defaultEventRegistryURL = "https://eventregistry.org"
	eventRegistryPageMax    = 100
)

// EventRegistryFetcher implements NewsFetcher using the Event Registry article search API.
type EventRegistryFetcher struct {
	BaseURL  string
	APIKey   string
	Language string
	Client   *http.Client
}

// NewEventRegistryFetcher creates a new fetcher with optional proxy support.
func NewEventRegistryFetcher(baseURL, apiKey, language, proxyURL string) *EventRegistryFetcher {
	if baseURL == "" {
		baseURL = defaultEventRegistryURL
	}
	return &EventRegistryFetcher{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Language: language,
		Client:   newHTTPClient(proxyURL),
	}
}

func (f *EventRegistryFetcher) Name() string { return "eventregistry" }

type erCondition map[string]any

type erRequest struct {
	Query          map[string]any `json:"query"`
	ResultType     string         `json:"resultType"`
	ArticlesPage   int            `json:"articlesPage"`
	ArticlesCount  int            `json:"articlesCount"`
	ArticlesSortBy string         `json:"articlesSortBy"`
	APIKey         string         `json:"apiKey"`
}

type erResponse struct {
	Articles struct {
		Results []struct {
			Title    string `json:"title"`
			Body     string `json:"body"`
			URL      string `json:"url"`
			DateTime string `json:"dateTime"`
			Source   struct {
				Title string `json:"title"`
			} `json:"source"`
		} `json:"results"`
		TotalResults int `json:"totalResults"`
	} `json:"articles"`
	Error string `json:"error"`
}

// FetchNews queries articles whose body mentions the ticker between the window's dates.
func (f *EventRegistryFetcher) FetchNews(ctx context.Context, ticker model.Ticker, window model.Window, maxItems int) ([]model.NewsItem, error) {
	if maxItems <= 0 {
		return nil, nil
	}
	count := maxItems
	if count > eventRegistryPageMax {
		count = eventRegistryPageMax
	}

	conds := []erCondition{
		{"keyword": string(ticker), "keywordLoc": "body"},
		{"dateStart": window.StartDate(), "dateEnd": window.EndDate()},
	}
	if f.Language != "" {
		conds = append(conds, erCondition{"lang": f.Language})
	}
	payload := erRequest{
		Query:          map[string]any{"$query": map[string]any{"$and": conds}},
		ResultType:     "articles",
		ArticlesPage:   1,
		ArticlesCount:  count,
		ArticlesSortBy: "date",
		APIKey:         f.APIKey,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	endpoint, err := url.JoinPath(f.BaseURL, "/api/v1/article/getArticles")
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eventregistry fetch: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eventregistry read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eventregistry: status %d, body: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var result erResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("eventregistry decode: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("eventregistry api error: %s", result.Error)
	}

	items := make([]model.NewsItem, 0, len(result.Articles.Results))
	for _, a := range result.Articles.Results {
		published, _ := time.Parse(time.RFC3339, a.DateTime)
		items = append(items, model.NewsItem{
			Title:       a.Title,
			Body:        FlattenHTML(a.Body),
			URL:         a.URL,
			Source:      a.Source.Title,
			PublishedAt: published,
		})
		if len(items) >= maxItems {
			break
		}
	}
	return items, nil
}
