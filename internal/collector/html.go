package collector

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TradingCore/internal/model"
)

// FlattenHTML returns the visible text of an HTML fragment. Plain text is
// returned with whitespace collapsed.
func FlattenHTML(s string) string {
	if strings.Contains(s, "<") && strings.Contains(s, ">") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			doc.Find("script, style").Remove()
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func withSuffix(ticker model.Ticker, suffix string) string {
	s := string(ticker)
	if suffix == "" || strings.HasSuffix(s, suffix) {
		return s
	}
	return s + suffix
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
