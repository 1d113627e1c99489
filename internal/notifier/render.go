package notifier

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"TradingCore/internal/model"
)

//go:embed templates/digest.html
var templateFS embed.FS

// Digest is everything one subscriber's email shows, grouped by ticker in the
// subscriber's own order.
type Digest struct {
	Name     string
	Sections []Section
}

// Section is one subscribed ticker.
type Section struct {
	Ticker       model.Ticker
	Analyses     []model.Analysis
	Summary      string
	Consolidated *model.Consolidated
	Quote        *model.Quote
}

// NewsCount is the number of analyses the digest delivers.
func (d Digest) NewsCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Analyses)
	}
	return n
}

// Renderer turns digests into subject lines and HTML bodies.
type Renderer struct {
	Brand    string
	Lookback time.Duration
	Location *time.Location
	Now      func() time.Time

	tmpl *template.Template
	md   goldmark.Markdown
}

func NewRenderer(brand string, lookback time.Duration, loc *time.Location) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/digest.html")
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	if brand == "" {
		brand = "TradingCore"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{
		Brand:    brand,
		Lookback: lookback,
		Location: loc,
		Now:      time.Now,
		tmpl:     tmpl,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}, nil
}

type summaryView struct {
	Ticker      model.Ticker
	Text        template.HTML
	HasQuote    bool
	Quote       model.Quote
	ChangeClass string
	ChangeText  string
}

type itemView struct {
	Title   string
	URL     string
	Summary string
	Label   string
	Emoji   string
	Color   string
	Score   string
}

type consolidatedView struct {
	Positive template.HTML
	Negative template.HTML
}

type sectionView struct {
	Ticker       model.Ticker
	Price        *summaryView
	Items        []itemView
	Consolidated *consolidatedView
}

type digestView struct {
	Brand         string
	Name          string
	LookbackHours int
	Summaries     []summaryView
	Sections      []sectionView
	Timestamp     string
}

// Subject returns the email subject for d.
func (r *Renderer) Subject(d Digest) string {
	if len(d.Sections) == 0 {
		return r.Brand + " - Análise Diária"
	}
	return fmt.Sprintf("%s - Análise Diária (%d notícias)", r.Brand, d.NewsCount())
}

// Render returns the subject and HTML body. Summaries appear only for tickers
// that have one and prices only for tickers with a successful quote.
func (r *Renderer) Render(d Digest) (string, string, error) {
	view := digestView{
		Brand:         r.Brand,
		Name:          d.Name,
		LookbackHours: int(r.Lookback.Hours()),
		Timestamp:     r.Now().In(r.Location).Format("02/01/2006 15:04"),
	}
	if view.Name == "" {
		view.Name = "Investidor"
	}

	for _, s := range d.Sections {
		sv := summaryView{Ticker: s.Ticker}
		if s.Quote != nil && s.Quote.OK {
			sv.HasQuote = true
			sv.Quote = *s.Quote
			sv.ChangeClass, sv.ChangeText = changeStyle(s.Quote.PercentChange)
		}
		if s.Summary != "" {
			sv.Text = r.markdown(s.Summary)
			view.Summaries = append(view.Summaries, sv)
		}

		if len(s.Analyses) == 0 && s.Consolidated.Empty() {
			continue
		}
		sec := sectionView{Ticker: s.Ticker}
		if sv.HasQuote {
			sec.Price = &sv
		}
		for _, a := range s.Analyses {
			sec.Items = append(sec.Items, newItemView(a))
		}
		if !s.Consolidated.Empty() {
			sec.Consolidated = &consolidatedView{
				Positive: r.markdown(s.Consolidated.Positive),
				Negative: r.markdown(s.Consolidated.Negative),
			}
		}
		view.Sections = append(view.Sections, sec)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return "", "", fmt.Errorf("render email: %w", err)
	}
	return r.Subject(d), buf.String(), nil
}

// markdown converts LLM output to HTML. Raw HTML in the input is not rendered.
func (r *Renderer) markdown(s string) template.HTML {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}

func newItemView(a model.Analysis) itemView {
	v := itemView{Title: a.Title, URL: a.URL, Summary: a.Summary, Label: model.SentimentLabel(a.Sentiment)}
	switch v.Label {
	case "Positivo":
		v.Emoji, v.Color = "🟢", "#28a745"
	case "Negativo":
		v.Emoji, v.Color = "🔴", "#dc3545"
	default:
		v.Emoji, v.Color = "🟡", "#ffc107"
	}
	if a.RelevanceScore != nil {
		v.Score = fmt.Sprintf("%.1f/10", *a.RelevanceScore)
	}
	return v
}

func changeStyle(pct float64) (class, text string) {
	switch {
	case pct > 0:
		return "variacao-positiva", fmt.Sprintf("+%.2f%%", pct)
	case pct < 0:
		return "variacao-negativa", fmt.Sprintf("%.2f%%", pct)
	default:
		return "variacao-neutra", fmt.Sprintf("%.2f%%", pct)
	}
}
