// Package distributor delivers cached ticker analyses to one subscriber.
package distributor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"TradingCore/internal/cache"
	"TradingCore/internal/model"
	"TradingCore/internal/notifier"
	"TradingCore/internal/ticker"
)

// Stages of a delivery.
const (
	StageValidate = "VALIDATE"
	StageRender   = "RENDER"
	StageSend     = "SEND"
	StageSent     = "SENT"
)

var ErrInvalidEmail = errors.New("invalid email address")

// Renderer is the subset of notifier.Renderer the distributor calls.
type Renderer interface {
	Render(d notifier.Digest) (subject, html string, err error)
}

// Delivery is the result of distributing to one subscriber.
type Delivery struct {
	Subscriber model.Subscriber
	Tickers    []model.Ticker
	Items      int
	Outcome    model.Outcome
}

// Distributor only reads from a sealed cache; it never reaches news, scoring
// or price services.
type Distributor struct {
	Renderer    Renderer
	Sender      notifier.Sender
	SendTimeout time.Duration
}

func New(r Renderer, s notifier.Sender, sendTimeout time.Duration) *Distributor {
	return &Distributor{Renderer: r, Sender: s, SendTimeout: sendTimeout}
}

// Digest assembles the email content for tickers in the given order.
func Digest(sub model.Subscriber, tickers []model.Ticker, c *cache.Sealed) notifier.Digest {
	d := notifier.Digest{Name: sub.Name}
	for _, t := range tickers {
		e := c.Lookup(t)
		sec := notifier.Section{
			Ticker:       t,
			Analyses:     e.Analyses,
			Summary:      e.ExecutiveSummary,
			Consolidated: e.Consolidated,
		}
		if q, ok := c.Quote(t); ok {
			sec.Quote = &q
		}
		d.Sections = append(d.Sections, sec)
	}
	return d
}

// Deliver sends one email to sub. No retries are attempted.
func (d *Distributor) Deliver(ctx context.Context, sub model.Subscriber, c *cache.Sealed) Delivery {
	res := Delivery{Subscriber: sub}
	if !sub.HasValidEmail() {
		log.Warn().Str("name", sub.Name).Str("email", sub.Email).Msg("invalid email, skipping subscriber")
		res.Outcome = model.Failed(StageValidate, fmt.Errorf("%w: %q", ErrInvalidEmail, sub.Email))
		return res
	}

	res.Tickers = ticker.Parse(sub.RawTickers)
	digest := Digest(sub, res.Tickers, c)
	if len(res.Tickers) == 0 {
		log.Warn().Str("email", sub.Email).Msg("subscriber has no tickers, sending notice")
	}

	subject, body, err := d.Renderer.Render(digest)
	if err != nil {
		log.Error().Str("email", sub.Email).Err(err).Msg("render failed")
		res.Outcome = model.Failed(StageRender, err)
		return res
	}

	sctx, cancel := ctx, context.CancelFunc(func() {})
	if d.SendTimeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, d.SendTimeout)
	}
	defer cancel()
	if err := d.Sender.Send(sctx, sub.Email, subject, body); err != nil {
		log.Error().Str("email", sub.Email).Err(err).Msg("email send failed")
		res.Outcome = model.Failed(StageSend, err)
		return res
	}

	res.Items = digest.NewsCount()
	res.Outcome = model.OK(StageSent)
	log.Info().Str("email", sub.Email).Int("news", res.Items).Msg("email sent")
	return res
}
