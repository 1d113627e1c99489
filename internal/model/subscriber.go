package model

import "strings"

// Ticker is a normalized (trimmed, upper-case) stock symbol.
type Ticker string

// NormalizeTicker trims and upper-cases a raw symbol.
func NormalizeTicker(raw string) Ticker {
	return Ticker(strings.ToUpper(strings.TrimSpace(raw)))
}

func (t Ticker) String() string { return string(t) }

// Subscriber is one recipient row as loaded from the subscriber source.
type Subscriber struct {
	Name       string
	Email      string
	RawTickers string
}

// HasValidEmail reports whether the address is usable for delivery.
// Only a syntactic check: non-empty and containing "@".
func (s Subscriber) HasValidEmail() bool {
	e := strings.TrimSpace(s.Email)
	return e != "" && strings.Contains(e, "@")
}
