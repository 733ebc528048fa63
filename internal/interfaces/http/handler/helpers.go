package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// parseDecimalPtr parses an optional decimal query value; empty means unset
func parseDecimalPtr(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseTimePtr parses an optional RFC 3339 query value
func parseTimePtr(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
