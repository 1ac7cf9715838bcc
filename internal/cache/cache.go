// Package cache keeps read-only copies of published portfolios keyed by slug.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
)

// DefaultTTL bounds how long a published page may be served stale.
const DefaultTTL = 5 * time.Minute

const publishedKeyPrefix = "portfolio:published:"

func publishedKey(slug string) string {
	return publishedKeyPrefix + slug
}

// Noop never stores anything.
type Noop struct{}

var _ portfolios.PublishedCache = Noop{}

func (Noop) Get(context.Context, string) (portfolios.Portfolio, bool, error) {
	return portfolios.Portfolio{}, false, nil
}

func (Noop) Set(context.Context, portfolios.Portfolio) error { return nil }

func (Noop) Invalidate(context.Context, string) error { return nil }

func encode(portfolio portfolios.Portfolio) ([]byte, error) {
	return json.Marshal(portfolio)
}

func decode(raw []byte) (portfolios.Portfolio, error) {
	var portfolio portfolios.Portfolio
	if err := json.Unmarshal(raw, &portfolio); err != nil {
		return portfolios.Portfolio{}, err
	}
	return portfolio, nil
}
