package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache. Entries are stored encoded so readers never
// share section payloads with each other.
type Memory struct {
	store *gocache.Cache
	ttl   time.Duration
}

var _ portfolios.PublishedCache = (*Memory)(nil)

// NewMemory constructs an in-process cache expiring entries after ttl.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{store: gocache.New(ttl, 2*ttl), ttl: ttl}
}

func (m *Memory) Get(_ context.Context, slug string) (portfolios.Portfolio, bool, error) {
	value, found := m.store.Get(publishedKey(slug))
	if !found {
		return portfolios.Portfolio{}, false, nil
	}
	raw, ok := value.([]byte)
	if !ok {
		m.store.Delete(publishedKey(slug))
		return portfolios.Portfolio{}, false, fmt.Errorf("cache: unexpected entry type %T", value)
	}
	portfolio, err := decode(raw)
	if err != nil {
		return portfolios.Portfolio{}, false, err
	}
	return portfolio, true, nil
}

func (m *Memory) Set(_ context.Context, portfolio portfolios.Portfolio) error {
	raw, err := encode(portfolio)
	if err != nil {
		return err
	}
	m.store.Set(publishedKey(portfolio.Slug), raw, m.ttl)
	return nil
}

func (m *Memory) Invalidate(_ context.Context, slug string) error {
	m.store.Delete(publishedKey(slug))
	return nil
}
