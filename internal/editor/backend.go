package editor

import (
	"context"
	"errors"

	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
)

var (
	// ErrConflict reports that the stored portfolio moved past the version the session holds.
	ErrConflict = errors.New("editor: version conflict")
	// ErrNotFound reports that the portfolio is missing or owned by someone else.
	ErrNotFound = errors.New("editor: portfolio not found")
	// ErrNotReady reports a gesture or persist attempted outside the ready state.
	ErrNotReady = errors.New("editor: session not ready")
)

// Snapshot is the persisted state a session starts from.
type Snapshot struct {
	Name     string
	Sections []sections.Section
	Version  int64
}

// Backend is the persistence boundary of a session. SaveSections replaces the
// whole collection and returns the new stored version; a stale expectedVersion
// must surface as ErrConflict.
type Backend interface {
	Fetch(ctx context.Context, portfolioID string) (Snapshot, bool, error)
	SaveSections(ctx context.Context, portfolioID string, collection []sections.Section, expectedVersion int64) (int64, error)
}

// LocalBackend drives the access layer in-process for one owner.
type LocalBackend struct {
	service *portfolios.Service
	ownerID portfolios.OwnerID
}

var _ Backend = (*LocalBackend)(nil)

func NewLocalBackend(service *portfolios.Service, ownerID portfolios.OwnerID) *LocalBackend {
	return &LocalBackend{service: service, ownerID: ownerID}
}

func (b *LocalBackend) Fetch(ctx context.Context, portfolioID string) (Snapshot, bool, error) {
	portfolio, found, err := b.service.Get(ctx, portfolioID, b.ownerID)
	if err != nil {
		if errors.Is(err, portfolios.ErrInvalidPortfolioID) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	if !found {
		return Snapshot{}, false, nil
	}
	return Snapshot{Name: portfolio.Name, Sections: portfolio.Sections, Version: portfolio.Version}, true, nil
}

func (b *LocalBackend) SaveSections(ctx context.Context, portfolioID string, collection []sections.Section, expectedVersion int64) (int64, error) {
	updated, found, err := b.service.Update(ctx, portfolioID, b.ownerID, portfolios.Patch{
		Sections: &collection,
		Version:  &expectedVersion,
	})
	if errors.Is(err, portfolios.ErrVersionConflict) {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNotFound
	}
	return updated.Version, nil
}
