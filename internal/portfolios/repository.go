package portfolios

import "context"

// Filter selects a single portfolio. Empty fields do not constrain the match.
type Filter struct {
	ID      string
	OwnerID string
	Slug    string
	Status  Status
}

// Repository is the document store boundary consumed by Service.
type Repository interface {
	// ValidID reports whether id is addressable by the store.
	ValidID(id string) bool
	// Insert stores a new portfolio and returns it with the store-assigned id.
	Insert(ctx context.Context, portfolio Portfolio) (Portfolio, error)
	// FindOne returns the first match for filter.
	FindOne(ctx context.Context, filter Filter) (Portfolio, bool, error)
	// FindByOwner returns every portfolio of ownerID, most recently updated first.
	FindByOwner(ctx context.Context, ownerID string) ([]Portfolio, error)
	// Replace overwrites the stored document when id, owner and expectedVersion all match.
	Replace(ctx context.Context, portfolio Portfolio, expectedVersion int64) (bool, error)
	// Delete removes the document when id and owner match.
	Delete(ctx context.Context, id string, ownerID string) (bool, error)
}
