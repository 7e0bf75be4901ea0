package property

import (
	"context"
)

// Store is the narrow persistence view for properties. Create assigns the
// next sequential identifier (starting at 1) and returns it; the counter
// is owned by the store and never exposed as mutable state.
type Store interface {
	Create(ctx context.Context, p *Property) (int64, error)
	Get(ctx context.Context, propertyID int64) (*Property, error)
	List(ctx context.Context, opts ListOpts) ([]*Property, error)
	Deactivate(ctx context.Context, propertyID int64) error
	Count(ctx context.Context) (int64, error)
}

// ListOpts filters property listings.
type ListOpts struct {
	Owner      string
	ActiveOnly bool
	Limit      int
	Offset     int
}
