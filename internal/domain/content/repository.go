package content

import (
	"context"
)

// Filter narrows item listings.
type Filter struct {
	Status   string
	Category string
	Limit    int
}

// Repository defines read access to the content store.
type Repository interface {
	// List retrieves items matching the filter, newest first
	List(ctx context.Context, filter Filter) ([]*Item, error)

	// GetByID retrieves a single item
	GetByID(ctx context.Context, id int64) (*Item, error)
}
