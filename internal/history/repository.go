package history

import "context"

// ListOptions contains options for listing run records.
type ListOptions struct {
	Limit int
}

// Repository defines the interface for run record persistence.
type Repository interface {
	// Insert stores a new run record.
	Insert(ctx context.Context, record *Record) error

	// Get retrieves a run record by ID.
	// Returns ErrRecordNotFound if the record doesn't exist.
	Get(ctx context.Context, id string) (*Record, error)

	// Recent retrieves run records ordered by finish time, newest first.
	Recent(ctx context.Context, opts ListOptions) ([]*Record, error)
}
