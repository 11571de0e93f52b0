package history

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository. It backs
// single-process deployments and tests; production should use
// PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemoryRepository creates a new in-memory run record repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]*Record),
	}
}

// Insert stores a new run record.
func (r *InMemoryRepository) Insert(_ context.Context, record *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *record
	r.records[record.ID] = &cpy
	return nil
}

// Get retrieves a run record by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	// Return a copy
	cpy := *record
	return &cpy, nil
}

// Recent retrieves run records ordered by finish time, newest first.
func (r *InMemoryRepository) Recent(_ context.Context, opts ListOptions) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*Record, 0, len(r.records))
	for _, record := range r.records {
		cpy := *record
		records = append(records, &cpy)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].FinishedAt.After(records[j].FinishedAt)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
