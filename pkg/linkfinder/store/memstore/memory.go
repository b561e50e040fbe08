package memstore

import (
	"context"
	"sync"

	"github.com/cognicore/linkfinder/pkg/linkfinder/dataset"
	"github.com/cognicore/linkfinder/pkg/linkfinder/store"
)

// Store is an in-memory implementation of store.Store. It backs file
// datasets and tests.
type Store struct {
	mu      sync.RWMutex
	records []dataset.Record
}

var _ store.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// AddRecords appends records as given.
func (s *Store) AddRecords(ctx context.Context, records []dataset.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, records...)
	return len(records), nil
}

// Records returns a copy of every record.
func (s *Store) Records(ctx context.Context) ([]dataset.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dataset.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// RecordsByKeyword returns the records stored under keyword.
func (s *Store) RecordsByKeyword(ctx context.Context, keyword string) ([]dataset.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []dataset.Record
	for _, r := range s.records {
		if r.Keyword == keyword {
			out = append(out, r)
		}
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
