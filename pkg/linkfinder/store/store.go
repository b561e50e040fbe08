package store

import (
	"context"

	"github.com/cognicore/linkfinder/pkg/linkfinder/dataset"
)

// Store persists the raw (keyword, url) dataset. Stores keep duplicates and
// insertion order; deduplication is the index's job.
type Store interface {
	Close() error

	// AddRecords appends records and returns how many were written.
	AddRecords(ctx context.Context, records []dataset.Record) (int, error)

	// Records returns every stored record in insertion order.
	Records(ctx context.Context) ([]dataset.Record, error)

	// RecordsByKeyword returns records whose keyword equals keyword exactly.
	RecordsByKeyword(ctx context.Context, keyword string) ([]dataset.Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
