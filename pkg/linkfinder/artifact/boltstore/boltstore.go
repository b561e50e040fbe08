// Package boltstore keeps training artifacts in a bbolt database. Both blobs
// are written in one transaction, so readers never see a half-replaced pair.
package boltstore

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cognicore/linkfinder/pkg/linkfinder/artifact"
)

var (
	bucketArtifacts = []byte("artifacts")
	keyModel        = []byte("model")
	keyLabels       = []byte("labels")
)

// Store implements artifact.Store backed by bbolt.
type Store struct {
	db *bolt.DB
}

var _ artifact.Store = (*Store)(nil)

// Open opens (or creates) a bbolt database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put replaces both blobs atomically.
func (s *Store) Put(ctx context.Context, model, labels []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketArtifacts)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put(keyModel, model); err != nil {
			return fmt.Errorf("put model: %w", err)
		}
		if err := b.Put(keyLabels, labels); err != nil {
			return fmt.Errorf("put labels: %w", err)
		}
		return nil
	})
}

// Get returns copies of both blobs, or artifact.ErrNotFound if nothing has
// been stored yet.
func (s *Store) Get(ctx context.Context) ([]byte, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	var model, labels []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketArtifacts)
		if b == nil {
			return fmt.Errorf("%w: no artifacts bucket", artifact.ErrNotFound)
		}
		m, l := b.Get(keyModel), b.Get(keyLabels)
		if m == nil || l == nil {
			return fmt.Errorf("%w: incomplete artifact pair", artifact.ErrNotFound)
		}
		// bbolt values are only valid inside the transaction
		model = append([]byte(nil), m...)
		labels = append([]byte(nil), l...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return model, labels, nil
}
