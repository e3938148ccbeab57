// Package storage archives the best controller of every generation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotInitialized is returned when a store is used before Init.
var ErrNotInitialized = errors.New("storage: store is not initialized")

// Champion is the best car of one generation.
type Champion struct {
	RunID      string
	Generation int
	CarID      uint32
	Tarmac     float64
	AvgSpeed   float64
	Network    []byte // neural.Network binary encoding
	CreatedAt  time.Time
}

// Store persists champions.
type Store interface {
	Init(ctx context.Context) error
	SaveChampion(ctx context.Context, c Champion) error
	// LatestChampion returns the most recently saved champion of runID, or of
	// any run when runID is empty.
	LatestChampion(ctx context.Context, runID string) (Champion, bool, error)
	// Champions returns every champion of runID ordered by generation.
	Champions(ctx context.Context, runID string) ([]Champion, error)
}

// NewStore returns an uninitialized store for the named backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if sqlitePath == "" {
			return nil, errors.New("storage: sqlite backend needs a path")
		}
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("storage: unsupported backend %q", kind)
	}
}

// CloseIfSupported closes stores that hold resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
