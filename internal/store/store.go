// Package store persists scrapbook entries. Three backends share one
// interface: a JSON document on disk, SQLite, and a read-only view over
// the keys in the media bucket.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lazypower/scrapbook/internal/memory"
	"github.com/lazypower/scrapbook/internal/storage"
)

var (
	ErrNotFound = errors.New("memory not found")
	ErrExists   = errors.New("memory already exists")
	ErrReadOnly = errors.New("store is read-only")
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// Store is the entry repository. Entries come back in stored order;
// callers sort for display.
type Store interface {
	List(ctx context.Context) ([]memory.Entry, error)
	Get(ctx context.Context, id string) (memory.Entry, error)
	Create(ctx context.Context, e memory.Entry) (memory.Entry, error)
	Update(ctx context.Context, id string, p memory.Patch) (memory.Entry, error)
	Delete(ctx context.Context, id string) error
	Backend() string
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	Path    string // json document or sqlite database

	Lister storage.Lister // s3 only
	Prefix string         // s3 only

	Logger *zap.Logger
}

// New opens the backend named by o.Backend.
func New(o Options) (Store, error) {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	switch o.Backend {
	case BackendJSON, "":
		return OpenFile(o.Path, o.Logger)
	case BackendSQLite:
		return Open(o.Path)
	case BackendS3:
		if o.Lister == nil {
			return nil, fmt.Errorf("s3 store: %w", storage.ErrNotConfigured)
		}
		return NewListing(o.Lister, o.Prefix), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", o.Backend)
}
