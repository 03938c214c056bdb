package store

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/memory"
	"github.com/lazypower/scrapbook/internal/storage"
)

// Listing exposes every object under a bucket prefix as a one-photo
// entry. It cannot be written to.
type Listing struct {
	lister storage.Lister
	prefix string
}

// NewListing lists under prefix; a trailing slash is implied.
func NewListing(l storage.Lister, prefix string) *Listing {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Listing{lister: l, prefix: prefix}
}

func (l *Listing) Backend() string { return BackendS3 }

func (l *Listing) Close() error { return nil }

// entryFor maps prefix/<date>/<file> to an entry dated by the first
// segment after the prefix. Keys without a date segment use the object's
// modification day.
func (l *Listing) entryFor(obj storage.Object) memory.Entry {
	rest := strings.TrimPrefix(obj.Key, l.prefix)
	date := ""
	if seg, _, ok := strings.Cut(rest, "/"); ok {
		if _, err := time.Parse(memory.DateLayout, seg); err == nil {
			date = seg
		}
	}
	if date == "" && !obj.LastModified.IsZero() {
		date = obj.LastModified.UTC().Format(memory.DateLayout)
	}
	return memory.Entry{
		ID:        obj.Key,
		Title:     path.Base(obj.Key),
		Date:      date,
		Photos:    []media.Ref{media.StorageKey("", obj.Key, "")},
		CreatedAt: obj.LastModified.UnixMilli(),
	}
}

func (l *Listing) List(ctx context.Context) ([]memory.Entry, error) {
	objs, err := l.lister.List(ctx, l.prefix)
	if err != nil {
		return nil, fmt.Errorf("list bucket: %w", err)
	}
	out := make([]memory.Entry, 0, len(objs))
	for _, o := range objs {
		out = append(out, l.entryFor(o))
	}
	return out, nil
}

func (l *Listing) Get(ctx context.Context, id string) (memory.Entry, error) {
	all, err := l.List(ctx)
	if err != nil {
		return memory.Entry{}, err
	}
	for _, e := range all {
		if e.ID == id {
			return e, nil
		}
	}
	return memory.Entry{}, ErrNotFound
}

func (l *Listing) Create(context.Context, memory.Entry) (memory.Entry, error) {
	return memory.Entry{}, ErrReadOnly
}

func (l *Listing) Update(context.Context, string, memory.Patch) (memory.Entry, error) {
	return memory.Entry{}, ErrReadOnly
}

func (l *Listing) Delete(context.Context, string) error { return ErrReadOnly }
