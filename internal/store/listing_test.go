package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/memory"
	"github.com/lazypower/scrapbook/internal/storage"
)

type fakeLister struct {
	objs   []storage.Object
	prefix string
	err    error
}

func (f *fakeLister) List(_ context.Context, prefix string) ([]storage.Object, error) {
	f.prefix = prefix
	return f.objs, f.err
}

func TestListingEntries(t *testing.T) {
	mod := time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)
	fl := &fakeLister{objs: []storage.Object{
		{Key: "I_love_Jadyn/2024-02-14/beach.jpg", LastModified: mod},
		{Key: "I_love_Jadyn/1700000000000-clip.mp4", LastModified: mod},
	}}
	l := NewListing(fl, "I_love_Jadyn")

	all, err := l.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if fl.prefix != "I_love_Jadyn/" {
		t.Errorf("listed prefix = %q", fl.prefix)
	}
	if len(all) != 2 {
		t.Fatalf("List = %d entries, want 2", len(all))
	}

	e := all[0]
	if e.ID != "I_love_Jadyn/2024-02-14/beach.jpg" || e.Date != "2024-02-14" || e.Title != "beach.jpg" {
		t.Errorf("entry = %+v", e)
	}
	if len(e.Photos) != 1 || e.Photos[0].Type != media.RefStorage || e.Photos[0].Key != e.ID {
		t.Errorf("photos = %+v", e.Photos)
	}
	if all[1].Date != "2024-07-04" {
		t.Errorf("undated key date = %q, want modification day", all[1].Date)
	}
}

func TestListingReadOnly(t *testing.T) {
	l := NewListing(&fakeLister{}, "p")
	ctx := context.Background()

	if _, err := l.Create(ctx, memory.Entry{}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Create err = %v", err)
	}
	if _, err := l.Update(ctx, "x", memory.Patch{}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Update err = %v", err)
	}
	if err := l.Delete(ctx, "x"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Delete err = %v", err)
	}
	if _, err := l.Get(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get err = %v", err)
	}
}

func TestListingError(t *testing.T) {
	boom := errors.New("access denied")
	l := NewListing(&fakeLister{err: boom}, "p")
	if _, err := l.List(context.Background()); !errors.Is(err, boom) {
		t.Errorf("List err = %v, want wrapped %v", err, boom)
	}
}

func TestNewBackends(t *testing.T) {
	s, err := New(Options{Backend: BackendJSON, Path: t.TempDir() + "/m.json"})
	if err != nil || s.Backend() != BackendJSON {
		t.Errorf("json: %v %v", s, err)
	}
	s, err = New(Options{Backend: BackendS3, Lister: &fakeLister{}})
	if err != nil || s.Backend() != BackendS3 {
		t.Errorf("s3: %v %v", s, err)
	}
	if _, err := New(Options{Backend: BackendS3}); !errors.Is(err, storage.ErrNotConfigured) {
		t.Errorf("s3 without lister err = %v", err)
	}
	if _, err := New(Options{Backend: "mongo"}); err == nil {
		t.Error("unknown backend should fail")
	}
}
