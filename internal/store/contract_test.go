package store

import (
	"context"
	"errors"
	"testing"

	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/memory"
)

func ptr[T any](v T) *T { return &v }

func sample(id, date string) memory.Entry {
	return memory.Entry{
		ID:          id,
		Title:       "Title " + id,
		Date:        date,
		Location:    "Tokyo",
		Description: "desc " + id,
		Tags:        []string{"trip"},
		Photos: []media.Ref{
			media.DirectURL("/media/" + id + ".jpg"),
			media.StorageKey(media.KindVideo, "I_love_Jadyn/"+id+".mp4", "I_love_Jadyn/"+id+".jpg"),
		},
		CreatedAt: 1000,
	}
}

// runContract exercises the behaviour every writable backend shares.
func runContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List empty: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("List empty = %d entries, want 0", len(all))
	}

	a := sample("a", "2024-01-01")
	b := sample("b", "2024-06-01")
	for _, e := range []memory.Entry{a, b} {
		if _, err := s.Create(ctx, e); err != nil {
			t.Fatalf("Create %s: %v", e.ID, err)
		}
	}
	if _, err := s.Create(ctx, a); !errors.Is(err, ErrExists) {
		t.Errorf("Create duplicate err = %v, want ErrExists", err)
	}

	all, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "b" {
		t.Fatalf("List = %+v, want [a b] in insertion order", all)
	}

	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Photos) != 2 || got.Photos[1].Type != media.RefStorage || got.Photos[1].Key != "I_love_Jadyn/a.mp4" {
		t.Errorf("photos not preserved: %+v", got.Photos)
	}
	if got.Photos[0].Type != media.RefDirect {
		t.Errorf("direct url came back as %s", got.Photos[0].Type)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing err = %v, want ErrNotFound", err)
	}

	updated, err := s.Update(ctx, "a", memory.Patch{Location: ptr("Kyoto")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Location != "Kyoto" || updated.Title != a.Title || updated.Date != a.Date || len(updated.Photos) != 2 {
		t.Errorf("Update touched more than location: %+v", updated)
	}
	got, _ = s.Get(ctx, "a")
	if got.Location != "Kyoto" {
		t.Errorf("stored location = %q, want Kyoto", got.Location)
	}

	if _, err := s.Update(ctx, "missing", memory.Patch{Title: ptr("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing err = %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete twice err = %v, want ErrNotFound", err)
	}
	all, _ = s.List(ctx)
	if len(all) != 1 || all[0].ID != "b" {
		t.Errorf("after delete List = %+v, want [b]", all)
	}
}
