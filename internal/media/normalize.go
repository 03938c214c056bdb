package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Normalized is the uniform render form of one media item.
// Images never carry a poster; a video poster is optional.
type Normalized struct {
	Kind   Kind   `json:"kind"`
	URL    string `json:"url"`
	Poster string `json:"poster,omitempty"`
}

// Resolver turns an object-storage key into a fetchable URL.
type Resolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// BaseURL resolves keys by appending them to a public endpoint.
type BaseURL string

// Resolve implements Resolver.
func (b BaseURL) Resolve(_ context.Context, key string) (string, error) {
	if b == "" {
		return "", errors.New("no public base url configured")
	}
	return strings.TrimRight(string(b), "/") + "/" + strings.TrimLeft(key, "/"), nil
}

// Normalize converts refs into render items, preserving order. Refs that
// cannot be resolved are dropped. A nil resolver drops storage refs.
func Normalize(ctx context.Context, refs []Ref, res Resolver) []Normalized {
	out := make([]Normalized, 0, len(refs))
	for _, r := range refs {
		n, err := normalizeOne(ctx, r, res)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func normalizeOne(ctx context.Context, r Ref, res Resolver) (Normalized, error) {
	if !r.Valid() {
		return Normalized{}, fmt.Errorf("unrecognized %s ref", r.Type)
	}

	switch r.Type {
	case RefDirect:
		return Normalized{Kind: InferKind(r.URL), URL: r.URL}, nil

	case RefInline:
		n := Normalized{Kind: r.Kind, URL: r.URL}
		if !n.Kind.Valid() {
			n.Kind = InferKind(r.URL)
		}
		if n.Kind == KindVideo {
			n.Poster = r.Poster
		}
		return n, nil

	case RefStorage:
		if res == nil {
			return Normalized{}, errors.New("no resolver for storage ref")
		}
		u, err := res.Resolve(ctx, r.Key)
		if err != nil {
			return Normalized{}, fmt.Errorf("resolve %s: %w", r.Key, err)
		}
		n := Normalized{Kind: r.Kind, URL: u}
		if !n.Kind.Valid() {
			n.Kind = InferKind(r.Key)
		}
		if n.Kind == KindVideo && r.PosterKey != "" {
			p, err := res.Resolve(ctx, r.PosterKey)
			if err != nil {
				return Normalized{}, fmt.Errorf("resolve poster %s: %w", r.PosterKey, err)
			}
			n.Poster = p
		}
		return n, nil
	}
	return Normalized{}, fmt.Errorf("unrecognized %s ref", r.Type)
}

// Sign rewrites storage refs into inline refs carrying resolved URLs, so a
// listing can be handed to clients that cannot reach private storage.
// Direct and inline refs pass through untouched. Refs that fail to resolve
// are left out of the result and reported in the joined error.
func Sign(ctx context.Context, refs []Ref, res Resolver) ([]Ref, error) {
	out := make([]Ref, 0, len(refs))
	var errs []error
	for _, r := range refs {
		if r.Type != RefStorage {
			out = append(out, r)
			continue
		}
		n, err := normalizeOne(ctx, r, res)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, Inline(n.URL, n.Kind, n.Poster))
	}
	return out, errors.Join(errs...)
}

// Cover picks the representative image for a card: the first item's url,
// or its poster when it is a video. A video without a poster has no cover.
func Cover(items []Normalized) string {
	if len(items) == 0 {
		return ""
	}
	first := items[0]
	if first.Kind == KindVideo {
		return first.Poster
	}
	return first.URL
}
