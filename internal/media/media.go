// Package media turns the stored media references of a memory into the
// uniform {kind, url, poster} form the views render.
//
// Stored references come in three shapes: a bare URL string, a legacy
// {url, kind, poster} object, and an object-storage descriptor
// {kind, s3Key, posterS3Key}. Ref models them as one tagged value.
package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// Kind is the renderable media type.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindImage || k == KindVideo
}

// videoExts are the extensions treated as video when no kind is given.
var videoExts = map[string]bool{
	".mp4":  true,
	".webm": true,
	".ogg":  true,
	".mov":  true,
	".m4v":  true,
}

// InferKind guesses the kind of a URL or storage key from its extension.
// Query strings and fragments are ignored; anything that is not a known
// video extension is an image.
func InferKind(u string) Kind {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if videoExts[strings.ToLower(path.Ext(u))] {
		return KindVideo
	}
	return KindImage
}

// RefType discriminates the Ref variants.
type RefType int

const (
	RefInvalid RefType = iota
	RefDirect          // bare URL string
	RefInline          // {url, kind?, poster?}
	RefStorage         // {kind?, s3Key, posterS3Key?}
)

func (t RefType) String() string {
	switch t {
	case RefDirect:
		return "direct"
	case RefInline:
		return "inline"
	case RefStorage:
		return "storage"
	default:
		return "invalid"
	}
}

// Ref is one stored reference to a photo or video.
type Ref struct {
	Type      RefType
	URL       string // RefDirect, RefInline
	Kind      Kind   // optional for RefInline and RefStorage
	Poster    string // RefInline
	Key       string // RefStorage
	PosterKey string // RefStorage

	// raw keeps an unrecognized document so rewriting the store
	// does not lose it.
	raw json.RawMessage
}

// DirectURL builds a bare-URL reference.
func DirectURL(u string) Ref {
	return Ref{Type: RefDirect, URL: u}
}

// Inline builds a legacy object reference. kind and poster may be empty.
func Inline(u string, kind Kind, poster string) Ref {
	return Ref{Type: RefInline, URL: u, Kind: kind, Poster: poster}
}

// StorageKey builds an object-storage reference. kind and posterKey may be empty.
func StorageKey(kind Kind, key, posterKey string) Ref {
	return Ref{Type: RefStorage, Kind: kind, Key: key, PosterKey: posterKey}
}

// Valid reports whether the reference can be normalized.
func (r Ref) Valid() bool {
	switch r.Type {
	case RefDirect, RefInline:
		return r.URL != ""
	case RefStorage:
		return r.Key != ""
	}
	return false
}

// wireRef is the union of every object shape seen in stored documents.
type wireRef struct {
	Kind        Kind   `json:"kind,omitempty"`
	URL         string `json:"url,omitempty"`
	Poster      string `json:"poster,omitempty"`
	S3Key       string `json:"s3Key,omitempty"`
	PosterS3Key string `json:"posterS3Key,omitempty"`
}

// MarshalJSON writes each variant back in its own shape.
func (r Ref) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case RefDirect:
		return json.Marshal(r.URL)
	case RefInline:
		return json.Marshal(wireRef{Kind: r.Kind, URL: r.URL, Poster: r.Poster})
	case RefStorage:
		return json.Marshal(wireRef{Kind: r.Kind, S3Key: r.Key, PosterS3Key: r.PosterKey})
	}
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a string or any of the object shapes. Shapes that
// match nothing decode to an invalid Ref rather than an error.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = Ref{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("media ref: %w", err)
		}
		if s == "" {
			r.raw = append(json.RawMessage(nil), data...)
			return nil
		}
		*r = DirectURL(s)
		return nil
	}

	var w wireRef
	if data[0] != '{' || json.Unmarshal(data, &w) != nil {
		r.raw = append(json.RawMessage(nil), data...)
		return nil
	}

	switch {
	case w.S3Key != "" || w.PosterS3Key != "":
		*r = StorageKey(w.Kind, w.S3Key, w.PosterS3Key)
	case w.URL != "":
		*r = Inline(w.URL, w.Kind, w.Poster)
	default:
		r.raw = append(json.RawMessage(nil), data...)
	}
	return nil
}
