package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/memory"
)

func ptr[T any](v T) *T { return &v }

func TestListAndGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/memories":
			io.WriteString(w, `[{"id":"1","title":"A","date":"2024-01-01","photos":["/media/a.jpg"]}]`)
		case "/api/memories/1":
			io.WriteString(w, `{"id":"1","title":"A","date":"2024-01-01","photos":[]}`)
		default:
			http.Error(w, `{"error":"memory not found"}`, http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	ctx := context.Background()

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, media.RefDirect, list[0].Photos[0].Type)

	e, err := c.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "A", e.Title)

	_, err = c.Get(ctx, "2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNonArrayIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"memories":"nope"}`)
	}))
	defer srv.Close()

	list, err := New(srv.URL, "", time.Second).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAdminHeaderAndPartialUpdate(t *testing.T) {
	var gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Admin-Key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{"id":"m","title":"T","date":"2024-01-01","location":"Kyoto","photos":[]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "sekrit", time.Second)
	e, err := c.Update(context.Background(), "m", memory.Patch{Location: ptr("Kyoto")})
	require.NoError(t, err)
	assert.Equal(t, "Kyoto", e.Location)
	assert.Equal(t, "sekrit", gotKey)
	assert.Equal(t, map[string]any{"location": "Kyoto"}, gotBody)
}

func TestTypedErrors(t *testing.T) {
	tests := []struct {
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{http.StatusUnauthorized, `{"error":"unauthorized"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrUnauthorized)
		}},
		{http.StatusBadRequest, `{"error":"title is required"}`, func(t *testing.T, err error) {
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, 400, apiErr.Status)
			assert.Equal(t, "title is required", apiErr.Message)
		}},
		{http.StatusBadGateway, `<html>bad gateway</html>`, func(t *testing.T, err error) {
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "Bad Gateway", apiErr.Message)
		}},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			io.WriteString(w, tt.body)
		}))
		err := New(srv.URL, "k", time.Second).Delete(context.Background(), "x")
		tt.check(t, err)
		srv.Close()
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := New(srv.URL, "", time.Second).List(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Op, "GET /api/memories")
}

func TestContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL, "", 5*time.Second).List(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestUploadFlow(t *testing.T) {
	var put struct {
		contentType string
		body        string
	}
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/api/upload-url", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Ticket{UploadURL: srv.URL + "/bucket/p/1-a.jpg", Key: "p/1-a.jpg"})
	})
	mux.HandleFunc("/bucket/", func(w http.ResponseWriter, r *http.Request) {
		put.contentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		put.body = string(b)
	})

	c := New(srv.URL, "", time.Second)
	ctx := context.Background()
	ticket, err := c.UploadURL(ctx, "a.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "p/1-a.jpg", ticket.Key)

	require.NoError(t, c.PutObject(ctx, ticket.UploadURL, "image/jpeg", strings.NewReader("jpeg!"), 5))
	assert.Equal(t, "image/jpeg", put.contentType)
	assert.Equal(t, "jpeg!", put.body)
}

func TestPutObjectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "SignatureDoesNotMatch", http.StatusForbidden)
	}))
	defer srv.Close()

	err := New(srv.URL, "", time.Second).PutObject(context.Background(), srv.URL, "image/png", strings.NewReader("x"), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "SignatureDoesNotMatch", apiErr.Message)
}
