// Package client talks to a running scrapbook server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lazypower/scrapbook/internal/memory"
)

const (
	DefaultServerURL = "http://127.0.0.1:4000"
	defaultTimeout   = 30 * time.Second
	adminHeader      = "X-Admin-Key"
)

var (
	ErrUnauthorized = errors.New("unauthorized: check the admin key")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-2xx response other than 401 and 404.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// TransportError means the request never got a response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// Client is the admin and read client for the scrapbook API.
type Client struct {
	http      *http.Client
	serverURL string
	adminKey  string
}

// New creates a client for serverURL. An empty URL uses DefaultServerURL.
func New(serverURL, adminKey string, timeout time.Duration) *Client {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		serverURL: strings.TrimRight(serverURL, "/"),
		adminKey:  adminKey,
	}
}

// statusError maps a failed response to a typed error. The message comes
// from an {"error": ...} body when there is one.
func statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	var payload struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(status)
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &APIError{Status: status, Message: msg}
}

// do sends a JSON request and returns the raw response body.
func (c *Client) do(ctx context.Context, method, path string, admin bool, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set(adminHeader, c.adminKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response " + path, Err: err}
	}
	if resp.StatusCode >= 400 {
		return data, statusError(resp.StatusCode, data)
	}
	return data, nil
}

func decodeInto(path string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// List fetches every memory. A response that is not a JSON array is
// treated as an empty collection.
func (c *Client) List(ctx context.Context) ([]memory.Entry, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/memories", false, nil)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []memory.Entry{}, nil
	}
	var entries []memory.Entry
	if err := decodeInto("/api/memories", trimmed, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func entryPath(id string) string { return "/api/memories/" + url.PathEscape(id) }

// Get fetches one memory.
func (c *Client) Get(ctx context.Context, id string) (memory.Entry, error) {
	var e memory.Entry
	data, err := c.do(ctx, http.MethodGet, entryPath(id), false, nil)
	if err != nil {
		return e, err
	}
	return e, decodeInto(entryPath(id), data, &e)
}

// Create posts a new memory. The server assigns id and created_at.
func (c *Client) Create(ctx context.Context, e memory.Entry) (memory.Entry, error) {
	var out memory.Entry
	data, err := c.do(ctx, http.MethodPost, "/api/memories", true, e)
	if err != nil {
		return out, err
	}
	return out, decodeInto("/api/memories", data, &out)
}

// Update sends only the fields set in p.
func (c *Client) Update(ctx context.Context, id string, p memory.Patch) (memory.Entry, error) {
	var out memory.Entry
	data, err := c.do(ctx, http.MethodPut, entryPath(id), true, p)
	if err != nil {
		return out, err
	}
	return out, decodeInto(entryPath(id), data, &out)
}

// Delete removes a memory.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, entryPath(id), true, nil)
	return err
}

// Ticket is a signed upload slot.
type Ticket struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}

// UploadURL asks the server for a write URL for one file.
func (c *Client) UploadURL(ctx context.Context, fileName, contentType string) (Ticket, error) {
	var t Ticket
	data, err := c.do(ctx, http.MethodPost, "/api/upload-url", false, map[string]string{
		"fileName":    fileName,
		"contentType": contentType,
	})
	if err != nil {
		return t, err
	}
	if err := decodeInto("/api/upload-url", data, &t); err != nil {
		return t, err
	}
	if t.UploadURL == "" || t.Key == "" {
		return t, errors.New("upload-url: incomplete response")
	}
	return t, nil
}

// PutObject uploads body to a signed URL. The content type must match the
// one the URL was signed for.
func (c *Client) PutObject(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("PUT object: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if size >= 0 {
		req.ContentLength = size
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: "PUT object", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	return nil
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
