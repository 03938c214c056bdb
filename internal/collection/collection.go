// Package collection keeps the client-side list of memories in step with
// the server: the initial load, local edits, and the active search.
package collection

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/lazypower/scrapbook/internal/memory"
)

// LoadFailed is the banner shown when the list could not be fetched.
const LoadFailed = "Could not load memories from the server. Using local data."

// Lister fetches the full list.
type Lister interface {
	List(ctx context.Context) ([]memory.Entry, error)
}

// State is safe for concurrent use.
type State struct {
	mu          sync.RWMutex
	entries     []memory.Entry
	placeholder []memory.Entry
	query       string
	loading     bool
	banner      string
}

// New returns an empty state. placeholder, if non-empty, stands in for
// the list when a load fails or returns nothing.
func New(placeholder []memory.Entry) *State {
	return &State{placeholder: slices.Clone(placeholder)}
}

// Load replaces the list with what l returns. On failure the list falls
// back to the placeholder, the banner is set, and the error is returned.
// A canceled load leaves the state untouched.
func (s *State) Load(ctx context.Context, l Lister) error {
	s.mu.Lock()
	s.loading = true
	s.banner = ""
	s.mu.Unlock()

	entries, err := l.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.banner = LoadFailed
		s.entries = memory.SortByDate(s.placeholder)
		return err
	}
	if len(entries) == 0 {
		entries = s.placeholder
	}
	s.entries = memory.SortByDate(entries)
	return nil
}

// Created adds e, or replaces the entry with the same id.
func (s *State) Created(e memory.Entry) {
	s.mu.Lock()
	s.entries = memory.Replace(s.entries, e)
	s.mu.Unlock()
}

// Updated swaps in the server's copy of e.
func (s *State) Updated(e memory.Entry) {
	s.mu.Lock()
	s.entries = memory.Replace(s.entries, e)
	s.mu.Unlock()
}

// Deleted drops id. Unknown ids are ignored.
func (s *State) Deleted(id string) {
	s.mu.Lock()
	s.entries, _ = memory.Remove(s.entries, id)
	s.mu.Unlock()
}

func (s *State) SetQuery(q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
}

func (s *State) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Visible is the filtered, date-ordered list for the current query.
func (s *State) Visible() []memory.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memory.Filter(s.query, s.entries)
}

// All returns every entry, date-ordered.
func (s *State) All() []memory.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Find looks an entry up by id.
func (s *State) Find(id string) (memory.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.entries, func(e memory.Entry) bool { return e.ID == id })
	if i < 0 {
		return memory.Entry{}, false
	}
	return s.entries[i], true
}

func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Banner is the current error banner, or "".
func (s *State) Banner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.banner
}
