package admin

import (
	"context"
	"strings"
	"sync"

	"github.com/lazypower/scrapbook/internal/memory"
)

// API is the slice of the client the form needs.
type API interface {
	Create(ctx context.Context, e memory.Entry) (memory.Entry, error)
	Update(ctx context.Context, id string, p memory.Patch) (memory.Entry, error)
	Delete(ctx context.Context, id string) error
}

// Form holds one admin session: the fields for a new memory, the
// uploads attached to it, and the delete confirmation.
type Form struct {
	api     API
	Uploads *Uploads

	Title       string
	Date        string
	Location    string
	Description string
	Tags        []string

	mu        sync.Mutex
	confirmed bool
}

func NewForm(api API, uploads *Uploads) *Form {
	return &Form{api: api, Uploads: uploads}
}

// Entry assembles the memory the form would create.
func (f *Form) Entry() memory.Entry {
	return memory.Entry{
		Title:       strings.TrimSpace(f.Title),
		Date:        strings.TrimSpace(f.Date),
		Location:    strings.TrimSpace(f.Location),
		Description: strings.TrimSpace(f.Description),
		Tags:        f.Tags,
		Photos:      f.Uploads.Refs(),
	}
}

// Submit creates the memory. It refuses while uploads are running, when
// title or date are invalid, or when nothing was uploaded.
func (f *Form) Submit(ctx context.Context) (memory.Entry, error) {
	if f.Uploads.InFlight() {
		return memory.Entry{}, ErrUploadsInFlight
	}
	e := f.Entry()
	if err := memory.Validate(e); err != nil {
		return memory.Entry{}, err
	}
	if len(e.Photos) == 0 {
		return memory.Entry{}, ErrNoMedia
	}
	created, err := f.api.Create(ctx, e)
	if err != nil {
		return memory.Entry{}, err
	}
	f.Uploads.Reset()
	return created, nil
}

// Update sends p, which should carry only the fields being changed.
func (f *Form) Update(ctx context.Context, id string, p memory.Patch) (memory.Entry, error) {
	if f.Uploads.InFlight() {
		return memory.Entry{}, ErrUploadsInFlight
	}
	if p.Empty() {
		return memory.Entry{}, ErrEmptyPatch
	}
	if err := memory.ValidatePatch(p); err != nil {
		return memory.Entry{}, err
	}
	return f.api.Update(ctx, id, p)
}

// Confirm arms or disarms the next Delete.
func (f *Form) Confirm(ok bool) {
	f.mu.Lock()
	f.confirmed = ok
	f.mu.Unlock()
}

// Delete removes id if Confirm(true) was called first. The confirmation
// is consumed either way.
func (f *Form) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	ok := f.confirmed
	f.confirmed = false
	f.mu.Unlock()
	if !ok {
		return ErrNotConfirmed
	}
	return f.api.Delete(ctx, id)
}
