package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/lazypower/scrapbook/internal/memory"
)

// DefaultDebounce batches bursts of filesystem events into one reload.
const DefaultDebounce = 250 * time.Millisecond

// File keeps every entry in one JSON array document. Each mutation
// re-reads the document, applies the change and rewrites it wholesale
// through a temp file and rename.
type File struct {
	path string
	log  *zap.Logger

	mu      sync.RWMutex
	entries []memory.Entry
}

// OpenFile loads the document at path. A missing file is an empty store.
func OpenFile(path string, log *zap.Logger) (*File, error) {
	if path == "" {
		return nil, errors.New("json store: empty path")
	}
	if log == nil {
		log = zap.NewNop()
	}
	f := &File{path: path, log: log}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path is the document location.
func (f *File) Path() string { return f.path }

func (f *File) Backend() string { return BackendJSON }

func (f *File) Close() error { return nil }

// errMalformed marks a document that exists but is not a JSON array of
// entries.
var errMalformed = errors.New("memories document is malformed")

// load parses the document strictly. A missing or blank file is empty;
// anything else that is not an array of entries wraps errMalformed.
func (f *File) load() ([]memory.Entry, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []memory.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []memory.Entry{}, nil
	}
	if data[0] != '[' {
		return nil, fmt.Errorf("%s: %w: not an array", f.path, errMalformed)
	}
	var entries []memory.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", f.path, errMalformed, err)
	}
	return entries, nil
}

// read is the lenient form of load used for display. A malformed
// document is treated as empty and logged; only I/O errors are returned.
func (f *File) read() ([]memory.Entry, error) {
	entries, err := f.load()
	if errors.Is(err, errMalformed) {
		f.log.Warn("memories document unreadable; treating as empty",
			zap.String("path", f.path), zap.Error(err))
		return []memory.Entry{}, nil
	}
	return entries, err
}

func (f *File) write(entries []memory.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memories: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".memories-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

// Reload replaces the cached entries with the document on disk.
func (f *File) Reload() error {
	entries, err := f.read()
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.entries = entries
	f.mu.Unlock()
	return nil
}

func (f *File) List(_ context.Context) ([]memory.Entry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.entries), nil
}

func (f *File) Get(_ context.Context, id string) (memory.Entry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, e := range f.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return memory.Entry{}, ErrNotFound
}

// mutate runs fn against the current document and persists the result.
// A malformed document is refused rather than overwritten.
func (f *File) mutate(fn func([]memory.Entry) ([]memory.Entry, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.load()
	if err != nil {
		return fmt.Errorf("refusing to rewrite: %w", err)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if err := f.write(next); err != nil {
		return err
	}
	f.entries = next
	return nil
}

func (f *File) Create(_ context.Context, e memory.Entry) (memory.Entry, error) {
	err := f.mutate(func(all []memory.Entry) ([]memory.Entry, error) {
		if slices.ContainsFunc(all, func(x memory.Entry) bool { return x.ID == e.ID }) {
			return nil, ErrExists
		}
		return append(all, e), nil
	})
	if err != nil {
		return memory.Entry{}, err
	}
	return e, nil
}

func (f *File) Update(_ context.Context, id string, p memory.Patch) (memory.Entry, error) {
	var updated memory.Entry
	err := f.mutate(func(all []memory.Entry) ([]memory.Entry, error) {
		i := slices.IndexFunc(all, func(x memory.Entry) bool { return x.ID == id })
		if i < 0 {
			return nil, ErrNotFound
		}
		updated = p.Apply(all[i])
		all[i] = updated
		return all, nil
	})
	if err != nil {
		return memory.Entry{}, err
	}
	return updated, nil
}

func (f *File) Delete(_ context.Context, id string) error {
	return f.mutate(func(all []memory.Entry) ([]memory.Entry, error) {
		next, ok := memory.Remove(all, id)
		if !ok {
			return nil, ErrNotFound
		}
		return next, nil
	})
}

// Watch reloads the document after external edits until ctx is done.
// Bursts of events within debounce collapse into one reload. onReload,
// if set, runs after each successful reload.
func (f *File) Watch(ctx context.Context, debounce time.Duration, onReload func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: renames replace the file's inode.
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false
	name := filepath.Clean(f.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !pending {
				timer.Reset(debounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			pending = false
			if err := f.Reload(); err != nil {
				f.log.Error("reload memories", zap.Error(err))
				continue
			}
			f.log.Info("memories reloaded", zap.String("path", f.path))
			if onReload != nil {
				onReload()
			}
		}
	}
}
