// Package admin implements the two-phase media upload and the create,
// edit and delete form used by the admin CLI commands.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lazypower/scrapbook/internal/client"
	"github.com/lazypower/scrapbook/internal/media"
)

var (
	ErrUploadsInFlight = errors.New("uploads still in progress")
	ErrNotConfirmed    = errors.New("delete not confirmed")
	ErrNoMedia         = errors.New("at least one uploaded photo or video is required")
	ErrEmptyPatch      = errors.New("nothing to update")
)

// UploadError reports which file failed.
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload %s: %v", e.File, e.Err) }

func (e *UploadError) Unwrap() error { return e.Err }

// Uploader is the slice of the API client uploads need.
type Uploader interface {
	UploadURL(ctx context.Context, fileName, contentType string) (client.Ticket, error)
	PutObject(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error
}

// File is one local file to upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Media types missing from Go's builtin extension table.
func init() {
	for ext, ct := range map[string]string{
		".mp4":  "video/mp4",
		".m4v":  "video/mp4",
		".mov":  "video/quicktime",
		".webm": "video/webm",
		".heic": "image/heic",
	} {
		_ = mime.AddExtensionType(ext, ct)
	}
}

// FileFromPath describes the file at path, guessing its content type from
// the extension and then from its first bytes.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ct == "" {
		f, err := os.Open(path)
		if err != nil {
			return File{}, err
		}
		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		f.Close()
		ct = http.DetectContentType(head[:n])
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: ct,
		Size:        info.Size(),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// Uploaded is a finished upload. Only the key is kept; signed URLs expire.
type Uploaded struct {
	File string
	Key  string
	Kind media.Kind
}

// Uploads is a batch of uploads feeding one form.
type Uploads struct {
	api Uploader

	mu       sync.Mutex
	done     []Uploaded
	inFlight int
}

func NewUploads(api Uploader) *Uploads {
	return &Uploads{api: api}
}

func kindFor(contentType string) media.Kind {
	if strings.HasPrefix(contentType, "video/") {
		return media.KindVideo
	}
	return media.KindImage
}

func (u *Uploads) begin() {
	u.mu.Lock()
	u.inFlight++
	u.mu.Unlock()
}

func (u *Uploads) end() {
	u.mu.Lock()
	u.inFlight--
	u.mu.Unlock()
}

// upload runs both phases for f without recording the result.
func (u *Uploads) upload(ctx context.Context, f File) (Uploaded, error) {
	ticket, err := u.api.UploadURL(ctx, f.Name, f.ContentType)
	if err != nil {
		return Uploaded{}, &UploadError{File: f.Name, Err: err}
	}
	body, err := f.Open()
	if err != nil {
		return Uploaded{}, &UploadError{File: f.Name, Err: err}
	}
	defer body.Close()
	if err := u.api.PutObject(ctx, ticket.UploadURL, f.ContentType, body, f.Size); err != nil {
		return Uploaded{}, &UploadError{File: f.Name, Err: err}
	}
	return Uploaded{File: f.Name, Key: ticket.Key, Kind: kindFor(f.ContentType)}, nil
}

// Add requests a signed URL for f, uploads it and records the key. A
// failure leaves earlier uploads in place.
func (u *Uploads) Add(ctx context.Context, f File) (Uploaded, error) {
	u.begin()
	defer u.end()

	up, err := u.upload(ctx, f)
	if err != nil {
		return Uploaded{}, err
	}
	u.mu.Lock()
	u.done = append(u.done, up)
	u.mu.Unlock()
	return up, nil
}

// AddAll uploads files concurrently. Successful uploads are recorded in
// the order given, whatever order they finish in; failures come back
// joined.
func (u *Uploads) AddAll(ctx context.Context, files []File) error {
	results := make([]Uploaded, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		u.begin()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer u.end()
			results[i], errs[i] = u.upload(ctx, f)
		}()
	}
	wg.Wait()

	u.mu.Lock()
	for i, up := range results {
		if errs[i] == nil {
			u.done = append(u.done, up)
		}
	}
	u.mu.Unlock()
	return errors.Join(errs...)
}

// InFlight reports whether any upload is still running.
func (u *Uploads) InFlight() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inFlight > 0
}

// Done returns the finished uploads.
func (u *Uploads) Done() []Uploaded {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Uploaded(nil), u.done...)
}

// Refs returns the storage references for every finished upload.
func (u *Uploads) Refs() []media.Ref {
	u.mu.Lock()
	defer u.mu.Unlock()
	refs := make([]media.Ref, 0, len(u.done))
	for _, d := range u.done {
		refs = append(refs, media.StorageKey(d.Kind, d.Key, ""))
	}
	return refs
}

// Reset forgets finished uploads.
func (u *Uploads) Reset() {
	u.mu.Lock()
	u.done = nil
	u.mu.Unlock()
}
