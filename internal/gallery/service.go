// Package gallery composes the object store and the like counter into the
// image gallery workflow: listing, upload, deletion and likes.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/sakkuru/image-gallery/internal/storage"
)

// Counter is the like-counter gateway used by the service. Increment must be
// atomic in the backing store: concurrent likes on one key may never lose an
// update. *likes.Repository satisfies this with a single-statement upsert.
type Counter interface {
	GetCount(ctx context.Context, key string) (int64, error)
	Increment(ctx context.Context, key string) (int64, error)
}

// Entry is one rendered gallery item: the stored name, a freshly signed
// time-bounded URL, and the current like count.
type Entry struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Likes int64  `json:"likes"`
}

// ErrEmptyKey is returned when an operation is given a blank storage key.
var ErrEmptyKey = errors.New("empty storage key")

// BatchError reports a failed deletion batch: which key failed, its cause, and
// how many keys earlier in the batch were already deleted. Completed deletions
// are not rolled back.
type BatchError struct {
	Key     string
	Deleted int
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("delete %q failed after %d deleted: %v", e.Key, e.Deleted, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// storeCallTimeout bounds a single request's calls into the external stores so
// a slow backend surfaces as a request error instead of a hung connection.
const storeCallTimeout = 30 * time.Second

const defaultContentType = "application/octet-stream"

// Service contains the gallery business logic.
type Service struct {
	store   storage.Storage
	counter Counter
	urlTTL  time.Duration
}

// NewService creates a gallery Service. urlTTL is how long signed gallery URLs
// stay valid.
func NewService(store storage.Storage, counter Counter, urlTTL time.Duration) *Service {
	return &Service{store: store, counter: counter, urlTTL: urlTTL}
}

// List returns every stored image, newest first, each with its like count and
// a freshly signed URL. Listing is all-or-nothing: if the count or URL for any
// item cannot be fetched, the whole listing fails.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	objects, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}

	// Keys are timestamp-prefixed, so reverse lexicographic order is
	// newest-first without consulting store metadata.
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key > objects[j].Key })

	entries := make([]Entry, 0, len(objects))
	for _, obj := range objects {
		count, err := s.counter.GetCount(ctx, obj.Key)
		if err != nil {
			return nil, fmt.Errorf("list gallery: %w", err)
		}
		url, err := s.store.SignedURL(ctx, obj.Key, s.urlTTL)
		if err != nil {
			return nil, fmt.Errorf("list gallery: %w", err)
		}
		entries = append(entries, Entry{Name: obj.Key, URL: url, Likes: count})
	}
	return entries, nil
}

// Upload stores one file payload under a synthesized key and returns the key.
// Any byte payload is accepted as-is; no content-type validation happens here.
func (s *Service) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	if contentType == "" {
		contentType = defaultContentType
	}
	key := NewStorageKey(filename)
	if err := s.store.Put(ctx, key, reader, size, contentType); err != nil {
		return "", fmt.Errorf("upload %q: %w", filename, err)
	}
	return key, nil
}

// Delete removes the given keys in order, stopping on the first failure. The
// returned *BatchError names the failing key and how many keys were already
// deleted; those deletions stand.
func (s *Service) Delete(ctx context.Context, keys []string) error {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	for i, key := range keys {
		if key == "" {
			return &BatchError{Key: key, Deleted: i, Err: ErrEmptyKey}
		}
		if err := s.store.Delete(ctx, key); err != nil {
			return &BatchError{Key: key, Deleted: i, Err: err}
		}
	}
	return nil
}

// Like records one like for key and returns the new count. The first like on
// a key creates its counter at 1.
func (s *Service) Like(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}

	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	count, err := s.counter.Increment(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("like %q: %w", key, err)
	}
	return count, nil
}
