// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Object describes one stored item.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Storage is the interface for listing, writing, deleting and signing objects.
type Storage interface {
	// List enumerates every object in the bucket, across all result pages.
	List(ctx context.Context) ([]Object, error)
	// Put streams data to the store under the given key. Callers guarantee
	// key uniqueness; an existing key would be overwritten.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// Delete removes an object identified by key. A missing key is ErrNotFound.
	Delete(ctx context.Context, key string) error
	// SignedURL returns a URL granting read access to key until now+ttl.
	// It never mutates store state.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Closed set of failure kinds callers branch on.
var (
	// ErrNotFound is returned when the addressed object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrWrite is returned when a write or delete fails for any other reason.
	ErrWrite = errors.New("object store write failed")
	// ErrSigning is returned when a signed URL cannot be produced.
	ErrSigning = errors.New("url signing failed")
)

// Error wraps a storage failure with the operation and key for operator
// diagnosis. Kind is one of ErrNotFound, ErrWrite, ErrSigning; Err is the
// underlying cause. Both unwrap, so errors.Is works against the kind.
type Error struct {
	Op   string
	Key  string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + " " + e.Key + ": " + e.Kind.Error()
	}
	return e.Op + " " + e.Key + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
