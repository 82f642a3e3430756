// Package blobstore provides the key-value object storage used by the
// scoring engine: a Backend contract, several adapters and a JSON facade.
package blobstore

import (
	"context"
	"time"
)

// DefaultMaxKeys is used when a ListInput leaves MaxKeys unset.
const DefaultMaxKeys = 1000

// Object describes a listed key.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ListInput selects one page of keys under Prefix. Cursor is the opaque
// NextCursor of the previous page, empty for the first page.
type ListInput struct {
	Prefix  string
	MaxKeys int
	Cursor  string
}

func (in ListInput) limit() int {
	if in.MaxKeys <= 0 {
		return DefaultMaxKeys
	}
	return in.MaxKeys
}

// ListPage is one page of a listing. NextCursor is empty on the last page.
type ListPage struct {
	Objects    []Object
	NextCursor string
}

// Backend is a raw object store.
type Backend interface {
	// Get returns the object bytes or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put creates or replaces the object at key.
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns keys under a prefix, one page at a time.
	List(ctx context.Context, in ListInput) (ListPage, error)
}
