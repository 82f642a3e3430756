package blobstore

import "errors"

// Sentinel kinds for blob store errors. These allow errors.Is from callers.
var (
	ErrNotFound    = errors.New("object not found")
	ErrMalformed   = errors.New("malformed object")
	ErrUnavailable = errors.New("blob store unavailable")
	ErrInvalidKey  = errors.New("invalid object key")
)
