package storage

import "context"

// Store is a hierarchical key-path store addressed as
// <collection>/<id>[/<field>...]. Values are JSON-compatible: maps, slices,
// strings, numbers, booleans. Absent values read as nil with no error.
type Store interface {
	// Read returns the value at path, or nil if nothing is stored there
	Read(ctx context.Context, path string) (any, error)

	// Write replaces the value at path. Writing nil removes it.
	Write(ctx context.Context, path string, value any) error

	// Update merges fields into the object at path. Keys may be relative
	// paths; a nil field value removes that child.
	Update(ctx context.Context, path string, fields map[string]any) error

	// Remove deletes the value at path and everything below it
	Remove(ctx context.Context, path string) error

	// Push stores value under a generated, time-ordered child key of path
	// and returns that key
	Push(ctx context.Context, path string, value any) (string, error)

	// Watch calls fn with the current value at path and again every time
	// it changes, until the returned Unsubscribe is called or ctx ends
	Watch(ctx context.Context, path string, fn WatchFunc) (Unsubscribe, error)
}

// WatchFunc receives watched values, or an error when a refresh failed
type WatchFunc func(value any, err error)

// Unsubscribe stops a watch. Calling it more than once is a no-op.
type Unsubscribe func()
