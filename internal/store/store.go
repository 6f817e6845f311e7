// Package store provides the durable key-value persistence layer.
//
// State is organized into namespaces. A namespace is loaded and saved
// as a whole: Save atomically replaces the previous value so a reader
// can never observe a half-written namespace, and Load of a namespace
// that was never written reports found=false and leaves the caller's
// default in place.
package store

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the underlying medium cannot be read or
// written. Callers use errors.Is to tell infrastructure failures apart
// from data problems and decide whether to degrade or fail.
var ErrUnavailable = errors.New("store unavailable")

// Store is a crash-consistent mapping store.
//
// Writers must serialize their own read-modify-save sequences; the
// store only guarantees that an individual Save is atomic.
type Store interface {
	// Load decodes the namespace into dest. Reports found=false
	// (and does not touch dest) if the namespace was never saved.
	Load(ctx context.Context, namespace string, dest any) (bool, error)

	// Save encodes v and atomically replaces the namespace contents.
	Save(ctx context.Context, namespace string, v any) error

	// Ping checks that the medium is reachable.
	Ping(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}

// Namespaces used by the gateway. Identity and usage are saved
// independently, matching how they are owned.
const (
	NamespaceIdentity = "identity"
	NamespaceUsage    = "usage"
	NamespaceOpLog    = "oplog"
)
