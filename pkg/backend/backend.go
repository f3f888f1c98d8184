// Package backend defines the storage medium a store persists to and the
// bundled implementations of it.
//
// A Backend holds the named blobs of exactly one store. Names are
// slash-separated relative paths chosen by the store ("_header.toml",
// "objects/count"); backends never interpret them beyond that.
//
// Implementations:
//
//   - Local:  a directory on an afero.Fs (plain paths, file:// and mem://)
//   - SQLite: a single database file (sqlite://)
//   - Remote: an HTTP endpoint speaking the protocol served by NewHandler
//   - Cached: a Remote fronted by a Local cache directory
package backend

import (
	"context"
	"path"
	"strings"

	"github.com/arthur-debert/objstore/pkg/errors"
)

// Backend persists and retrieves named byte blobs.
type Backend interface {
	// Persist stores data under name, replacing any previous blob.
	Persist(ctx context.Context, name string, data []byte) error

	// Retrieve returns the blob stored under name. A missing blob yields an
	// error for which IsNotFound reports true.
	Retrieve(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether a blob is stored under name.
	Exists(ctx context.Context, name string) (bool, error)

	// Remove deletes the blob under name. Removing a missing blob is not
	// an error.
	Remove(ctx context.Context, name string) error

	// Clear deletes every blob.
	Clear(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error
}

// Refresher is implemented by backends that serve blobs from a local copy
// and can re-fetch one from the origin.
type Refresher interface {
	Refresh(ctx context.Context, name string) ([]byte, error)
}

// IsNotFound reports whether err means a blob does not exist.
func IsNotFound(err error) bool {
	return errors.IsErrorCode(err, errors.ErrNotFound)
}

func notFound(name string) error {
	return errors.Newf(errors.ErrNotFound, "blob %q not found", name)
}

func failure(err error, op, name string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, errors.ErrBackendFailure, "%s %s", op, name)
}

// ValidateName rejects names that are empty, absolute, or that would
// escape the store through "..".
func ValidateName(name string) error {
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "blob name cannot be empty")
	}
	if strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return errors.Newf(errors.ErrInvalidInput, "blob name %q must be a relative slash path", name)
	}
	clean := path.Clean(name)
	if clean != name || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return errors.Newf(errors.ErrInvalidInput, "blob name %q is not canonical", name)
	}
	return nil
}
