package store

import (
	"context"
	"reflect"

	"github.com/arthur-debert/objstore/pkg/backend"
	"github.com/arthur-debert/objstore/pkg/errors"
)

// Handle refers to an open store. Copies share the same store. The zero
// Handle is invalid and every operation on it fails with ErrNullHandle.
type Handle struct {
	s   *Store
	err error
}

func invalidHandle(err error) Handle {
	return Handle{err: err}
}

func nullHandleError() error {
	return errors.New(errors.ErrNullHandle, "handle does not refer to an open store")
}

// Valid reports whether the handle refers to a store.
func (h Handle) Valid() bool { return h.s != nil }

// Err returns why the open that produced an invalid handle failed. It is
// nil for valid handles and for the zero Handle.
func (h Handle) Err() error { return h.err }

// Name returns the store name as passed to the open call.
func (h Handle) Name() string {
	if h.s == nil {
		return ""
	}
	return h.s.name
}

// Mode returns how the store was opened.
func (h Handle) Mode() Mode {
	if h.s == nil {
		return ModeRead
	}
	return h.s.mode
}

// Writable reports whether writes are currently accepted.
func (h Handle) Writable() bool {
	if h.s == nil {
		return false
	}
	h.s.mu.RLock()
	defer h.s.mu.RUnlock()
	return h.s.checkWritable() == nil
}

// Backend reports which kind of medium the store lives on.
func (h Handle) Backend() (backend.Kind, error) {
	if h.s == nil {
		return 0, nullHandleError()
	}
	return h.s.kind, nil
}

// Keys returns every entry name in sorted order.
func (h Handle) Keys() ([]string, error) {
	if h.s == nil {
		return nil, nullHandleError()
	}
	h.s.mu.RLock()
	defer h.s.mu.RUnlock()
	return h.s.dir.Names(), nil
}

// Entries describes every entry in key order.
func (h Handle) Entries() ([]EntryInfo, error) {
	if h.s == nil {
		return nil, nullHandleError()
	}
	return h.s.entries(), nil
}

// Rewrite persists the current state of an object previously handed over
// with Adopt.
func (h Handle) Rewrite(name string) error {
	if h.s == nil {
		return nullHandleError()
	}
	return h.s.rewrite(context.Background(), name)
}

// Flush persists every adopted object and the store header. Calling it
// again without intervening changes rewrites the same bytes.
func (h Handle) Flush() error {
	if h.s == nil {
		return nullHandleError()
	}
	return h.s.flush(context.Background())
}

// Close flushes the store and stops accepting writes. Reads keep working.
func (h Handle) Close() error {
	if h.s == nil {
		return nullHandleError()
	}
	return h.s.close(context.Background())
}

// Release closes the backend without flushing. The handle is unusable
// afterwards.
func (h Handle) Release() error {
	if h.s == nil {
		return nullHandleError()
	}
	return h.s.release()
}

// Read decodes the entry stored under name as a T. The result is a fresh
// copy; changing it does not affect the store.
//
// T must be the type the entry was written with, or an interface that type
// implements. Read[any] also accepts entries whose type this process does
// not know; they decode into generic maps, slices and scalars.
func Read[T any](h Handle, name string) (T, error) {
	var zero T
	if h.s == nil {
		return zero, nullHandleError()
	}

	v, err := h.s.read(context.Background(), name, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	out, ok := v.Interface().(T)
	if !ok {
		return zero, errors.Newf(errors.ErrTypeMismatch, "entry %q decoded as %s", name, v.Type())
	}
	return out, nil
}

// Write persists obj under name. The caller keeps ownership of obj; later
// changes to it are not seen by the store.
func Write[T any](h Handle, name string, obj T) error {
	if h.s == nil {
		return nullHandleError()
	}

	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Interface {
		v := reflect.ValueOf(obj)
		if !v.IsValid() {
			return errors.Newf(errors.ErrInvalidInput, "cannot write nil %s under %q", t, name)
		}
		t = v.Type()
	}
	return h.s.write(context.Background(), name, obj, h.s.types.Of(t), nil)
}

// Adopt persists *obj under name and makes the store a co-owner of obj:
// Rewrite, Flush and Close persist whatever state obj has at that time.
func Adopt[T any](h Handle, name string, obj *T) error {
	if h.s == nil {
		return nullHandleError()
	}
	if obj == nil {
		return errors.Newf(errors.ErrInvalidInput, "cannot adopt a nil object under %q", name)
	}
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Interface {
		return errors.Newf(errors.ErrInvalidInput, "adopt %q needs a concrete type, got %s", name, t)
	}
	return h.s.write(context.Background(), name, obj, h.s.types.Of(t), obj)
}
