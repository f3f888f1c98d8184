package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/arthur-debert/objstore/pkg/backend"
	"github.com/arthur-debert/objstore/pkg/errors"
)

// MockBackend is an in-memory backend.Backend for testing. It records
// every call and can be told to fail a given operation.
type MockBackend struct {
	mu            sync.RWMutex
	blobs         map[string][]byte
	calls         []string
	errorOn       map[string]error
	closed        bool
	persistHook   func(name string)
	retrieveCount map[string]int
}

// NewMockBackend creates an empty MockBackend
func NewMockBackend() *MockBackend {
	return &MockBackend{
		blobs:         make(map[string][]byte),
		errorOn:       make(map[string]error),
		retrieveCount: make(map[string]int),
	}
}

// WithError makes op ("Persist", "Retrieve", "Exists", "Remove", "Clear",
// "Close") fail with err. A nil err clears the failure.
func (m *MockBackend) WithError(op string, err error) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errorOn, op)
	} else {
		m.errorOn[op] = err
	}
	return m
}

// OnPersist runs fn for every Persist call before the blob is stored
func (m *MockBackend) OnPersist(fn func(name string)) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistHook = fn
	return m
}

func (m *MockBackend) record(call string) error {
	m.calls = append(m.calls, call)
	op := call
	for i, r := range call {
		if r == '(' {
			op = call[:i]
			break
		}
	}
	return m.errorOn[op]
}

// Persist stores a copy of data
func (m *MockBackend) Persist(ctx context.Context, name string, data []byte) error {
	m.mu.Lock()
	hook := m.persistHook
	if err := m.record(fmt.Sprintf("Persist(%s)", name)); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	if hook != nil {
		hook(name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := backend.ValidateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = append([]byte(nil), data...)
	return nil
}

// Retrieve returns a copy of the stored blob
func (m *MockBackend) Retrieve(ctx context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(fmt.Sprintf("Retrieve(%s)", name)); err != nil {
		return nil, err
	}
	m.retrieveCount[name]++
	data, ok := m.blobs[name]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "blob %q not found", name)
	}
	return append([]byte(nil), data...), nil
}

// Exists reports whether name is stored
func (m *MockBackend) Exists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(fmt.Sprintf("Exists(%s)", name)); err != nil {
		return false, err
	}
	_, ok := m.blobs[name]
	return ok, nil
}

// Remove deletes name
func (m *MockBackend) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(fmt.Sprintf("Remove(%s)", name)); err != nil {
		return err
	}
	delete(m.blobs, name)
	return nil
}

// Clear deletes every blob
func (m *MockBackend) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("Clear()"); err != nil {
		return err
	}
	m.blobs = make(map[string][]byte)
	return nil
}

// Close marks the backend closed
func (m *MockBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("Close()"); err != nil {
		return err
	}
	m.closed = true
	return nil
}

// Set stores data under name without recording a call
func (m *MockBackend) Set(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = append([]byte(nil), data...)
}

// Blob returns the stored bytes of name
func (m *MockBackend) Blob(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[name]
	return data, ok
}

// Names returns every stored blob name in sorted order
func (m *MockBackend) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.blobs))
	for name := range m.blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calls returns the recorded calls in order
func (m *MockBackend) Calls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.calls...)
}

// RetrieveCount returns how often name was retrieved
func (m *MockBackend) RetrieveCount(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.retrieveCount[name]
}

// Closed reports whether Close was called
func (m *MockBackend) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Reset clears recorded calls and injected errors
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.errorOn = make(map[string]error)
	m.retrieveCount = make(map[string]int)
}

var _ backend.Backend = (*MockBackend)(nil)
