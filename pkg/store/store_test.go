// pkg/store/store_test.go
// TEST TYPE: Store Behavior Tests
// DEPENDENCIES: testutil environment (afero memory fs), MockBackend over httptest
// PURPOSE: Typed read/write, managed objects, flush and close semantics

package store_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/objstore/pkg/backend"
	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/arthur-debert/objstore/pkg/store"
	"github.com/arthur-debert/objstore/pkg/testutil"
	"github.com/arthur-debert/objstore/pkg/typeinfo"
)

type Point struct {
	X, Y int
}

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

type Run struct {
	Name    string
	Samples []float64
	Tags    map[string]string
}

func newEnv(t *testing.T) *testutil.TestEnvironment {
	t.Helper()
	return testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly,
		testutil.WithTypes(typeinfo.NewRegistry()))
}

func keysOf(t *testing.T, h store.Handle) []string {
	t.Helper()
	keys, err := h.Keys()
	require.NoError(t, err)
	return keys
}

// addressOf returns the blob currently holding key.
func addressOf(t *testing.T, h store.Handle, key string) string {
	t.Helper()
	entries, err := h.Entries()
	require.NoError(t, err)
	for _, e := range entries {
		if e.Name == key {
			return e.Address
		}
	}
	t.Fatalf("store %s has no entry %q", h.Name(), key)
	return ""
}

func TestWriteRead_RoundTrip(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")

	run := Run{Name: "first", Samples: []float64{1.5, 2.5}, Tags: map[string]string{"k": "v"}}
	require.NoError(t, store.Write(h, "run", run))
	require.NoError(t, store.Write(h, "count", 42))
	require.NoError(t, store.Write(h, "origin", Point{X: 1, Y: 2}))

	got, err := store.Read[Run](h, "run")
	require.NoError(t, err)
	assert.Equal(t, run, got)

	n, err := store.Read[int](h, "count")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	p, err := store.Read[Point](h, "origin")
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1, Y: 2}, p)
}

func TestRead_ReturnsIndependentCopy(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")

	run := Run{Name: "first", Samples: []float64{1}}
	require.NoError(t, store.Write(h, "run", run))

	first, err := store.Read[Run](h, "run")
	require.NoError(t, err)
	first.Samples[0] = 99
	first.Name = "changed"

	second, err := store.Read[Run](h, "run")
	require.NoError(t, err)
	assert.Equal(t, "first", second.Name)
	assert.Equal(t, []float64{1}, second.Samples)

	// the caller's value is not tied to the store either
	run.Name = "mutated"
	third, err := store.Read[Run](h, "run")
	require.NoError(t, err)
	assert.Equal(t, "first", third.Name)
}

func TestRead_UnknownKey(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")

	_, err := store.Read[int](h, "missing")
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnknownKey), "got %v", err)
}

func TestRead_TypeMismatch(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")
	require.NoError(t, store.Write(h, "count", 42))

	_, err := store.Read[string](h, "count")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTypeMismatch), "got %v", err)

	details := errors.GetErrorDetails(err)
	assert.Equal(t, "int", details["stored"])
	assert.Equal(t, "string", details["requested"])
}

func TestRead_InterfaceTarget(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")
	require.NoError(t, store.Write(h, "origin", Point{X: 3, Y: 4}))

	s, err := store.Read[fmt.Stringer](h, "origin")
	require.NoError(t, err)
	assert.Equal(t, "(3,4)", s.String())

	_, err = store.Read[error](h, "origin")
	assert.True(t, errors.IsErrorCode(err, errors.ErrTypeMismatch))
}

func TestWrite_InterfaceUsesDynamicType(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")

	var s fmt.Stringer = Point{X: 5, Y: 6}
	require.NoError(t, store.Write(h, "origin", s))

	p, err := store.Read[Point](h, "origin")
	require.NoError(t, err)
	assert.Equal(t, Point{X: 5, Y: 6}, p)

	var empty fmt.Stringer
	err = store.Write(h, "nothing", empty)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestWrite_ReplacesEntry(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")

	require.NoError(t, store.Write(h, "value", 1))
	require.NoError(t, store.Write(h, "value", "one"))

	s, err := store.Read[string](h, "value")
	require.NoError(t, err)
	assert.Equal(t, "one", s)

	_, err = store.Read[int](h, "value")
	assert.True(t, errors.IsErrorCode(err, errors.ErrTypeMismatch))
	assert.Equal(t, []string{"value"}, keysOf(t, h))
}

func TestWrite_EmptyKey(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")

	err := store.Write(h, "", 1)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestWrite_KeysWithSlashes(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")

	require.NoError(t, store.Write(h, "a/b", 1))
	require.NoError(t, store.Write(h, "../escape", 2))
	require.NoError(t, h.Close())

	r := env.Manager.Open("run1", store.DefaultOptions())
	require.True(t, r.Valid(), "open: %v", r.Err())
	v, err := store.Read[int](r, "../escape")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, []string{"../escape", "a/b"}, keysOf(t, r))
}

func TestAdopt_RewriteSeesChanges(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")

	run := &Run{Name: "v1"}
	require.NoError(t, store.Adopt(h, "run", run))

	run.Name = "v2"
	got, err := store.Read[Run](h, "run")
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Name, "adopted changes are only persisted on Rewrite")

	require.NoError(t, h.Rewrite("run"))
	got, err = store.Read[Run](h, "run")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Name)
}

func TestAdopt_FlushPersistsCurrentState(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")

	counter := new(int)
	require.NoError(t, store.Adopt(h, "counter", counter))
	*counter = 7
	require.NoError(t, h.Flush())

	r := env.Manager.Open("run1", store.DefaultOptions())
	require.True(t, r.Valid())
	n, err := store.Read[int](r, "counter")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestAdopt_Invalid(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")

	var nilRun *Run
	err := store.Adopt(h, "run", nilRun)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	var s fmt.Stringer = Point{}
	err = store.Adopt(h, "origin", &s)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestRewrite_UnknownKey(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")

	err := h.Rewrite("missing")
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnknownKey), "got %v", err)
}

func TestRewrite_UnmanagedEntry(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")
	require.NoError(t, store.Write(h, "count", 1))

	err := h.Rewrite("count")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), "got %v", err)
}

func TestWrite_DropsPreviousOwnership(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")

	run := &Run{Name: "adopted"}
	require.NoError(t, store.Adopt(h, "run", run))
	require.NoError(t, store.Write(h, "run", Run{Name: "plain"}))

	run.Name = "changed"
	require.NoError(t, h.Flush())

	got, err := store.Read[Run](h, "run")
	require.NoError(t, err)
	assert.Equal(t, "plain", got.Name)
}

func TestFlush_Idempotent(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")
	require.NoError(t, store.Write(h, "count", 42))
	require.NoError(t, store.Adopt(h, "run", &Run{Name: "x"}))

	require.NoError(t, h.Flush())
	require.NoError(t, h.Flush())

	r := env.Manager.Open("run1", store.DefaultOptions())
	require.True(t, r.Valid())
	assert.Equal(t, []string{"count", "run"}, keysOf(t, r))
}

func TestClose_RejectsWrites(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")
	require.NoError(t, store.Write(h, "count", 1))
	require.NoError(t, h.Close())

	assert.False(t, h.Writable())
	err := store.Write(h, "count", 2)
	assert.True(t, errors.IsErrorCode(err, errors.ErrClosed), "got %v", err)

	// reads keep working and a second Close is a no-op
	n, err := store.Read[int](h, "count")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, h.Close())
	assert.NoError(t, h.Flush())
}

func TestClose_FlushFailureKeepsStoreOpen(t *testing.T) {
	env := newEnv(t)
	mock := testutil.NewMockBackend()
	srv := env.ServeBackend(mock)

	h := env.CreateStore(testutil.RemoteStoreURL(srv))
	require.NoError(t, store.Adopt(h, "run", &Run{Name: "x"}))

	mock.WithError("Persist", errors.New(errors.ErrBackendFailure, "disk full"))
	err := h.Close()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackendFailure), "got %v", err)
	assert.True(t, h.Writable())

	mock.WithError("Persist", nil)
	require.NoError(t, h.Close())
	assert.False(t, h.Writable())
}

func TestNoImplicitFlush(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")
	require.NoError(t, store.Write(h, "count", 1))
	require.NoError(t, h.Release())

	// the header was never flushed, so the entry is not listed
	r := env.Manager.Open("run1", store.DefaultOptions())
	require.True(t, r.Valid())
	assert.Empty(t, keysOf(t, r))
}

func TestRelease(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")
	require.NoError(t, h.Release())
	require.NoError(t, h.Release())

	_, err := store.Read[int](h, "count")
	assert.True(t, errors.IsErrorCode(err, errors.ErrClosed))
	assert.True(t, errors.IsErrorCode(h.Flush(), errors.ErrClosed))
}

func TestRead_DetectsCorruption(t *testing.T) {
	env := newEnv(t)
	mock := testutil.NewMockBackend()
	srv := env.ServeBackend(mock)
	url := testutil.RemoteStoreURL(srv)

	h := env.CreateStore(url)
	require.NoError(t, store.Write(h, "count", 1))
	require.NoError(t, h.Close())

	r := env.Manager.Open(url, store.DefaultOptions())
	require.True(t, r.Valid())
	mock.Set(addressOf(t, r, "count"), []byte{0xff, 0x00})
	_, err := store.Read[int](r, "count")
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackendFailure), "got %v", err)
}

func TestEntries(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")
	require.NoError(t, store.Write(h, "count", 1))
	require.NoError(t, store.Adopt(h, "origin", &Point{}))

	entries, err := h.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "count", entries[0].Name)
	assert.Equal(t, "int", entries[0].Type)
	assert.Regexp(t, `^objects/count/[0-9a-f]{16}$`, entries[0].Address)
	assert.False(t, entries[0].Managed)
	assert.Equal(t, "origin", entries[1].Name)
	assert.True(t, entries[1].Managed)
}

func TestConcurrentWriters(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("mem://concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%02d", i)
			assert.NoError(t, store.Write(h, key, i))
			v, err := store.Read[int](h, key)
			assert.NoError(t, err)
			assert.Equal(t, i, v)
		}(i)
	}
	wg.Wait()

	assert.Len(t, keysOf(t, h), 16)
	require.NoError(t, h.Close())
}

func TestNullHandle(t *testing.T) {
	var h store.Handle
	assert.False(t, h.Valid())
	assert.NoError(t, h.Err())
	assert.Empty(t, h.Name())
	assert.False(t, h.Writable())

	isNull := func(err error) {
		t.Helper()
		assert.True(t, errors.IsErrorCode(err, errors.ErrNullHandle), "got %v", err)
	}
	_, err := store.Read[int](h, "x")
	isNull(err)
	keys, err := h.Keys()
	assert.Nil(t, keys)
	isNull(err)
	entries, err := h.Entries()
	assert.Nil(t, entries)
	isNull(err)
	_, err = h.Backend()
	isNull(err)
	isNull(store.Write(h, "x", 1))
	isNull(store.Adopt(h, "x", new(int)))
	isNull(h.Rewrite("x"))
	isNull(h.Flush())
	isNull(h.Close())
	isNull(h.Release())
}

func TestUnflushedWrite_KeepsFlushedValue(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")
	require.NoError(t, store.Write(h, "count", 42))
	require.NoError(t, h.Close())

	u := env.Manager.OpenForUpdate("run1", store.DefaultOptions())
	require.True(t, u.Valid(), "open: %v", u.Err())
	require.NoError(t, store.Write(u, "count", 43))
	require.NoError(t, u.Release())

	r := env.Manager.Open("run1", store.DefaultOptions())
	require.True(t, r.Valid(), "open: %v", r.Err())
	n, err := store.Read[int](r, "count")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestUnflushedAdopt_KeepsFlushedValue(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("run1")
	require.NoError(t, store.Adopt(h, "origin", &Point{X: 1, Y: 2}))
	require.NoError(t, h.Close())

	u := env.Manager.OpenForUpdate("run1", store.DefaultOptions())
	require.True(t, u.Valid())
	require.NoError(t, store.Adopt(u, "origin", &Point{X: 9, Y: 9}))
	require.NoError(t, u.Release())

	r := env.Manager.Open("run1", store.DefaultOptions())
	require.True(t, r.Valid())
	p, err := store.Read[Point](r, "origin")
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1, Y: 2}, p)
}

func TestFlush_RemovesSupersededBlobs(t *testing.T) {
	env := newEnv(t)
	mock := testutil.NewMockBackend()
	url := testutil.RemoteStoreURL(env.ServeBackend(mock))

	h := env.CreateStore(url)
	require.NoError(t, store.Write(h, "count", 1))
	require.NoError(t, h.Flush())
	first := addressOf(t, h, "count")

	require.NoError(t, store.Write(h, "count", 2))
	second := addressOf(t, h, "count")
	require.NoError(t, store.Write(h, "count", 3))
	third := addressOf(t, h, "count")
	assert.NotEqual(t, first, second)

	// nothing is removed before the header stops pointing at it
	_, ok := mock.Blob(first)
	assert.True(t, ok)

	require.NoError(t, h.Close())
	assert.Equal(t, []string{"_header.toml", third}, mock.Names())

	r := env.Manager.Open(url, store.DefaultOptions())
	require.True(t, r.Valid())
	n, err := store.Read[int](r, "count")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestBackend_ReportsKind(t *testing.T) {
	env := newEnv(t)
	h := env.CreateStore("mem://kind")

	kind, err := h.Backend()
	require.NoError(t, err)
	assert.Equal(t, backend.KindMemory, kind)
}
