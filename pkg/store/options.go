package store

import "time"

// Options tune how a store is opened. The zero value opens synchronously
// without caching.
type Options struct {
	// AsynchronousOpen bounds the open by AsyncTimeoutMs. The open-family
	// functions then wait for a PendingOpen; use OpenAsync to not block.
	AsynchronousOpen bool

	// AsyncTimeoutMs is the budget for an asynchronous open in
	// milliseconds. Zero or negative means no budget.
	AsyncTimeoutMs int

	// CachedRead keeps a local copy of remote stores and serves reads
	// from it. If the cache cannot be set up the store is opened directly.
	// It has no effect on local stores.
	CachedRead bool

	// CacheDir overrides the manager's cache directory for this open.
	CacheDir string
}

// DefaultOptions returns the zero Options.
func DefaultOptions() Options { return Options{} }

func (o Options) timeout() time.Duration {
	if o.AsyncTimeoutMs <= 0 {
		return 0
	}
	return time.Duration(o.AsyncTimeoutMs) * time.Millisecond
}

// Mode is the way a store is opened.
type Mode int

const (
	// ModeRead opens an existing store; writes are rejected.
	ModeRead Mode = iota
	// ModeUpdate opens an existing store for reading and writing.
	ModeUpdate
	// ModeCreate creates a store that must not exist yet.
	ModeCreate
	// ModeRecreate discards any existing store and creates a fresh one.
	ModeRecreate
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeUpdate:
		return "update"
	case ModeCreate:
		return "create"
	case ModeRecreate:
		return "recreate"
	default:
		return "unknown"
	}
}

func (m Mode) writable() bool { return m != ModeRead }

func (m Mode) creates() bool { return m == ModeCreate || m == ModeRecreate }
