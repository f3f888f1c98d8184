package store

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/arthur-debert/objstore/pkg/backend"
	"github.com/arthur-debert/objstore/pkg/codec"
	"github.com/arthur-debert/objstore/pkg/config"
	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/arthur-debert/objstore/pkg/logging"
	"github.com/arthur-debert/objstore/pkg/paths"
	"github.com/arthur-debert/objstore/pkg/typeinfo"
)

// Manager opens stores. It owns the settings every open shares: the cache
// directory for cached reads, the filesystems local stores live on and the
// HTTP client for remote stores.
//
// Open-family calls and the cache directory accessors are serialized.
type Manager struct {
	mu       sync.Mutex
	cacheDir string

	paths  paths.Paths
	fs     afero.Fs
	memFs  afero.Fs
	client *http.Client
	types  *typeinfo.Registry
	codec  codec.Codec
	logger zerolog.Logger
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithFs sets the filesystem plain and file:// stores and the cache live
// on. sqlite:// stores are opened by the database driver directly and are
// only available while this is the operating system filesystem.
func WithFs(fs afero.Fs) ManagerOption {
	return func(m *Manager) { m.fs = fs }
}

// WithMemFs sets the filesystem behind mem:// stores.
func WithMemFs(fs afero.Fs) ManagerOption {
	return func(m *Manager) { m.memFs = fs }
}

// WithHTTPClient sets the client used by remote stores.
func WithHTTPClient(c *http.Client) ManagerOption {
	return func(m *Manager) { m.client = c }
}

// WithTypes sets the type registry entries are described with.
func WithTypes(r *typeinfo.Registry) ManagerOption {
	return func(m *Manager) { m.types = r }
}

// WithPaths sets how plain store names are resolved.
func WithPaths(p paths.Paths) ManagerOption {
	return func(m *Manager) { m.paths = p }
}

// NewManager builds a Manager from cfg. A nil cfg uses config.Default().
func NewManager(cfg *config.Config, opts ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	c, err := codec.Lookup(cfg.Store.Codec)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cacheDir: paths.DefaultCacheDir(),
		fs:       afero.NewOsFs(),
		memFs:    afero.NewMemMapFs(),
		client:   &http.Client{Timeout: cfg.Remote.Timeout},
		types:    typeinfo.Default(),
		codec:    c,
		logger:   logging.GetLogger("store.manager"),
	}
	if cfg.Cache.Dir != "" {
		m.cacheDir = paths.ExpandHome(cfg.Cache.Dir)
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.paths == nil {
		p, err := paths.New(cfg.Store.Root)
		if err != nil {
			return nil, err
		}
		m.paths = p
	}
	return m, nil
}

// SetCacheDir changes the directory cached reads keep their copies under
// and returns the previous one.
func (m *Manager) SetCacheDir(dir string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.cacheDir
	m.cacheDir = dir
	m.logger.Debug().Str("old", old).Str("new", dir).Msg("Cache directory changed")
	return old
}

// CacheDir returns the directory cached reads keep their copies under.
func (m *Manager) CacheDir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheDir
}

// Open opens an existing store for reading. Writes through the returned
// handle fail with ErrReadOnly.
func (m *Manager) Open(name string, opts Options) Handle {
	return m.openMode(ModeRead, name, opts)
}

// OpenForUpdate opens an existing store for reading and writing.
func (m *Manager) OpenForUpdate(name string, opts Options) Handle {
	return m.openMode(ModeUpdate, name, opts)
}

// Create creates a store. The handle is invalid if one already exists.
func (m *Manager) Create(name string, opts Options) Handle {
	return m.openMode(ModeCreate, name, opts)
}

// Recreate discards whatever store exists under name and creates an empty
// one.
func (m *Manager) Recreate(name string, opts Options) Handle {
	return m.openMode(ModeRecreate, name, opts)
}

func (m *Manager) openMode(mode Mode, name string, opts Options) Handle {
	if opts.AsynchronousOpen {
		h, _ := m.OpenAsync(mode, name, opts).Wait(context.Background())
		return h
	}
	return m.open(context.Background(), mode, name, opts)
}

// open never panics; failures come back as an invalid handle carrying the
// cause.
func (m *Manager) open(ctx context.Context, mode Mode, name string, opts Options) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	logger := m.logger.With().Str("store", name).Str("mode", mode.String()).Logger()
	done := logging.LogOperationStart(logger, "open")
	defer done()

	s, err := m.openStore(ctx, mode, name, opts, logger)
	if err != nil {
		err = classify(ctx, err)
		logger.Debug().Err(err).Msg("Open failed")
		return invalidHandle(err)
	}
	return Handle{s: s}
}

func (m *Manager) openStore(ctx context.Context, mode Mode, name string, opts Options, logger zerolog.Logger) (*Store, error) {
	loc, err := backend.ParseLocator(name)
	if err != nil {
		return nil, err
	}

	b, err := m.backendFor(ctx, loc, mode, opts, logger)
	if err != nil {
		return nil, err
	}

	kind := loc.Kind
	if _, ok := b.(*backend.Cached); ok {
		kind = backend.KindCachedRemote
	}

	h, c, err := m.prepare(ctx, b, mode, name)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	logger.Info().Str("backend", kind.String()).Str("id", h.ID).Int("entries", len(h.Entries)).Msg("Store opened")
	return newStore(storeConfig{
		name:    name,
		kind:    kind,
		mode:    mode,
		backend: b,
		codec:   c,
		types:   m.types,
		header:  h,
	}), nil
}

// prepare loads the header of an existing store, or writes the header of
// a new one.
func (m *Manager) prepare(ctx context.Context, b backend.Backend, mode Mode, name string) (header, codec.Codec, error) {
	check := b
	if c, ok := b.(*backend.Cached); ok && mode.creates() {
		// a cached copy may outlive the store it was taken from
		check = c.Origin()
	}
	exists, err := check.Exists(ctx, headerBlob)
	if err != nil {
		return header{}, nil, err
	}

	switch mode {
	case ModeRead, ModeUpdate:
		if !exists {
			return header{}, nil, errors.Newf(errors.ErrStoreNotFound, "store %s does not exist", name)
		}
		data, err := b.Retrieve(ctx, headerBlob)
		if err != nil {
			return header{}, nil, err
		}
		h, err := decodeHeader(data)
		if err != nil {
			return header{}, nil, err
		}
		c, err := codec.Lookup(h.Codec)
		if err != nil {
			return header{}, nil, err
		}
		return h, c, nil

	case ModeCreate:
		if exists {
			return header{}, nil, errors.Newf(errors.ErrStoreExists, "store %s already exists", name)
		}

	case ModeRecreate:
		// only clear what is known to be a store
		if exists {
			if err := b.Clear(ctx); err != nil {
				return header{}, nil, err
			}
		}
	}

	h := newHeader(m.codec.Name())
	data, err := h.encode(newDirectory())
	if err != nil {
		return header{}, nil, err
	}
	if err := b.Persist(ctx, headerBlob, data); err != nil {
		return header{}, nil, err
	}
	return h, m.codec, nil
}

func (m *Manager) backendFor(ctx context.Context, loc backend.Locator, mode Mode, opts Options, logger zerolog.Logger) (backend.Backend, error) {
	switch loc.Kind {
	case backend.KindLocal:
		return backend.NewLocal(m.fs, m.paths.ResolveStore(loc.Path)), nil

	case backend.KindMemory:
		return backend.NewLocal(m.memFs, loc.Path), nil

	case backend.KindSQLite:
		if _, ok := m.fs.(*afero.OsFs); !ok {
			return nil, errors.Newf(errors.ErrInvalidInput, "sqlite store %s needs the operating system filesystem", loc.Path)
		}
		b, err := backend.OpenSQLite(ctx, m.paths.ResolveStore(loc.Path), mode.creates())
		if err != nil {
			if backend.IsNotFound(err) {
				return nil, errors.Wrapf(err, errors.ErrStoreNotFound, "store %s does not exist", loc.Path)
			}
			return nil, err
		}
		return b, nil

	case backend.KindRemote:
		remote := backend.NewRemote(loc.URL, m.client)
		if !opts.CachedRead {
			return remote, nil
		}
		cached, err := m.cachedFor(ctx, remote, mode, opts)
		if err != nil {
			logger.Warn().Err(err).Str("url", loc.URL).Msg("Cached read unavailable, opening remote store directly")
			return remote, nil
		}
		return cached, nil

	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unsupported backend %s", loc.Kind)
	}
}

// cachedFor fronts remote with a cache directory. Existing stores get
// their header refreshed so a stale copy is never trusted.
func (m *Manager) cachedFor(ctx context.Context, remote *backend.Remote, mode Mode, opts Options) (backend.Backend, error) {
	dir := opts.CacheDir
	if dir == "" {
		dir = m.cacheDir
	}
	if dir == "" {
		return nil, errors.New(errors.ErrInvalidInput, "no cache directory configured")
	}

	storeDir := backend.CacheDirFor(dir, remote.URL())
	if err := m.fs.MkdirAll(storeDir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrBackendFailure, "prepare cache directory %s", storeDir)
	}

	cached := backend.NewCached(remote, backend.NewLocal(m.fs, storeDir))
	if !mode.creates() {
		if _, err := cached.Refresh(ctx, headerBlob); err != nil {
			return nil, err
		}
	}
	return cached, nil
}

func classify(ctx context.Context, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(err, errors.ErrTimeout, "open timed out")
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.Wrap(err, errors.ErrTimeout, "open was abandoned")
	}
	return err
}

var (
	defaultMu      sync.Mutex
	defaultManager *Manager
)

// Default returns the process-wide Manager, built on first use from the
// user configuration file and environment.
func Default() *Manager {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultManager == nil {
		defaultManager = newDefaultManager()
	}
	return defaultManager
}

// SetDefault replaces the process-wide Manager and returns the previous
// one, which may be nil if none was built yet.
func SetDefault(m *Manager) *Manager {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	old := defaultManager
	defaultManager = m
	return old
}

func newDefaultManager() *Manager {
	logger := logging.GetLogger("store.manager")

	var cfg *config.Config
	if p, err := paths.New(""); err == nil {
		cfg, err = config.Load(p.ConfigFile())
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to load configuration, using defaults")
			cfg = nil
		}
	}

	m, err := NewManager(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to build store manager from configuration, using defaults")
		m, err = NewManager(config.Default(), WithPaths(fallbackPaths{}))
		if err != nil {
			panic("default store manager cannot be built: " + err.Error())
		}
	}
	return m
}

// fallbackPaths resolves relative names against the process working
// directory when no store root can be determined.
type fallbackPaths struct{}

func (fallbackPaths) StoreRoot() string               { return "." }
func (fallbackPaths) ConfigDir() string               { return "" }
func (fallbackPaths) ConfigFile() string              { return "" }
func (fallbackPaths) CacheDir() string                { return paths.DefaultCacheDir() }
func (fallbackPaths) StateDir() string                { return "" }
func (fallbackPaths) ResolveStore(name string) string { return paths.ExpandHome(name) }

// Open opens an existing store for reading with the default Manager.
func Open(name string, opts Options) Handle { return Default().Open(name, opts) }

// OpenForUpdate opens an existing store for writing with the default
// Manager.
func OpenForUpdate(name string, opts Options) Handle { return Default().OpenForUpdate(name, opts) }

// Create creates a store with the default Manager.
func Create(name string, opts Options) Handle { return Default().Create(name, opts) }

// Recreate empties or creates a store with the default Manager.
func Recreate(name string, opts Options) Handle { return Default().Recreate(name, opts) }

// SetCacheDir sets the default Manager's cache directory and returns the
// previous one.
func SetCacheDir(dir string) string { return Default().SetCacheDir(dir) }

// CacheDir returns the default Manager's cache directory.
func CacheDir() string { return Default().CacheDir() }
