package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/arthur-debert/objstore/pkg/logging"
)

// Cached serves reads from a local copy of a remote store. Misses are
// fetched from the origin once, however many goroutines ask, and kept in
// the cache. Writes go to the origin first and then to the cache, so the
// cache never holds a blob the origin rejected.
type Cached struct {
	origin Backend
	cache  Backend
	group  singleflight.Group
	logger zerolog.Logger
}

// NewCached fronts origin with cache.
func NewCached(origin, cache Backend) *Cached {
	return &Cached{
		origin: origin,
		cache:  cache,
		logger: logging.GetLogger("backend.cached"),
	}
}

// CacheDirFor returns the directory under cacheDir used for the store at
// remoteURL.
func CacheDirFor(cacheDir, remoteURL string) string {
	sum := sha256.Sum256([]byte(remoteURL))
	return filepath.Join(cacheDir, hex.EncodeToString(sum[:8]))
}

// Origin returns the backend the cache fronts.
func (c *Cached) Origin() Backend { return c.origin }

func (c *Cached) Persist(ctx context.Context, name string, data []byte) error {
	if err := c.origin.Persist(ctx, name, data); err != nil {
		return err
	}
	if err := c.cache.Persist(ctx, name, data); err != nil {
		// the origin has the data; drop the stale copy instead
		c.logger.Warn().Err(err).Str("blob", name).Msg("Failed to update cache, evicting")
		_ = c.cache.Remove(ctx, name)
	}
	return nil
}

func (c *Cached) Retrieve(ctx context.Context, name string) ([]byte, error) {
	data, err := c.cache.Retrieve(ctx, name)
	if err == nil {
		return data, nil
	}
	if !IsNotFound(err) {
		c.logger.Warn().Err(err).Str("blob", name).Msg("Cache read failed, using origin")
	}
	return c.Refresh(ctx, name)
}

// Refresh fetches name from the origin and replaces the cached copy.
func (c *Cached) Refresh(ctx context.Context, name string) ([]byte, error) {
	v, err, _ := c.group.Do(name, func() (interface{}, error) {
		data, err := c.origin.Retrieve(ctx, name)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Persist(ctx, name, data); err != nil {
			c.logger.Warn().Err(err).Str("blob", name).Msg("Failed to populate cache")
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	// singleflight shares the slice between callers
	data := v.([]byte)
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (c *Cached) Exists(ctx context.Context, name string) (bool, error) {
	if ok, err := c.cache.Exists(ctx, name); err == nil && ok {
		return true, nil
	}
	return c.origin.Exists(ctx, name)
}

func (c *Cached) Remove(ctx context.Context, name string) error {
	if err := c.origin.Remove(ctx, name); err != nil {
		return err
	}
	return c.cache.Remove(ctx, name)
}

func (c *Cached) Clear(ctx context.Context) error {
	if err := c.origin.Clear(ctx); err != nil {
		return err
	}
	return c.cache.Clear(ctx)
}

func (c *Cached) Close() error {
	err := c.origin.Close()
	if cerr := c.cache.Close(); err == nil {
		err = cerr
	}
	return err
}

var (
	_ Backend   = (*Cached)(nil)
	_ Refresher = (*Cached)(nil)
)
