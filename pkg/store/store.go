package store

import (
	"context"
	"reflect"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/objstore/pkg/backend"
	"github.com/arthur-debert/objstore/pkg/codec"
	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/arthur-debert/objstore/pkg/logging"
	"github.com/arthur-debert/objstore/pkg/typeinfo"
)

// flushParallelism bounds concurrent blob uploads during Flush.
const flushParallelism = 4

// Store is an open object store. It is only reachable through a Handle
// returned by the open-family functions.
//
// Dropping the last Handle does not flush: anything written since the last
// Flush or Close is lost. Backend resources are released when the Store is
// garbage collected, or earlier through Handle.Release.
type Store struct {
	name    string
	kind    backend.Kind
	mode    Mode
	backend backend.Backend
	codec   codec.Codec
	types   *typeinfo.Registry
	logger  zerolog.Logger

	mu       sync.RWMutex
	header   header
	dir      *Directory
	closed   bool
	released bool

	// published holds the blobs the persisted header refers to, written
	// those persisted since. Flush removes whichever the new header drops.
	published map[string]struct{}
	written   map[string]struct{}
}

type storeConfig struct {
	name    string
	kind    backend.Kind
	mode    Mode
	backend backend.Backend
	codec   codec.Codec
	types   *typeinfo.Registry
	header  header
}

func newStore(cfg storeConfig) *Store {
	s := &Store{
		name:    cfg.name,
		kind:    cfg.kind,
		mode:    cfg.mode,
		backend: cfg.backend,
		codec:   cfg.codec,
		types:   cfg.types,
		header:  cfg.header,
		dir:     cfg.header.directory(cfg.types),
		written: make(map[string]struct{}),
		logger: logging.GetLogger("store").With().
			Str("store", cfg.name).
			Str("mode", cfg.mode.String()).
			Logger(),
	}

	s.published = s.liveBlobs()

	runtime.AddCleanup(s, func(b backend.Backend) {
		_ = b.Close()
	}, cfg.backend)

	return s
}

func (s *Store) checkUsable() error {
	if s.released {
		return errors.Newf(errors.ErrClosed, "store %s has been released", s.name)
	}
	return nil
}

func (s *Store) checkWritable() error {
	if err := s.checkUsable(); err != nil {
		return err
	}
	if s.closed {
		return errors.Newf(errors.ErrClosed, "store %s is closed", s.name)
	}
	if !s.mode.writable() {
		return errors.Newf(errors.ErrReadOnly, "store %s was opened read-only", s.name)
	}
	return nil
}

// read decodes a fresh copy of the entry under name as a value of type want.
func (s *Store) read(ctx context.Context, name string, want reflect.Type) (reflect.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkUsable(); err != nil {
		return reflect.Value{}, err
	}

	e, ok := s.dir.Find(name)
	if !ok {
		return reflect.Value{}, errors.Newf(errors.ErrUnknownKey, "store %s has no entry %q", s.name, name)
	}

	concrete, err := s.types.Check(e.desc, want)
	if err != nil {
		if !isEmptyInterface(want) {
			return reflect.Value{}, err
		}
		// unknown to this process; decode into generic values
		concrete = want
	}

	if !e.persisted() {
		return reflect.Value{}, errors.Newf(errors.ErrBackendFailure, "entry %q was never persisted", name)
	}

	data, err := s.fetch(ctx, e)
	if err != nil {
		return reflect.Value{}, err
	}

	ptr := reflect.New(concrete)
	if err := s.codec.Unmarshal(data, ptr.Interface()); err != nil {
		return reflect.Value{}, errors.Wrapf(err, errors.ErrCodec, "decode %q", name)
	}
	return ptr.Elem(), nil
}

func isEmptyInterface(t reflect.Type) bool {
	return t.Kind() == reflect.Interface && t.NumMethod() == 0
}

// fetch retrieves the entry's bytes and verifies them against the recorded
// checksum. A backend serving a local copy gets one chance to refresh it.
func (s *Store) fetch(ctx context.Context, e *Entry) ([]byte, error) {
	data, err := s.backend.Retrieve(ctx, e.address)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrBackendFailure, "retrieve %q", e.name)
	}
	if checksum(data) == e.checksum {
		return data, nil
	}

	if r, ok := s.backend.(backend.Refresher); ok {
		s.logger.Debug().Str("key", e.name).Msg("Cached blob is stale, refreshing")
		data, err = r.Refresh(ctx, e.address)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrBackendFailure, "refresh %q", e.name)
		}
		if checksum(data) == e.checksum {
			return data, nil
		}
	}

	return nil, errors.Newf(errors.ErrBackendFailure, "entry %q does not match its checksum", e.name).
		WithDetail("address", e.address)
}

// write encodes value and persists it under name. owned is the object the
// store co-owns afterwards, or nil.
func (s *Store) write(ctx context.Context, name string, value any, desc typeinfo.Descriptor, owned any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(); err != nil {
		return err
	}
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "key cannot be empty")
	}

	if owned != nil {
		// managed writes register before persisting so a failed persist can
		// be retried with Rewrite
		e := s.dir.Add(name, owned, desc)
		return s.persist(ctx, e, value)
	}

	data, err := s.codec.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodec, "encode %q", name)
	}
	address, sum, err := s.upload(ctx, name, data)
	if err != nil {
		return err
	}

	e := s.dir.Add(name, nil, desc)
	e.address, e.checksum = address, sum
	s.logger.Trace().Str("key", name).Str("type", desc.Name()).Int("bytes", len(data)).Msg("Wrote entry")
	return nil
}

func (s *Store) persist(ctx context.Context, e *Entry, value any) error {
	data, err := s.codec.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodec, "encode %q", e.name)
	}
	address, sum, err := s.upload(ctx, e.name, data)
	if err != nil {
		return err
	}
	e.address, e.checksum = address, sum
	s.logger.Trace().Str("key", e.name).Str("type", e.desc.Name()).Int("bytes", len(data)).Msg("Wrote entry")
	return nil
}

// upload stores one encoded value of name in its own blob.
func (s *Store) upload(ctx context.Context, name string, data []byte) (address, sum string, err error) {
	sum = checksum(data)
	address = addressFor(name, sum)
	if err := s.backend.Persist(ctx, address, data); err != nil {
		return "", "", errors.Wrapf(err, errors.ErrBackendFailure, "persist %q", name)
	}
	s.written[address] = struct{}{}
	return address, sum, nil
}

// liveBlobs returns the blobs of every persisted entry.
func (s *Store) liveBlobs() map[string]struct{} {
	live := make(map[string]struct{}, s.dir.Len())
	for _, name := range s.dir.Names() {
		if e, _ := s.dir.Find(name); e.persisted() {
			live[e.address] = struct{}{}
		}
	}
	return live
}

// collect removes blobs no entry refers to anymore. It runs after the
// header is persisted; failures only leave garbage behind.
func (s *Store) collect(ctx context.Context) {
	live := s.liveBlobs()
	for _, set := range []map[string]struct{}{s.published, s.written} {
		for address := range set {
			if _, ok := live[address]; ok {
				continue
			}
			if err := s.backend.Remove(ctx, address); err != nil {
				s.logger.Warn().Err(err).Str("blob", address).Msg("Failed to remove superseded blob")
			}
		}
	}
	s.published = live
	s.written = make(map[string]struct{})
}

// rewrite persists the current state of the object registered under name.
func (s *Store) rewrite(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(); err != nil {
		return err
	}

	e, ok := s.dir.Find(name)
	if !ok {
		return errors.Newf(errors.ErrUnknownKey, "store %s has no entry %q", s.name, name)
	}
	if e.owned == nil {
		return errors.Newf(errors.ErrInvalidInput, "entry %q is not managed by store %s; write the value again instead", name, s.name)
	}
	return s.persist(ctx, e, e.owned)
}

// flush persists every managed object and then the header. Read-only and
// closed stores have nothing to flush.
func (s *Store) flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUsable(); err != nil {
		return err
	}
	if s.closed || !s.mode.writable() {
		return nil
	}
	return s.flushLocked(ctx)
}

func (s *Store) flushLocked(ctx context.Context) error {
	done := logging.LogOperationStart(s.logger, "flush")
	defer done()

	type pending struct {
		entry   *Entry
		data    []byte
		sum     string
		address string
	}
	var uploads []pending
	for _, name := range s.dir.Names() {
		e, _ := s.dir.Find(name)
		if e.owned == nil {
			continue
		}
		data, err := s.codec.Marshal(e.owned)
		if err != nil {
			return errors.Wrapf(err, errors.ErrCodec, "encode %q", name)
		}
		sum := checksum(data)
		uploads = append(uploads, pending{entry: e, data: data, sum: sum, address: addressFor(name, sum)})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(flushParallelism)
	for _, u := range uploads {
		g.Go(func() error {
			if err := s.backend.Persist(gctx, u.address, u.data); err != nil {
				return errors.Wrapf(err, errors.ErrBackendFailure, "persist %q", u.entry.name)
			}
			return nil
		})
	}
	err := g.Wait()
	// some uploads may have landed; Remove tolerates the ones that did not
	for _, u := range uploads {
		s.written[u.address] = struct{}{}
	}
	if err != nil {
		return err
	}
	for _, u := range uploads {
		u.entry.address, u.entry.checksum = u.address, u.sum
	}

	s.header.Updated = time.Now().UTC()
	data, err := s.header.encode(s.dir)
	if err != nil {
		return err
	}
	if err := s.backend.Persist(ctx, headerBlob, data); err != nil {
		return errors.Wrap(err, errors.ErrBackendFailure, "persist store header")
	}
	s.collect(ctx)

	s.logger.Debug().Int("entries", s.dir.Len()).Int("managed", len(uploads)).Msg("Flushed store")
	return nil
}

// close flushes and makes the store non-writable. A failed flush leaves the
// store open so the caller can decide what to do.
func (s *Store) close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUsable(); err != nil {
		return err
	}
	if s.closed {
		return nil
	}
	if s.mode.writable() {
		if err := s.flushLocked(ctx); err != nil {
			return err
		}
	}
	s.closed = true
	s.logger.Debug().Msg("Closed store")
	return nil
}

// release closes the backend without flushing.
func (s *Store) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}
	s.released = true
	s.closed = true
	if err := s.backend.Close(); err != nil {
		return errors.Wrap(err, errors.ErrBackendFailure, "release backend")
	}
	return nil
}

func (s *Store) entries() []EntryInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]EntryInfo, 0, s.dir.Len())
	for _, name := range s.dir.Names() {
		e, _ := s.dir.Find(name)
		infos = append(infos, EntryInfo{
			Name:    e.name,
			Type:    e.desc.Name(),
			Address: e.address,
			Managed: e.owned != nil,
		})
	}
	return infos
}

// EntryInfo describes one entry of a store.
type EntryInfo struct {
	Name    string
	Type    string
	Address string
	Managed bool
}
