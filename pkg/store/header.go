package store

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/objstore/pkg/backend"
	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/arthur-debert/objstore/pkg/typeinfo"
)

const (
	// headerBlob holds the store metadata and directory index.
	headerBlob = "_header.toml"

	formatVersion = 1
)

type header struct {
	Format  int           `toml:"format"`
	ID      string        `toml:"id"`
	Created time.Time     `toml:"created"`
	Updated time.Time     `toml:"updated"`
	Codec   string        `toml:"codec"`
	Entries []headerEntry `toml:"entry"`
}

type headerEntry struct {
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	Address  string `toml:"address"`
	Checksum string `toml:"checksum"`
}

func newHeader(codecName string) header {
	now := time.Now().UTC()
	return header{
		Format:  formatVersion,
		ID:      uuid.NewString(),
		Created: now,
		Updated: now,
		Codec:   codecName,
	}
}

func decodeHeader(data []byte) (header, error) {
	var h header
	if err := toml.Unmarshal(data, &h); err != nil {
		return h, errors.Wrap(err, errors.ErrCodec, "decode store header")
	}
	if h.Format != formatVersion {
		return h, errors.Newf(errors.ErrCodec, "unsupported store format %d", h.Format)
	}
	for _, e := range h.Entries {
		if e.Name == "" || backend.ValidateName(e.Address) != nil {
			return h, errors.Newf(errors.ErrCodec, "store header has a malformed entry %q", e.Name)
		}
	}
	return h, nil
}

func (h header) encode(dir *Directory) ([]byte, error) {
	h.Entries = make([]headerEntry, 0, dir.Len())
	for _, name := range dir.Names() {
		e, _ := dir.Find(name)
		if !e.persisted() {
			continue
		}
		h.Entries = append(h.Entries, headerEntry{
			Name:     e.name,
			Type:     e.desc.Name(),
			Address:  e.address,
			Checksum: e.checksum,
		})
	}
	data, err := toml.Marshal(h)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodec, "encode store header")
	}
	return data, nil
}

func (h header) directory(types *typeinfo.Registry) *Directory {
	dir := newDirectory()
	for _, e := range h.Entries {
		dir.restore(e.Name, types.Resolve(e.Type), e.Address, e.Checksum)
	}
	return dir
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
