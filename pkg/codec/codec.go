// Package codec turns Go values into bytes and back. Stores record the
// codec name in their header so a store is always decoded with the codec
// that wrote it.
package codec

import (
	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/arthur-debert/objstore/pkg/registry"
)

// Codec serializes values. Unmarshal receives a non-nil pointer.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Names of the bundled codecs.
const (
	CBOR = "cbor"
	YAML = "yaml"
)

var codecs = registry.New[Codec]()

func init() {
	registry.MustRegister[Codec](codecs, CBOR, newCBOR())
	registry.MustRegister[Codec](codecs, YAML, yamlCodec{})
}

// Register adds a codec under its Name.
func Register(c Codec) error {
	return codecs.Register(c.Name(), c)
}

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, error) {
	c, ok := codecs.Lookup(name)
	if !ok {
		return nil, errors.Newf(errors.ErrCodec, "unknown codec %q", name).WithDetail("known", codecs.List())
	}
	return c, nil
}

// Names lists the registered codecs.
func Names() []string {
	return codecs.List()
}
