package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/arthur-debert/objstore/pkg/errors"
)

// cborCodec uses deterministic encoding so identical values always produce
// identical blobs.
type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBOR() cborCodec {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return cborCodec{enc: enc, dec: dec}
}

func (cborCodec) Name() string { return CBOR }

func (c cborCodec) Marshal(v any) ([]byte, error) {
	data, err := c.enc.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodec, "cbor encode %T", v)
	}
	return data, nil
}

func (c cborCodec) Unmarshal(data []byte, v any) error {
	if err := c.dec.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, errors.ErrCodec, "cbor decode into %T", v)
	}
	return nil
}
