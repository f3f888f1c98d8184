package codec

import (
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/objstore/pkg/errors"
)

// yamlCodec trades size for blobs a human can read in the store directory.
type yamlCodec struct{}

func (yamlCodec) Name() string { return YAML }

func (yamlCodec) Marshal(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodec, "yaml encode %T", v)
	}
	return data, nil
}

func (yamlCodec) Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, errors.ErrCodec, "yaml decode into %T", v)
	}
	return nil
}
