package cli

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/objstore/pkg/errors"
)

// parseValue converts a command line argument into the value put stores.
// json accepts any YAML document, which includes all JSON.
func parseValue(valueType, raw string) (any, error) {
	switch valueType {
	case "string", "":
		return raw, nil
	case "int":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, MsgErrParseValue, raw, valueType)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, MsgErrParseValue, raw, valueType)
		}
		return f, nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, MsgErrParseValue, raw, valueType)
		}
		return b, nil
	case "strings":
		if raw == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	case "json":
		var doc any
		if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, MsgErrParseValue, raw, valueType)
		}
		if doc == nil {
			return nil, errors.Newf(errors.ErrInvalidInput, MsgErrParseValue, raw, valueType)
		}
		return doc, nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, MsgErrUnknownType, valueType)
	}
}
