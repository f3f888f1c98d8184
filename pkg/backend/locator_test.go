package backend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/objstore/pkg/backend"
	"github.com/arthur-debert/objstore/pkg/errors"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    backend.Locator
		wantErr errors.ErrorCode
	}{
		{name: "plain", input: "run1", want: backend.Locator{Kind: backend.KindLocal, Path: "run1"}},
		{name: "absolute", input: "/data/run1", want: backend.Locator{Kind: backend.KindLocal, Path: "/data/run1"}},
		{name: "file url", input: "file:///data/run1", want: backend.Locator{Kind: backend.KindLocal, Path: "/data/run1"}},
		{name: "memory", input: "mem://run1", want: backend.Locator{Kind: backend.KindMemory, Path: "/run1"}},
		{name: "sqlite", input: "sqlite://runs/run1.db", want: backend.Locator{Kind: backend.KindSQLite, Path: "runs/run1.db"}},
		{name: "http", input: "http://host:8080/stores/run1/", want: backend.Locator{Kind: backend.KindRemote, URL: "http://host:8080/stores/run1"}},
		{name: "https drops query", input: "https://host/run1?x=1", want: backend.Locator{Kind: backend.KindRemote, URL: "https://host/run1"}},
		{name: "empty", input: "  ", wantErr: errors.ErrInvalidInput},
		{name: "unknown scheme", input: "s3://bucket/run1", wantErr: errors.ErrInvalidInput},
		{name: "no path", input: "mem://", wantErr: errors.ErrInvalidInput},
		{name: "no host", input: "http:///run1", wantErr: errors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := backend.ParseLocator(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "local", backend.KindLocal.String())
	assert.Equal(t, "cached-remote", backend.KindCachedRemote.String())
	assert.Equal(t, "unknown", backend.Kind(99).String())
}

func TestValidateName(t *testing.T) {
	valid := []string{"_header.toml", "objects/count", "objects/a%2Fb"}
	for _, name := range valid {
		assert.NoError(t, backend.ValidateName(name), name)
	}

	invalid := []string{"", "/abs", "../up", "a/../../b", "a//b", "a/./b", ".", `a\b`}
	for _, name := range invalid {
		assert.Error(t, backend.ValidateName(name), name)
	}
}
