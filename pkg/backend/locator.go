package backend

import (
	"net/url"
	"strings"

	"github.com/arthur-debert/objstore/pkg/errors"
)

// Kind identifies a backend variant.
type Kind int

const (
	KindLocal Kind = iota
	KindMemory
	KindSQLite
	KindRemote
	KindCachedRemote
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindMemory:
		return "memory"
	case KindSQLite:
		return "sqlite"
	case KindRemote:
		return "remote"
	case KindCachedRemote:
		return "cached-remote"
	default:
		return "unknown"
	}
}

// Locator is a parsed store name.
type Locator struct {
	Kind Kind
	// Path is the filesystem path for local, memory and sqlite stores.
	// It may be relative; callers resolve it.
	Path string
	// URL is the base URL of remote stores, without a trailing slash.
	URL string
}

// ParseLocator classifies a store name.
//
//	run1, /data/run1, file:///data/run1  local directory
//	mem://run1                           in-memory directory
//	sqlite://runs/run1.db                sqlite database file
//	http(s)://host/stores/run1           remote endpoint
func ParseLocator(name string) (Locator, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Locator{}, errors.New(errors.ErrInvalidInput, "store name cannot be empty")
	}

	scheme, rest, ok := strings.Cut(name, "://")
	if !ok {
		return Locator{Kind: KindLocal, Path: name}, nil
	}

	switch strings.ToLower(scheme) {
	case "file":
		if rest == "" {
			break
		}
		return Locator{Kind: KindLocal, Path: rest}, nil
	case "mem":
		if rest == "" {
			break
		}
		return Locator{Kind: KindMemory, Path: "/" + strings.TrimPrefix(rest, "/")}, nil
	case "sqlite":
		if rest == "" {
			break
		}
		return Locator{Kind: KindSQLite, Path: rest}, nil
	case "http", "https":
		u, err := url.Parse(name)
		if err != nil || u.Host == "" {
			return Locator{}, errors.Newf(errors.ErrInvalidInput, "invalid remote store url %q", name)
		}
		u.RawQuery, u.Fragment = "", ""
		return Locator{Kind: KindRemote, URL: strings.TrimSuffix(u.String(), "/")}, nil
	default:
		return Locator{}, errors.Newf(errors.ErrInvalidInput, "unsupported store scheme %q", scheme)
	}

	return Locator{}, errors.Newf(errors.ErrInvalidInput, "store name %q has no path", name)
}
