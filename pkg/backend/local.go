package backend

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// Local keeps each blob as a file under a root directory.
type Local struct {
	fs   afero.Fs
	root string
}

// NewLocal returns a backend rooted at dir on fs. Nothing is created until
// the first Persist.
func NewLocal(fs afero.Fs, dir string) *Local {
	return &Local{fs: fs, root: filepath.Clean(dir)}
}

// NewOSLocal is NewLocal on the operating system filesystem.
func NewOSLocal(dir string) *Local {
	return NewLocal(afero.NewOsFs(), dir)
}

// Root returns the directory blobs are stored under.
func (l *Local) Root() string { return l.root }

func (l *Local) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(name)), nil
}

// Persist writes to a temp file in the target directory and renames it
// over the destination, so readers never observe a partial blob.
func (l *Local) Persist(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := l.path(name)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := l.fs.MkdirAll(dir, 0755); err != nil {
		return failure(err, "mkdir", dir)
	}

	tmp, err := afero.TempFile(l.fs, dir, "."+path.Base(name)+".tmp-*")
	if err != nil {
		return failure(err, "create temp for", name)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = l.fs.Remove(tmpName)
		return failure(err, "write", name)
	}
	if err := tmp.Close(); err != nil {
		_ = l.fs.Remove(tmpName)
		return failure(err, "close", name)
	}
	if err := l.fs.Rename(tmpName, p); err != nil {
		_ = l.fs.Remove(tmpName)
		return failure(err, "rename", name)
	}
	return nil
}

func (l *Local) Retrieve(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := l.path(name)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(l.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(name)
		}
		return nil, failure(err, "read", name)
	}
	return data, nil
}

func (l *Local) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := l.path(name)
	if err != nil {
		return false, err
	}

	info, err := l.fs.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, failure(err, "stat", name)
	}
	return !info.IsDir(), nil
}

func (l *Local) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := l.path(name)
	if err != nil {
		return err
	}

	if err := l.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return failure(err, "remove", name)
	}
	return nil
}

// Clear removes the root directory and everything below it.
func (l *Local) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.fs.RemoveAll(l.root); err != nil {
		return failure(err, "clear", l.root)
	}
	return nil
}

func (l *Local) Close() error { return nil }

var _ Backend = (*Local)(nil)
