package repository

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// File stores each key as one file in a directory
type File struct {
	dir   string
	quota int64
}

// FileOption configures File
type FileOption func(*File)

// WithFileQuota limits the total size of all values in the directory
func WithFileQuota(bytes int64) FileOption {
	return func(f *File) {
		f.quota = bytes
	}
}

// NewFile creates a file-backed store rooted at dir, creating it if needed
func NewFile(dir string, opts ...FileOption) (*File, error) {
	if dir == "" {
		return nil, goerr.New("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, goerr.Wrap(err, "failed to create store directory", goerr.V("dir", dir))
	}

	f := &File{dir: dir}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, goerr.Wrap(ErrKeyNotFound, "file get", goerr.V("key", key))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read value", goerr.V("key", key))
	}
	return data, nil
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	if f.quota > 0 {
		used, err := f.usage(key)
		if err != nil {
			return err
		}
		if used+int64(len(value)) > f.quota {
			return goerr.Wrap(ErrQuotaExceeded, "file set",
				goerr.V("key", key), goerr.V("size", used+int64(len(value))), goerr.V("quota", f.quota))
		}
	}

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V("key", key))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return goerr.Wrap(err, "failed to write value", goerr.V("key", key))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temp file", goerr.V("key", key))
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return goerr.Wrap(err, "failed to replace value", goerr.V("key", key))
	}
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to delete value", goerr.V("key", key))
	}
	return nil
}

// usage returns the bytes used by every key except skip
func (f *File) usage(skip string) (int64, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list store directory", goerr.V("dir", f.dir))
	}

	skipName := filepath.Base(f.path(skip))
	var total int64
	for _, e := range entries {
		if e.IsDir() || e.Name() == skipName || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}
