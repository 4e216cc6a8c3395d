package export

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/flashfusion/forge/pkg/adapter"
	"github.com/m-mizutani/goerr/v2"
)

const contentTypeZip = "application/zip"

// Sink stores a finished archive and returns where it was written
type Sink interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
}

// DirSink writes archives into a local directory
type DirSink struct {
	dir string
}

func NewDirSink(dir string) *DirSink {
	if dir == "" {
		dir = "."
	}
	return &DirSink{dir: dir}
}

func (s *DirSink) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", goerr.Wrap(err, "failed to create output directory", goerr.V("dir", s.dir))
	}

	path := filepath.Join(s.dir, filepath.Base(fileName))
	tmp, err := os.CreateTemp(s.dir, ".export-*")
	if err != nil {
		return "", goerr.Wrap(err, "failed to create temp file", goerr.V("dir", s.dir))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", goerr.Wrap(err, "failed to write archive", goerr.V("path", tmp.Name()))
	}
	if err := tmp.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to close archive", goerr.V("path", tmp.Name()))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", goerr.Wrap(err, "failed to move archive", goerr.V("path", path))
	}

	return path, nil
}

// StorageSink uploads archives to Cloud Storage
type StorageSink struct {
	storage adapter.Storage
	prefix  string
}

func NewStorageSink(storage adapter.Storage, prefix string) *StorageSink {
	return &StorageSink{storage: storage, prefix: prefix}
}

func (s *StorageSink) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	key := s.prefix + fileName
	w, err := s.storage.Put(ctx, key, contentTypeZip)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open object writer", goerr.V("key", key))
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return "", goerr.Wrap(err, "failed to upload archive", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize upload", goerr.V("key", key))
	}

	return s.storage.Location(key), nil
}

// S3Sink uploads archives to an S3-compatible bucket
type S3Sink struct {
	client adapter.S3
	prefix string
}

func NewS3Sink(client adapter.S3, prefix string) *S3Sink {
	return &S3Sink{client: client, prefix: prefix}
}

func (s *S3Sink) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	key := s.prefix + fileName
	url, err := s.client.Upload(ctx, key, contentTypeZip, data)
	if err != nil {
		return "", goerr.Wrap(err, "failed to upload archive", goerr.V("key", key))
	}
	return url, nil
}
