package export_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/policy"
	"github.com/flashfusion/forge/pkg/usecase/export"
	"github.com/klauspost/compress/zip"
	"github.com/m-mizutani/gt"
)

type mockSink struct {
	saveFn func(ctx context.Context, fileName string, data []byte) (string, error)
}

func (m *mockSink) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	return m.saveFn(ctx, fileName, data)
}

func sampleProject() *model.ExportableProject {
	return &model.ExportableProject{
		Name:  "demo app",
		Files: []*model.ProjectFile{{Path: "main.go", Content: "package main"}},
	}
}

func TestExporterDownload(t *testing.T) {
	dir := t.TempDir()
	x := export.New(export.NewDirSink(dir))

	res := x.Download(context.Background(), sampleProject())
	gt.True(t, res.Success)
	gt.NoError(t, res.Error)
	gt.Equal(t, res.FileName, "demo-app.zip")
	gt.Equal(t, res.Location, filepath.Join(dir, "demo-app.zip"))

	info, err := os.Stat(res.Location)
	gt.NoError(t, err)
	gt.Equal(t, int(info.Size()), res.Size)
	gt.False(t, x.IsExporting())
}

func TestExporterDownloadEmptyProject(t *testing.T) {
	called := false
	x := export.New(&mockSink{saveFn: func(ctx context.Context, fileName string, data []byte) (string, error) {
		called = true
		return "", nil
	}})

	res := x.Download(context.Background(), &model.ExportableProject{Name: "empty"})
	gt.False(t, res.Success)
	gt.True(t, errors.Is(res.Error, export.ErrEmptyProject))
	gt.False(t, called)
}

func TestExporterDownloadSinkFailure(t *testing.T) {
	boom := errors.New("disk full")
	x := export.New(&mockSink{saveFn: func(ctx context.Context, fileName string, data []byte) (string, error) {
		return "", boom
	}})

	res := x.Download(context.Background(), sampleProject())
	gt.False(t, res.Success)
	gt.True(t, errors.Is(res.Error, boom))
	gt.Equal(t, res.FileName, "demo-app.zip")
}

func TestExporterIsExporting(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	x := export.New(&mockSink{saveFn: func(ctx context.Context, fileName string, data []byte) (string, error) {
		close(entered)
		<-release
		return "mem://" + fileName, nil
	}})

	done := make(chan *export.Result)
	go func() { done <- x.Download(context.Background(), sampleProject()) }()

	<-entered
	gt.True(t, x.IsExporting())
	close(release)

	res := <-done
	gt.True(t, res.Success)
	gt.False(t, x.IsExporting())
}

type mockStorage struct {
	buf bytes.Buffer
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (m *mockStorage) Put(ctx context.Context, key, contentType string) (io.WriteCloser, error) {
	return nopCloser{&m.buf}, nil
}

func (m *mockStorage) Location(key string) string {
	return "gs://bucket/" + key
}

type mockS3 struct {
	key  string
	body []byte
}

func (m *mockS3) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	m.key, m.body = key, body
	return "https://s3.example.com/bucket/" + key, nil
}

func TestRemoteSinks(t *testing.T) {
	ctx := context.Background()
	data := []byte("zipdata")

	t.Run("storage", func(t *testing.T) {
		st := &mockStorage{}
		loc, err := export.NewStorageSink(st, "exports/").Save(ctx, "a.zip", data)
		gt.NoError(t, err)
		gt.Equal(t, loc, "gs://bucket/exports/a.zip")
		gt.Equal(t, st.buf.Bytes(), data)
	})

	t.Run("s3", func(t *testing.T) {
		s3 := &mockS3{}
		loc, err := export.NewS3Sink(s3, "exports/").Save(ctx, "a.zip", data)
		gt.NoError(t, err)
		gt.Equal(t, loc, "https://s3.example.com/bucket/exports/a.zip")
		gt.Equal(t, s3.key, "exports/a.zip")
		gt.Equal(t, s3.body, data)
	})
}

func TestExporterPolicy(t *testing.T) {
	ctx := context.Background()
	p, err := policy.New(ctx, "export", map[string]string{
		"export.rego": `package export

deny contains "secrets must not be exported" if {
	some f in input.files
	f.path == ".env"
}

exclude contains f.path if {
	some f in input.files
	endswith(f.path, ".log")
}
`,
	})
	gt.NoError(t, err)

	var saved []byte
	sink := &mockSink{saveFn: func(ctx context.Context, fileName string, data []byte) (string, error) {
		saved = data
		return "mem://" + fileName, nil
	}}
	x := export.New(sink, export.WithPolicy(p))

	t.Run("excluded files are left out", func(t *testing.T) {
		res := x.Download(ctx, &model.ExportableProject{
			Name: "app",
			Files: []*model.ProjectFile{
				{Path: "main.go", Content: "package main"},
				{Path: "/logs/debug.log", Content: "noise"},
			},
		})
		gt.True(t, res.Success)

		zr, err := zip.NewReader(bytes.NewReader(saved), int64(len(saved)))
		gt.NoError(t, err)
		names := map[string]bool{}
		for _, f := range zr.File {
			names[f.Name] = true
		}
		gt.True(t, names["main.go"])
		gt.False(t, names["logs/debug.log"])
	})

	t.Run("denied project is not exported", func(t *testing.T) {
		saved = nil
		res := x.Download(ctx, &model.ExportableProject{
			Name:  "app",
			Files: []*model.ProjectFile{{Path: ".env", Content: "TOKEN=x"}},
		})
		gt.False(t, res.Success)
		gt.True(t, errors.Is(res.Error, export.ErrPolicyDenied))
		gt.V(t, saved).Nil()
	})

	t.Run("excluding every file empties the project", func(t *testing.T) {
		res := x.Download(ctx, &model.ExportableProject{
			Name:  "app",
			Files: []*model.ProjectFile{{Path: "only.log", Content: "x"}},
		})
		gt.False(t, res.Success)
		gt.True(t, errors.Is(res.Error, export.ErrEmptyProject))
	})
}
