package export

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/klauspost/compress/zip"
	"github.com/m-mizutani/goerr/v2"
)

// ManifestPath is the archive entry describing the exported project
const ManifestPath = "forge-project.json"

// ErrEmptyProject is returned when a project has no files to export
var ErrEmptyProject = goerr.New("project has no files")

// Archive is a zip encoded project
type Archive struct {
	FileName string
	Comment  string
	// Entries lists the archive paths in write order
	Entries []string
	Data    []byte
}

type manifest struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Framework    string            `json:"framework,omitempty"`
	Language     string            `json:"language,omitempty"`
	Dependencies []string          `json:"dependencies"`
	Scripts      map[string]string `json:"scripts"`
	Features     []string          `json:"features"`
}

type entry struct {
	path    string
	content string
}

// CreateArchive builds a zip archive of project. Every file path is
// normalized first; files whose path normalizes to nothing are skipped and a
// later file replaces an earlier one with the same path.
func CreateArchive(project *model.ExportableProject) (*Archive, error) {
	if project == nil || len(project.Files) == 0 {
		return nil, ErrEmptyProject
	}

	var entries []*entry
	index := make(map[string]int)
	for _, f := range project.Files {
		if f == nil {
			continue
		}
		p := normalizePath(f.Path)
		if p == "" {
			continue
		}
		if i, ok := index[p]; ok {
			entries[i].content = f.Content
			continue
		}
		index[p] = len(entries)
		entries = append(entries, &entry{path: p, content: f.Content})
	}
	if len(entries) == 0 {
		return nil, goerr.Wrap(ErrEmptyProject, "no file has a usable path", goerr.V("name", project.Name))
	}

	if _, ok := index[ManifestPath]; !ok {
		data, err := json.MarshalIndent(newManifest(project), "", "  ")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode manifest")
		}
		entries = append(entries, &entry{path: ManifestPath, content: string(data)})
	}

	stem := sanitizeName(project.Name)
	archive := &Archive{
		FileName: stem + ".zip",
		Comment:  "FlashFusion export: " + stem,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := zw.SetComment(archive.Comment); err != nil {
		return nil, goerr.Wrap(err, "failed to set archive comment")
	}

	modified := time.Now()
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.path,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create archive entry", goerr.V("path", e.path))
		}
		if _, err := w.Write([]byte(e.content)); err != nil {
			return nil, goerr.Wrap(err, "failed to write archive entry", goerr.V("path", e.path))
		}
		archive.Entries = append(archive.Entries, e.path)
	}
	if err := zw.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to finalize archive")
	}

	archive.Data = buf.Bytes()
	return archive, nil
}

func newManifest(p *model.ExportableProject) *manifest {
	m := &manifest{
		Name:         p.Name,
		Description:  p.Description,
		Framework:    p.Framework,
		Language:     p.Language,
		Dependencies: p.Dependencies,
		Scripts:      p.Scripts,
		Features:     p.Features,
	}
	if m.Dependencies == nil {
		m.Dependencies = []string{}
	}
	if m.Scripts == nil {
		m.Scripts = map[string]string{}
	}
	if m.Features == nil {
		m.Features = []string{}
	}
	return m
}
