package export

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/policy"
	"github.com/flashfusion/forge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ErrPolicyDenied is returned when the export policy rejects a project
var ErrPolicyDenied = goerr.New("export denied by policy")

// Result reports the outcome of a download. Failures are carried in Error
// instead of being returned.
type Result struct {
	Success  bool   `json:"success"`
	Error    error  `json:"-"`
	FileName string `json:"file_name,omitempty"`
	Location string `json:"location,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// Exporter builds archives and hands them to a Sink
type Exporter struct {
	sink      Sink
	policy    *policy.Policy
	exporting atomic.Int32
}

type Option func(*Exporter)

// WithPolicy checks projects against p before archiving. A nil policy
// allows everything.
func WithPolicy(p *policy.Policy) Option {
	return func(x *Exporter) {
		x.policy = p
	}
}

func New(sink Sink, opts ...Option) *Exporter {
	x := &Exporter{sink: sink}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// IsExporting reports whether a download is in progress
func (x *Exporter) IsExporting() bool {
	return x.exporting.Load() > 0
}

// Download archives project and saves it to the sink
func (x *Exporter) Download(ctx context.Context, project *model.ExportableProject) *Result {
	x.exporting.Add(1)
	defer x.exporting.Add(-1)

	logger := logging.From(ctx)

	project, err := x.applyPolicy(ctx, project)
	if err != nil {
		logger.Warn("export rejected", "error", err)
		return &Result{Error: err}
	}

	archive, err := CreateArchive(project)
	if err != nil {
		logger.Warn("failed to create archive", "error", err)
		return &Result{Error: err}
	}

	location, err := x.sink.Save(ctx, archive.FileName, archive.Data)
	if err != nil {
		logger.Error("failed to save archive", "error", err, "file", archive.FileName)
		return &Result{Error: err, FileName: archive.FileName}
	}

	logger.Info("project exported",
		"file", archive.FileName, "location", location, "entries", len(archive.Entries))

	return &Result{
		Success:  true,
		FileName: archive.FileName,
		Location: location,
		Size:     len(archive.Data),
	}
}

type policyFile struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Size     int64  `json:"size"`
}

type policyInput struct {
	Project *manifest     `json:"project"`
	Files   []*policyFile `json:"files"`
}

// applyPolicy returns project without the files the policy excludes, or
// ErrPolicyDenied
func (x *Exporter) applyPolicy(ctx context.Context, project *model.ExportableProject) (*model.ExportableProject, error) {
	if x.policy == nil || project == nil {
		return project, nil
	}

	input := &policyInput{Project: newManifest(project)}
	for _, f := range project.Files {
		if f == nil {
			continue
		}
		size := f.Size
		if size == 0 {
			size = int64(len(f.Content))
		}
		input.Files = append(input.Files, &policyFile{Path: normalizePath(f.Path), Language: f.Language, Size: size})
	}

	decision, err := x.policy.Evaluate(ctx, toPolicyValue(input))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate export policy")
	}
	if decision.Denied() {
		return nil, goerr.Wrap(ErrPolicyDenied, strings.Join(decision.Deny, "; "), goerr.V("project", project.Name))
	}
	if len(decision.Exclude) == 0 {
		return project, nil
	}

	excluded := make(map[string]bool, len(decision.Exclude))
	for _, p := range decision.Exclude {
		excluded[p] = true
	}

	filtered := *project
	filtered.Files = nil
	for _, f := range project.Files {
		if f != nil && excluded[normalizePath(f.Path)] {
			logging.From(ctx).Debug("file excluded by policy", "path", f.Path)
			continue
		}
		filtered.Files = append(filtered.Files, f)
	}
	return &filtered, nil
}

// toPolicyValue converts v into plain JSON values for Rego input
func toPolicyValue(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
