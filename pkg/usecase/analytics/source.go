package analytics

import (
	"context"

	"github.com/flashfusion/forge/pkg/model"
)

// Source provides raw analytics inputs for a subject. days is the length of
// the requested range.
type Source interface {
	Activity(ctx context.Context, subjectID string, days int) (*model.RawActivity, error)
	ToolUsage(ctx context.Context, subjectID string, days int) ([]*model.RawToolUsage, error)
	Deployments(ctx context.Context, subjectID string, days int) ([]*model.RawDeployment, error)
	// Benchmark returns nil without error when no benchmark is available
	Benchmark(ctx context.Context) (*model.Benchmark, error)
}
