package analytics

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/flashfusion/forge/pkg/model"
)

var (
	sampleTools   = []string{"AI App Generator", "Content Studio", "Brand Kit", "Code Assistant", "Deploy Hub", "SEO Optimizer", "Image Studio"}
	sampleTargets = []string{"Vercel", "Netlify", "AWS", "Cloud Run"}
)

// SampleSource produces plausible analytics data without a backend. The same
// subject always yields the same data.
type SampleSource struct {
	historyDays int
	now         func() time.Time
}

type SampleOption func(*SampleSource)

// WithHistoryDays limits how many days of activity are available. Ranges
// longer than this are extrapolated by the Service.
func WithHistoryDays(days int) SampleOption {
	return func(s *SampleSource) {
		s.historyDays = days
	}
}

func WithSampleClock(now func() time.Time) SampleOption {
	return func(s *SampleSource) {
		s.now = now
	}
}

func NewSampleSource(opts ...SampleOption) *SampleSource {
	s := &SampleSource{historyDays: 30, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SampleSource) rand(subjectID, salt string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(subjectID))
	h.Write([]byte(salt))
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed>>1))
}

func (s *SampleSource) Activity(ctx context.Context, subjectID string, days int) (*model.RawActivity, error) {
	rnd := s.rand(subjectID, "activity")
	n := min(days, s.historyDays)
	today := truncateDay(s.now())

	activity := &model.RawActivity{
		SubjectID:   subjectID,
		Projects:    int64(5 + rnd.IntN(20)),
		Deployments: int64(3 + rnd.IntN(30)),
		SuccessRate: round1(82 + rnd.Float64()*17),
	}
	for i := n - 1; i >= 0; i-- {
		activity.Daily = append(activity.Daily, &model.DailyActivity{
			Date:        today.AddDate(0, 0, -i),
			XP:          int64(50 + rnd.IntN(250)),
			Generations: int64(1 + rnd.IntN(12)),
		})
	}
	return activity, nil
}

func (s *SampleSource) ToolUsage(ctx context.Context, subjectID string, days int) ([]*model.RawToolUsage, error) {
	rnd := s.rand(subjectID, "tools")
	usage := make([]*model.RawToolUsage, len(sampleTools))
	for i, tool := range sampleTools {
		usage[i] = &model.RawToolUsage{Tool: tool, Uses: int64(rnd.IntN(days*4) + 1)}
	}
	return usage, nil
}

func (s *SampleSource) Deployments(ctx context.Context, subjectID string, days int) ([]*model.RawDeployment, error) {
	rnd := s.rand(subjectID, "deployments")
	deployments := make([]*model.RawDeployment, len(sampleTargets))
	for i, target := range sampleTargets {
		deployments[i] = &model.RawDeployment{Target: target, Count: int64(rnd.IntN(days) + 1)}
	}
	return deployments, nil
}

func (s *SampleSource) Benchmark(ctx context.Context) (*model.Benchmark, error) {
	return &model.Benchmark{AverageWeeklyXP: 1200}, nil
}
