package analytics

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/utils/idgen"
	"github.com/flashfusion/forge/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// FetchOptions tunes a single Fetch call
type FetchOptions struct {
	// TimeRange overrides the configured range when not empty
	TimeRange string
	// UseCache defaults to true when nil
	UseCache *bool
}

type Metadata struct {
	RequestID        string `json:"requestId"`
	FetchedAt        string `json:"fetchedAt"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	Cached           bool   `json:"cached"`
}

type Response struct {
	Data     *model.Dashboard `json:"data"`
	Metadata Metadata         `json:"metadata"`
}

// Service builds analytics dashboards and caches them per subject and range
type Service struct {
	source Source
	cfg    Config
	cache  *cache
	ttl    time.Duration
	now    func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type Option func(*Service)

// WithClock overrides the time source for cache validity and series dates
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithRand sets the random source used to extrapolate activity
func WithRand(rnd *rand.Rand) Option {
	return func(s *Service) {
		s.rnd = rnd
	}
}

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// New validates cfg and creates a Service
func New(source Source, cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		source: source,
		cfg:    cfg,
		cache:  newCache(),
		ttl:    DefaultTTL,
		now:    time.Now,
		rnd:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Config() Config {
	return s.cfg
}

// ClearCache drops every cached dashboard
func (s *Service) ClearCache() {
	s.cache.clear()
}

// Fetch returns the dashboard of subjectID. A live cached dashboard is
// returned without touching the source unless caching is disabled.
func (s *Service) Fetch(ctx context.Context, subjectID string, opts FetchOptions) (*Response, error) {
	start := s.now()

	if strings.TrimSpace(subjectID) == "" {
		return nil, newError(CodeInvalidSubject, "subject ID is required", nil)
	}
	timeRange := opts.TimeRange
	if timeRange == "" {
		timeRange = s.cfg.TimeRange
	}
	days, ok := RangeDays(timeRange)
	if !ok {
		return nil, newError(CodeInvalidTimeRange, fmt.Sprintf("unknown time range %q", timeRange), nil)
	}

	useCache := opts.UseCache == nil || *opts.UseCache
	key := cacheKey(subjectID, timeRange)
	logger := logging.From(ctx).With("subject", subjectID, "range", timeRange)

	if useCache {
		if data, ok := s.cache.get(key, start); ok {
			logger.Debug("analytics cache hit")
			return s.respond(data, start, true), nil
		}
	}

	in, err := s.fetchRaw(ctx, subjectID, days)
	if err != nil {
		return nil, err
	}

	data, err := s.build(subjectID, timeRange, days, in, start)
	if err != nil {
		return nil, err
	}

	s.cache.set(key, data, s.now(), s.ttl)
	logger.Debug("analytics dashboard built", "tools", len(data.Tools), "insights", len(data.Insights))

	return s.respond(data, start, false), nil
}

type rawInputs struct {
	activity    *model.RawActivity
	tools       []*model.RawToolUsage
	deployments []*model.RawDeployment
	benchmark   *model.Benchmark
}

// fetchRaw reads all inputs concurrently. A failing benchmark is logged and
// treated as missing.
func (s *Service) fetchRaw(ctx context.Context, subjectID string, days int) (*rawInputs, error) {
	var in rawInputs
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		v, err := s.source.Activity(egCtx, subjectID, days)
		in.activity = v
		return err
	})
	eg.Go(func() error {
		v, err := s.source.ToolUsage(egCtx, subjectID, days)
		in.tools = v
		return err
	})
	eg.Go(func() error {
		v, err := s.source.Deployments(egCtx, subjectID, days)
		in.deployments = v
		return err
	})
	eg.Go(func() error {
		v, err := s.source.Benchmark(egCtx)
		if err != nil {
			logging.From(ctx).Warn("benchmark unavailable", "error", err)
			return nil
		}
		in.benchmark = v
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, newError(CodeFetchFailed, "failed to fetch analytics data", err)
	}
	return &in, nil
}

// build turns raw inputs into a dashboard. Panics are reported as
// aggregation failures.
func (s *Service) build(subjectID, timeRange string, days int, in *rawInputs, now time.Time) (data *model.Dashboard, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = newError(CodeAggregationFailed, "failed to build dashboard", fmt.Errorf("panic: %v", r))
		}
	}()

	if in.activity == nil {
		return nil, newError(CodeAggregationFailed, "activity data is missing", nil)
	}
	if in.activity.SuccessRate < 0 || in.activity.SuccessRate > 100 {
		return nil, newError(CodeAggregationFailed,
			fmt.Sprintf("success rate %.1f is out of range", in.activity.SuccessRate), nil)
	}

	s.rndMu.Lock()
	series := buildActivitySeries(in.activity.Daily, days, now, s.rnd)
	s.rndMu.Unlock()

	tools := buildToolStats(in.tools, s.cfg.MaxTools)

	var totalXP int64
	for _, d := range series {
		totalXP += d.XP
	}

	return &model.Dashboard{
		SubjectID: subjectID,
		TimeRange: timeRange,
		Summary: model.DashboardSummary{
			TotalXP:     totalXP,
			Projects:    in.activity.Projects,
			Deployments: in.activity.Deployments,
			SuccessRate: in.activity.SuccessRate,
		},
		Activity:    series,
		Tools:       tools,
		Deployments: buildDeploymentStats(in.deployments),
		Insights: buildInsights(&insightInput{
			activity:  in.activity,
			series:    series,
			tools:     tools,
			benchmark: in.benchmark,
		}),
	}, nil
}

func (s *Service) respond(data *model.Dashboard, start time.Time, cached bool) *Response {
	now := s.now()
	return &Response{
		Data: data,
		Metadata: Metadata{
			RequestID:        idgen.New("req"),
			FetchedAt:        now.UTC().Format(time.RFC3339),
			ProcessingTimeMs: now.Sub(start).Milliseconds(),
			Cached:           cached,
		},
	}
}
