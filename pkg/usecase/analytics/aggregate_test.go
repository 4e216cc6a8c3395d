package analytics_test

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/usecase/analytics"
	"github.com/m-mizutani/gt"
)

var baseDay = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func daily(xps ...int64) []*model.DailyActivity {
	out := make([]*model.DailyActivity, len(xps))
	for i, xp := range xps {
		out[i] = &model.DailyActivity{Date: baseDay.AddDate(0, 0, i), XP: xp, Generations: xp / 10}
	}
	return out
}

func TestBuildActivitySeriesExtrapolates(t *testing.T) {
	raw := daily(100, 120, 110)
	rnd := rand.New(rand.NewPCG(1, 2))

	series := analytics.BuildActivitySeriesForTest(raw, 7, baseDay, rnd)
	gt.A(t, series).Length(7)

	for i := 0; i < 3; i++ {
		gt.Equal(t, series[i].XP, raw[i].XP)
		gt.True(t, series[i].Date.Equal(raw[i].Date))
	}
	for i := 3; i < 7; i++ {
		prev, cur := series[i-1], series[i]
		gt.True(t, cur.Date.Equal(prev.Date.AddDate(0, 0, 1)))
		lo := int64(math.Round(float64(prev.XP) * 0.92))
		hi := int64(math.Round(float64(prev.XP) * 1.08))
		gt.N(t, cur.XP).GreaterOrEqual(lo)
		gt.N(t, cur.XP).LessOrEqual(hi)
	}

	t.Run("raw input is not modified", func(t *testing.T) {
		gt.A(t, raw).Length(3)
		series[0].XP = -1
		gt.Equal(t, raw[0].XP, int64(100))
	})
}

func TestBuildActivitySeriesSlicesRecentDays(t *testing.T) {
	raw := daily(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	series := analytics.BuildActivitySeriesForTest(raw, 7, baseDay, rand.New(rand.NewPCG(1, 1)))
	gt.A(t, series).Length(7)
	gt.Equal(t, series[0].XP, int64(4))
	gt.Equal(t, series[6].XP, int64(10))
}

func TestBuildActivitySeriesEmpty(t *testing.T) {
	now := time.Date(2026, 5, 10, 15, 30, 0, 0, time.UTC)
	series := analytics.BuildActivitySeriesForTest(nil, 7, now, rand.New(rand.NewPCG(1, 1)))
	gt.A(t, series).Length(7)
	gt.True(t, series[0].Date.Equal(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)))
	gt.True(t, series[6].Date.Equal(time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)))
	for _, d := range series {
		gt.Equal(t, d.XP, int64(0))
	}
}

func TestBuildToolStats(t *testing.T) {
	raw := []*model.RawToolUsage{
		{Tool: "a", Uses: 5},
		{Tool: "b", Uses: 20},
		{Tool: "c", Uses: 5},
		{Tool: "d", Uses: 10},
		{Tool: "e", Uses: 1},
	}

	stats := analytics.BuildToolStatsForTest(raw, 4)
	gt.A(t, stats).Length(4)

	names := make([]string, len(stats))
	for i, s := range stats {
		names[i] = s.Name
	}
	gt.Equal(t, names, []string{"b", "d", "a", "c"})
	gt.Equal(t, stats[0].Trend, model.TrendUp)
	gt.Equal(t, stats[1].Trend, model.TrendFlat)
	gt.Equal(t, stats[2].Trend, model.TrendDown)
	gt.Equal(t, stats[3].Trend, model.TrendUp)

	// input order is untouched
	gt.Equal(t, raw[0].Tool, "a")
}

func TestBuildDeploymentStats(t *testing.T) {
	stats := analytics.BuildDeploymentStatsForTest([]*model.RawDeployment{
		{Target: "vercel", Count: 1},
		{Target: "netlify", Count: 1},
		{Target: "aws", Count: 1},
	})
	gt.A(t, stats).Length(3)
	for _, s := range stats {
		gt.Equal(t, s.Percentage, 33.3)
	}

	stats = analytics.BuildDeploymentStatsForTest([]*model.RawDeployment{
		{Target: "vercel", Count: 3},
		{Target: "aws", Count: 5},
	})
	gt.Equal(t, stats[0].Percentage, 37.5)
	gt.Equal(t, stats[1].Percentage, 62.5)

	empty := analytics.BuildDeploymentStatsForTest(nil)
	gt.V(t, empty).NotNil()
	gt.A(t, empty).Length(0)
}

func insightKinds(insights []*model.Insight) []model.InsightKind {
	kinds := make([]model.InsightKind, len(insights))
	for i, in := range insights {
		kinds[i] = in.Kind
	}
	return kinds
}

func TestBuildInsights(t *testing.T) {
	tools := []*model.ToolStat{{Name: "Brand Kit", Uses: 30, Trend: model.TrendUp}}
	bench := &model.Benchmark{AverageWeeklyXP: 500}
	series := daily(100, 100, 100, 100, 100, 100, 100)

	t.Run("at most four in rule order", func(t *testing.T) {
		activity := &model.RawActivity{Projects: 2, Deployments: 5, SuccessRate: 80}
		insights := analytics.BuildInsightsForTest(activity, series, tools, bench)
		gt.Equal(t, insightKinds(insights), []model.InsightKind{
			model.InsightVelocity, model.InsightWarning, model.InsightMomentum, model.InsightOpportunity,
		})
	})

	t.Run("benchmark fills a free slot", func(t *testing.T) {
		activity := &model.RawActivity{Projects: 5, Deployments: 2, SuccessRate: 95}
		insights := analytics.BuildInsightsForTest(activity, series, tools, bench)
		gt.Equal(t, insightKinds(insights), []model.InsightKind{
			model.InsightMomentum, model.InsightOpportunity, model.InsightBenchmark,
		})
		gt.S(t, insights[2].Message).Contains("40.0% above")
	})

	t.Run("missing benchmark only drops benchmark", func(t *testing.T) {
		activity := &model.RawActivity{Projects: 5, Deployments: 2, SuccessRate: 95}
		insights := analytics.BuildInsightsForTest(activity, series, tools, nil)
		gt.Equal(t, insightKinds(insights), []model.InsightKind{
			model.InsightMomentum, model.InsightOpportunity,
		})
	})

	t.Run("no activity and no tools", func(t *testing.T) {
		activity := &model.RawActivity{SuccessRate: 100}
		insights := analytics.BuildInsightsForTest(activity, daily(0, 0), nil, nil)
		gt.A(t, insights).Length(0)
	})
}

func TestCalculateCampaignROI(t *testing.T) {
	res := analytics.CalculateCampaignROI(analytics.Campaign{Reach: 10000, Engagement: 5, Budget: 1000})
	gt.Equal(t, res.Revenue, 2500.0)
	gt.Equal(t, res.Profit, 1500.0)
	gt.Equal(t, res.ROI, 150.0)

	zero := analytics.CalculateCampaignROI(analytics.Campaign{Reach: 100, Engagement: 10})
	gt.Equal(t, zero.ROI, 0.0)
	gt.Equal(t, zero.Profit, 50.0)
}
