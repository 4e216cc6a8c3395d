package analytics

import "github.com/flashfusion/forge/pkg/model"

var (
	BuildActivitySeriesForTest  = buildActivitySeries
	BuildToolStatsForTest       = buildToolStats
	BuildDeploymentStatsForTest = buildDeploymentStats
)

func BuildInsightsForTest(activity *model.RawActivity, series []*model.DailyActivity, tools []*model.ToolStat, benchmark *model.Benchmark) []*model.Insight {
	return buildInsights(&insightInput{activity: activity, series: series, tools: tools, benchmark: benchmark})
}

func (s *Service) CacheLenForTest() int {
	return s.cache.len()
}
