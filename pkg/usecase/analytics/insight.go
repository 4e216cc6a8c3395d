package analytics

import (
	"fmt"

	"github.com/flashfusion/forge/pkg/model"
)

// MaxInsights is the number of insights shown on a dashboard
const MaxInsights = 4

type insightInput struct {
	activity  *model.RawActivity
	series    []*model.DailyActivity
	tools     []*model.ToolStat
	benchmark *model.Benchmark
}

type insightRule func(in *insightInput) *model.Insight

// insightRules are evaluated in order; the first MaxInsights matches win
var insightRules = []insightRule{
	velocityInsight,
	warningInsight,
	momentumInsight,
	opportunityInsight,
	benchmarkInsight,
}

func buildInsights(in *insightInput) []*model.Insight {
	insights := []*model.Insight{}
	for _, rule := range insightRules {
		if len(insights) >= MaxInsights {
			break
		}
		if insight := rule(in); insight != nil {
			insights = append(insights, insight)
		}
	}
	return insights
}

func velocityInsight(in *insightInput) *model.Insight {
	if in.activity.Deployments <= in.activity.Projects {
		return nil
	}
	return &model.Insight{
		Kind:  model.InsightVelocity,
		Title: "High deployment velocity",
		Message: fmt.Sprintf("%d deployments across %d projects. You ship iterations quickly.",
			in.activity.Deployments, in.activity.Projects),
	}
}

func warningInsight(in *insightInput) *model.Insight {
	if in.activity.SuccessRate >= 90 {
		return nil
	}
	return &model.Insight{
		Kind:    model.InsightWarning,
		Title:   "Success rate below target",
		Message: fmt.Sprintf("Generation success rate is %.1f%%, below the 90%% target.", in.activity.SuccessRate),
	}
}

func momentumInsight(in *insightInput) *model.Insight {
	xp := lastWeekXP(in.series)
	if xp <= 0 {
		return nil
	}
	return &model.Insight{
		Kind:    model.InsightMomentum,
		Title:   "Weekly momentum",
		Message: fmt.Sprintf("You earned %d XP over the last 7 days.", xp),
	}
}

func opportunityInsight(in *insightInput) *model.Insight {
	if len(in.tools) == 0 {
		return nil
	}
	top := in.tools[0]
	return &model.Insight{
		Kind:    model.InsightOpportunity,
		Title:   "Top tool",
		Message: fmt.Sprintf("%s is your most used tool with %d uses.", top.Name, top.Uses),
	}
}

func benchmarkInsight(in *insightInput) *model.Insight {
	if in.benchmark == nil || in.benchmark.AverageWeeklyXP <= 0 {
		return nil
	}
	xp := float64(lastWeekXP(in.series))
	diff := round1((xp - in.benchmark.AverageWeeklyXP) / in.benchmark.AverageWeeklyXP * 100)

	relation := "above"
	if diff < 0 {
		relation, diff = "below", -diff
	}
	return &model.Insight{
		Kind:    model.InsightBenchmark,
		Title:   "Community benchmark",
		Message: fmt.Sprintf("Your weekly XP is %.1f%% %s the community average.", diff, relation),
	}
}
