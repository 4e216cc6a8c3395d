package analytics

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/flashfusion/forge/pkg/model"
)

const (
	jitterMin = 0.92
	jitterMax = 1.08
)

var trendCycle = []model.Trend{model.TrendUp, model.TrendFlat, model.TrendDown}

// buildActivitySeries returns exactly days entries. When raw covers the range
// its most recent days are used. Otherwise the series is extended one day at
// a time from the last entry, each scaled by a random factor in
// [jitterMin, jitterMax]. Without any raw data the series starts from an
// empty day days-1 days before now.
func buildActivitySeries(raw []*model.DailyActivity, days int, now time.Time, rnd *rand.Rand) []*model.DailyActivity {
	if days <= 0 {
		return nil
	}
	if len(raw) >= days {
		return cloneDaily(raw[len(raw)-days:])
	}

	series := cloneDaily(raw)
	if len(series) == 0 {
		start := truncateDay(now).AddDate(0, 0, -(days - 1))
		series = append(series, &model.DailyActivity{Date: start})
	}

	for len(series) < days {
		prev := series[len(series)-1]
		factor := jitterMin + rnd.Float64()*(jitterMax-jitterMin)
		series = append(series, &model.DailyActivity{
			Date:        prev.Date.AddDate(0, 0, 1),
			XP:          int64(math.Round(float64(prev.XP) * factor)),
			Generations: int64(math.Round(float64(prev.Generations) * factor)),
		})
	}

	return series
}

// buildToolStats keeps the maxTools most used tools and labels their trend
// by position
func buildToolStats(raw []*model.RawToolUsage, maxTools int) []*model.ToolStat {
	sorted := make([]*model.RawToolUsage, 0, len(raw))
	for _, t := range raw {
		if t != nil {
			sorted = append(sorted, t)
		}
	}
	slices.SortStableFunc(sorted, func(a, b *model.RawToolUsage) int {
		switch {
		case a.Uses > b.Uses:
			return -1
		case a.Uses < b.Uses:
			return 1
		}
		return 0
	})
	if len(sorted) > maxTools {
		sorted = sorted[:maxTools]
	}

	stats := make([]*model.ToolStat, len(sorted))
	for i, t := range sorted {
		stats[i] = &model.ToolStat{
			Name:  t.Tool,
			Uses:  t.Uses,
			Trend: trendCycle[i%len(trendCycle)],
		}
	}
	return stats
}

// buildDeploymentStats computes the share of each target rounded to one
// decimal
func buildDeploymentStats(raw []*model.RawDeployment) []*model.DeploymentStat {
	stats := []*model.DeploymentStat{}
	if len(raw) == 0 {
		return stats
	}

	var total int64
	for _, d := range raw {
		if d != nil {
			total += d.Count
		}
	}
	total = max(total, 1)

	for _, d := range raw {
		if d == nil {
			continue
		}
		stats = append(stats, &model.DeploymentStat{
			Target:     d.Target,
			Count:      d.Count,
			Percentage: round1(float64(d.Count) / float64(total) * 100),
		})
	}
	return stats
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// lastWeekXP sums the XP of the last 7 entries of series
func lastWeekXP(series []*model.DailyActivity) int64 {
	var sum int64
	for _, d := range series[max(len(series)-7, 0):] {
		sum += d.XP
	}
	return sum
}

func cloneDaily(src []*model.DailyActivity) []*model.DailyActivity {
	dst := make([]*model.DailyActivity, 0, len(src))
	for _, d := range src {
		if d == nil {
			continue
		}
		c := *d
		dst = append(dst, &c)
	}
	return dst
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
