package model

import "time"

// DailyActivity is one day of user activity
type DailyActivity struct {
	Date        time.Time `json:"date"`
	XP          int64     `json:"xp"`
	Generations int64     `json:"generations"`
}

// RawActivity is the unaggregated activity of a subject as returned by a
// data source. Daily is ordered oldest first.
type RawActivity struct {
	SubjectID   string           `json:"subjectId"`
	Projects    int64            `json:"projects"`
	Deployments int64            `json:"deployments"`
	SuccessRate float64          `json:"successRate"`
	Daily       []*DailyActivity `json:"daily"`
}

type RawToolUsage struct {
	Tool string `json:"tool"`
	Uses int64  `json:"uses"`
}

type RawDeployment struct {
	Target string `json:"target"`
	Count  int64  `json:"count"`
}

// Benchmark is the global reference used for comparison insights
type Benchmark struct {
	AverageWeeklyXP float64 `json:"averageWeeklyXp"`
}

type Trend string

const (
	TrendUp   Trend = "up"
	TrendFlat Trend = "flat"
	TrendDown Trend = "down"
)

type ToolStat struct {
	Name  string `json:"name"`
	Uses  int64  `json:"uses"`
	Trend Trend  `json:"trend"`
}

type DeploymentStat struct {
	Target     string  `json:"target"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type InsightKind string

const (
	InsightVelocity    InsightKind = "velocity"
	InsightWarning     InsightKind = "warning"
	InsightMomentum    InsightKind = "momentum"
	InsightOpportunity InsightKind = "opportunity"
	InsightBenchmark   InsightKind = "benchmark"
)

type Insight struct {
	Kind    InsightKind `json:"kind"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

type DashboardSummary struct {
	TotalXP     int64   `json:"totalXp"`
	Projects    int64   `json:"projects"`
	Deployments int64   `json:"deployments"`
	SuccessRate float64 `json:"successRate"`
}

// Dashboard is the aggregate served to analytics views
type Dashboard struct {
	SubjectID   string            `json:"subjectId"`
	TimeRange   string            `json:"timeRange"`
	Summary     DashboardSummary  `json:"summary"`
	Activity    []*DailyActivity  `json:"activity"`
	Tools       []*ToolStat       `json:"tools"`
	Deployments []*DeploymentStat `json:"deployments"`
	Insights    []*Insight        `json:"insights"`
}

// Clone returns a deep copy of d
func (d *Dashboard) Clone() *Dashboard {
	if d == nil {
		return nil
	}
	c := *d
	c.Activity = clonePtrs(d.Activity)
	c.Tools = clonePtrs(d.Tools)
	c.Deployments = clonePtrs(d.Deployments)
	c.Insights = clonePtrs(d.Insights)
	return &c
}

func clonePtrs[T any](src []*T) []*T {
	if src == nil {
		return nil
	}
	dst := make([]*T, len(src))
	for i, v := range src {
		if v == nil {
			continue
		}
		cp := *v
		dst[i] = &cp
	}
	return dst
}
