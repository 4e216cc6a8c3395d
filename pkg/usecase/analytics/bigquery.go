package analytics

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/flashfusion/forge/pkg/adapter"
	"github.com/flashfusion/forge/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// BigQuerySource reads analytics inputs from tables in one dataset:
//
//	daily_activity(subject_id, date, xp, generations)
//	subject_summary(subject_id, projects, deployments, success_rate)
//	tool_usage(subject_id, date, tool, uses)
//	deployments(subject_id, date, target)
//	weekly_xp(subject_id, week, xp)
type BigQuerySource struct {
	bq      adapter.BigQuery
	dataset string
}

func NewBigQuerySource(bq adapter.BigQuery, dataset string) *BigQuerySource {
	return &BigQuerySource{bq: bq, dataset: dataset}
}

func (s *BigQuerySource) table(name string) string {
	return fmt.Sprintf("`%s.%s`", s.dataset, name)
}

func (s *BigQuerySource) Activity(ctx context.Context, subjectID string, days int) (*model.RawActivity, error) {
	params := map[string]any{"subject": subjectID, "days": days}

	summary, err := s.bq.Query(ctx, fmt.Sprintf(`SELECT projects, deployments, success_rate
FROM %s WHERE subject_id = @subject LIMIT 1`, s.table("subject_summary")), params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query subject summary", goerr.V("subject", subjectID))
	}

	activity := &model.RawActivity{SubjectID: subjectID}
	if len(summary) > 0 {
		row := summary[0]
		activity.Projects = toInt64(row["projects"])
		activity.Deployments = toInt64(row["deployments"])
		activity.SuccessRate = toFloat64(row["success_rate"])
	}

	rows, err := s.bq.Query(ctx, fmt.Sprintf(`SELECT TIMESTAMP(date) AS date, xp, generations
FROM %s
WHERE subject_id = @subject AND date > DATE_SUB(CURRENT_DATE(), INTERVAL @days DAY)
ORDER BY date`, s.table("daily_activity")), params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query daily activity", goerr.V("subject", subjectID))
	}
	for _, row := range rows {
		activity.Daily = append(activity.Daily, &model.DailyActivity{
			Date:        toTime(row["date"]),
			XP:          toInt64(row["xp"]),
			Generations: toInt64(row["generations"]),
		})
	}

	return activity, nil
}

func (s *BigQuerySource) ToolUsage(ctx context.Context, subjectID string, days int) ([]*model.RawToolUsage, error) {
	rows, err := s.bq.Query(ctx, fmt.Sprintf(`SELECT tool, SUM(uses) AS uses
FROM %s
WHERE subject_id = @subject AND date > DATE_SUB(CURRENT_DATE(), INTERVAL @days DAY)
GROUP BY tool
ORDER BY tool`, s.table("tool_usage")), map[string]any{"subject": subjectID, "days": days})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query tool usage", goerr.V("subject", subjectID))
	}

	usage := make([]*model.RawToolUsage, 0, len(rows))
	for _, row := range rows {
		usage = append(usage, &model.RawToolUsage{Tool: toString(row["tool"]), Uses: toInt64(row["uses"])})
	}
	return usage, nil
}

func (s *BigQuerySource) Deployments(ctx context.Context, subjectID string, days int) ([]*model.RawDeployment, error) {
	rows, err := s.bq.Query(ctx, fmt.Sprintf(`SELECT target, COUNT(*) AS count
FROM %s
WHERE subject_id = @subject AND date > DATE_SUB(CURRENT_DATE(), INTERVAL @days DAY)
GROUP BY target
ORDER BY target`, s.table("deployments")), map[string]any{"subject": subjectID, "days": days})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query deployments", goerr.V("subject", subjectID))
	}

	deployments := make([]*model.RawDeployment, 0, len(rows))
	for _, row := range rows {
		deployments = append(deployments, &model.RawDeployment{Target: toString(row["target"]), Count: toInt64(row["count"])})
	}
	return deployments, nil
}

func (s *BigQuerySource) Benchmark(ctx context.Context) (*model.Benchmark, error) {
	rows, err := s.bq.Query(ctx, fmt.Sprintf(`SELECT AVG(xp) AS average_weekly_xp
FROM %s
WHERE week > DATE_SUB(CURRENT_DATE(), INTERVAL 4 WEEK)`, s.table("weekly_xp")), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query benchmark")
	}
	if len(rows) == 0 || rows[0]["average_weekly_xp"] == nil {
		return nil, nil
	}
	return &model.Benchmark{AverageWeeklyXP: toFloat64(rows[0]["average_weekly_xp"])}, nil
}

func toInt64(v bigquery.Value) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func toFloat64(v bigquery.Value) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func toString(v bigquery.Value) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toTime(v bigquery.Value) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}
