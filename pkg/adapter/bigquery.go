package adapter

import (
	"context"
	"sort"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

// BigQuery runs parameterized read queries
type BigQuery interface {
	// Query executes sql with named parameters (@name) and returns all rows
	Query(ctx context.Context, sql string, params map[string]any) ([]map[string]bigquery.Value, error)
}

type bigqueryClient struct {
	client *bigquery.Client
}

// NewBigQuery creates a new BigQuery client
func NewBigQuery(ctx context.Context, projectID string) (BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client", goerr.V("project", projectID))
	}

	return &bigqueryClient{client: client}, nil
}

func (bq *bigqueryClient) Query(ctx context.Context, sql string, params map[string]any) ([]map[string]bigquery.Value, error) {
	q := bq.client.Query(sql)
	q.Parameters = queryParameters(params)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run query")
	}

	var rows []map[string]bigquery.Value
	for {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate query result")
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// queryParameters converts params to BigQuery parameters in a stable order
func queryParameters(params map[string]any) []bigquery.QueryParameter {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]bigquery.QueryParameter, 0, len(names))
	for _, name := range names {
		out = append(out, bigquery.QueryParameter{Name: name, Value: params[name]})
	}
	return out
}
