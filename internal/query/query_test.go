package query

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"signoz-mcp/internal/models"
	"signoz-mcp/internal/signoz"
	"signoz-mcp/internal/testutil"
)

func newClient(t *testing.T, mock *testutil.MockSignoz) (*signoz.Client, models.Config) {
	t.Helper()
	cfg := testutil.MockConfig(mock.URL())
	client, err := signoz.NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, cfg
}

const tableResponse = `{
	"data": {
		"result": [{
			"queryName": "A",
			"table": {
				"columns": [{"name": "serviceName"}, {"name": "count()"}],
				"rows": [{"data": {"serviceName": "svc-a", "count()": 10}}]
			}
		}]
	}
}`

func TestExecuteClickhouseQuery(t *testing.T) {
	mock := testutil.NewMockSignoz(t)
	var gotPayload signoz.RangePayload
	mock.Handle("/api/v4/query_range", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(tableResponse))
	})

	client, cfg := newClient(t, mock)
	handler := NewClickhouseQueryHandler(client, cfg)
	res, _, err := handler(context.Background(), nil, ClickhouseQueryArgs{
		Query:    "SELECT serviceName, count() FROM signoz_traces.distributed_signoz_index_v3 GROUP BY serviceName",
		Duration: "1h",
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	result := testutil.DecodeResult(t, res)
	testutil.RequireStatus(t, result, models.StatusOK, "")

	if gotPayload.CompositeQuery.QueryType != "clickhouse_sql" {
		t.Errorf("queryType = %q", gotPayload.CompositeQuery.QueryType)
	}
	if !gotPayload.FormatForWeb {
		t.Error("formatForWeb not set")
	}
	sent := gotPayload.CompositeQuery.CHQueries["A"].Query
	if strings.Contains(sent, "toDateTime64") {
		t.Errorf("GROUP BY query should not be time-scoped: %s", sent)
	}

	results := result.Data.([]any)
	table := results[0].(map[string]any)["table"].(map[string]any)
	cols := table["columns"].([]any)
	if cols[0] != "serviceName" || cols[1] != "count()" {
		t.Errorf("columns = %v, want upstream names in order", cols)
	}
}

func TestExecuteClickhouseQueryScopesBareSelect(t *testing.T) {
	mock := testutil.NewMockSignoz(t)
	var gotPayload signoz.RangePayload
	mock.Handle("/api/v4/query_range", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(tableResponse))
	})

	client, cfg := newClient(t, mock)
	_, _, err := NewClickhouseQueryHandler(client, cfg)(context.Background(), nil, ClickhouseQueryArgs{
		Query: "SELECT count() FROM signoz_logs.distributed_logs",
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	sent := gotPayload.CompositeQuery.CHQueries["A"].Query
	if !strings.Contains(sent, "WHERE timestamp >= toDateTime64(") {
		t.Errorf("bare SELECT not time-scoped: %s", sent)
	}
}

func TestExecuteClickhouseQueryUpstreamFailure(t *testing.T) {
	mock := testutil.NewMockSignoz(t)
	mock.HandleStatus("/api/v4/query_range", http.StatusInternalServerError)

	client, cfg := newClient(t, mock)
	res, _, err := NewClickhouseQueryHandler(client, cfg)(context.Background(), nil, ClickhouseQueryArgs{
		Query:    "SELECT 1",
		Duration: "1h",
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	result := testutil.DecodeResult(t, res)
	testutil.RequireStatus(t, result, models.StatusError, signoz.KindUpstream)
}

func TestExecuteClickhouseQueryEmptyQuery(t *testing.T) {
	mock := testutil.NewMockSignoz(t)

	client, cfg := newClient(t, mock)
	res, _, err := NewClickhouseQueryHandler(client, cfg)(context.Background(), nil, ClickhouseQueryArgs{Query: "  "})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	result := testutil.DecodeResult(t, res)
	testutil.RequireStatus(t, result, models.StatusError, signoz.KindValidation)
	if n := mock.RequestCount(); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestExecuteBuilderQuery(t *testing.T) {
	mock := testutil.NewMockSignoz(t)
	var gotPayload signoz.RangePayload
	mock.Handle("/api/v4/query_range", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"data": {"result": [{"queryName": "A", "series": []}]}}`))
	})

	client, cfg := newClient(t, mock)
	res, _, err := NewBuilderQueryHandler(client, cfg)(context.Background(), nil, BuilderQueryArgs{
		Queries: map[string]map[string]any{
			"A": {
				"dataSource":         "metrics",
				"aggregateOperator":  "sum_rate",
				"aggregateAttribute": map[string]any{"key": "signoz_calls_total"},
			},
		},
		Duration: "1h",
		Window:   "5m",
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	result := testutil.DecodeResult(t, res)
	testutil.RequireStatus(t, result, models.StatusOK, "")

	if gotPayload.CompositeQuery.QueryType != "builder" {
		t.Errorf("queryType = %q", gotPayload.CompositeQuery.QueryType)
	}
	q := gotPayload.CompositeQuery.BuilderQueries["A"]
	if q["stepInterval"] != float64(300) {
		t.Errorf("stepInterval = %v, want 300", q["stepInterval"])
	}
	if q["pageSize"] != float64(10) {
		t.Errorf("pageSize = %v, want 10", q["pageSize"])
	}
}

func TestExecuteBuilderQueryInvalidSpec(t *testing.T) {
	mock := testutil.NewMockSignoz(t)

	client, cfg := newClient(t, mock)
	res, _, err := NewBuilderQueryHandler(client, cfg)(context.Background(), nil, BuilderQueryArgs{
		Queries: map[string]map[string]any{"A": {"dataSource": "metrics"}},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	result := testutil.DecodeResult(t, res)
	testutil.RequireStatus(t, result, models.StatusError, signoz.KindInvalidBuilderSpec)
	if n := mock.RequestCount(); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}
