package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"signoz-mcp/internal/apm"
	"signoz-mcp/internal/dashboards"
	"signoz-mcp/internal/discovery"
	"signoz-mcp/internal/models"
	"signoz-mcp/internal/query"
	"signoz-mcp/internal/signoz"
	"signoz-mcp/internal/telemetry"
	"signoz-mcp/internal/testutil"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MockSignozServer simulates a complete SigNoz instance: health probes,
// dashboards, services, and the query_range endpoint.
type MockSignozServer struct {
	*httptest.Server

	mu           sync.Mutex
	RequestCount int
	AuthSeen     bool
}

func NewMockSignozServer(t *testing.T) *MockSignozServer {
	t.Helper()
	m := &MockSignozServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Server.Close)
	return m
}

func (m *MockSignozServer) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.RequestCount++
	if r.Header.Get("SIGNOZ-API-KEY") != "" {
		m.AuthSeen = true
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/v1/health":
		w.Write([]byte(`{"status": "ok"}`))
	case r.URL.Path == "/api/v1/services":
		w.Write([]byte(`[{"serviceName": "checkout", "p99": 210.4}, {"serviceName": "payments", "p99": 95.1}]`))
	case r.URL.Path == "/api/v1/dashboards":
		w.Write([]byte(`{"data": [{"uuid": "dash-1", "data": {"title": "Checkout Overview"}}]}`))
	case strings.HasPrefix(r.URL.Path, "/api/v1/dashboards/"):
		w.Write([]byte(`{
			"data": {
				"uuid": "dash-1",
				"data": {
					"title": "Checkout Overview",
					"widgets": [{
						"id": "w1", "title": "Calls", "panelTypes": "graph",
						"query": {
							"queryType": "builder",
							"builder": {"queryData": [{
								"dataSource": "metrics", "aggregateOperator": "sum_rate",
								"aggregateAttribute": {"key": "signoz_calls_total"}
							}]}
						}
					}]
				}
			}
		}`))
	case r.URL.Path == "/api/v4/query_range":
		w.Write([]byte(`{
			"data": {
				"result": [{
					"queryName": "A",
					"series": [{"labels": {}, "values": [{"timestamp": 1700000000000, "value": "4.2"}]}]
				}]
			}
		}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newIntegrationClient(t *testing.T, mock *MockSignozServer) (*signoz.Client, models.Config) {
	t.Helper()
	cfg := testutil.MockConfig(mock.URL)
	client, err := signoz.NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, cfg
}

func TestRegisterAllTools(t *testing.T) {
	mock := NewMockSignozServer(t)
	client, cfg := newIntegrationClient(t, mock)

	server := mcp.NewServer(&mcp.Implementation{Name: "signoz-mcp", Version: "test"}, nil)
	registerAllTools(server, client, cfg)
	registerAllPrompts(server)
}

func TestAllToolsAgainstMockInstance(t *testing.T) {
	mock := NewMockSignozServer(t)
	client, cfg := newIntegrationClient(t, mock)
	ctx := context.Background()

	okResult := func(t *testing.T, res *mcp.CallToolResult) models.ToolResult {
		t.Helper()
		result := testutil.DecodeResult(t, res)
		testutil.RequireStatus(t, result, models.StatusOK, "")
		return result
	}

	t.Run("test_connection", func(t *testing.T) {
		res, _, err := discovery.NewTestConnectionHandler(client, cfg)(ctx, nil, discovery.TestConnectionArgs{})
		if err != nil {
			t.Fatal(err)
		}
		okResult(t, res)
	})

	t.Run("fetch_services", func(t *testing.T) {
		res, _, err := discovery.NewFetchServicesHandler(client, cfg)(ctx, nil, discovery.FetchServicesArgs{Duration: "24h"})
		if err != nil {
			t.Fatal(err)
		}
		result := okResult(t, res)
		if services := result.Data.([]any); len(services) != 2 {
			t.Errorf("services = %d, want 2", len(services))
		}
	})

	t.Run("fetch_dashboards", func(t *testing.T) {
		res, _, err := dashboards.NewFetchDashboardsHandler(client, cfg)(ctx, nil, dashboards.FetchDashboardsArgs{})
		if err != nil {
			t.Fatal(err)
		}
		okResult(t, res)
	})

	t.Run("fetch_dashboard_details", func(t *testing.T) {
		res, _, err := dashboards.NewFetchDashboardDetailsHandler(client, cfg)(ctx, nil, dashboards.FetchDashboardDetailsArgs{DashboardID: "dash-1"})
		if err != nil {
			t.Fatal(err)
		}
		okResult(t, res)
	})

	t.Run("fetch_dashboard_data", func(t *testing.T) {
		res, _, err := dashboards.NewFetchDashboardDataHandler(client, cfg)(ctx, nil, dashboards.FetchDashboardDataArgs{DashboardName: "checkout overview"})
		if err != nil {
			t.Fatal(err)
		}
		result := okResult(t, res)
		panels := result.Data.(map[string]any)["panels"].([]any)
		if len(panels) != 1 || panels[0].(map[string]any)["status"] != "success" {
			t.Errorf("panels = %v", panels)
		}
	})

	t.Run("fetch_apm_metrics", func(t *testing.T) {
		res, _, err := apm.NewFetchAPMMetricsHandler(client, cfg)(ctx, nil, apm.FetchAPMMetricsArgs{ServiceName: "checkout"})
		if err != nil {
			t.Fatal(err)
		}
		result := okResult(t, res)
		metrics := result.Data.(map[string]any)["metrics"].([]any)
		if len(metrics) != len(signoz.APMMetrics) {
			t.Errorf("metrics = %d, want %d", len(metrics), len(signoz.APMMetrics))
		}
	})

	t.Run("execute_clickhouse_query", func(t *testing.T) {
		res, _, err := query.NewClickhouseQueryHandler(client, cfg)(ctx, nil, query.ClickhouseQueryArgs{Query: "SELECT 1", Duration: "1h"})
		if err != nil {
			t.Fatal(err)
		}
		okResult(t, res)
	})

	t.Run("execute_builder_query", func(t *testing.T) {
		res, _, err := query.NewBuilderQueryHandler(client, cfg)(ctx, nil, query.BuilderQueryArgs{
			Queries: map[string]map[string]any{"A": {
				"dataSource":         "metrics",
				"aggregateOperator":  "sum_rate",
				"aggregateAttribute": map[string]any{"key": "signoz_calls_total"},
			}},
		})
		if err != nil {
			t.Fatal(err)
		}
		okResult(t, res)
	})

	t.Run("fetch_traces_or_logs", func(t *testing.T) {
		res, _, err := telemetry.NewFetchTracesOrLogsHandler(client, cfg)(ctx, nil, telemetry.FetchTracesOrLogsArgs{DataType: "traces"})
		if err != nil {
			t.Fatal(err)
		}
		okResult(t, res)
	})

	mock.mu.Lock()
	defer mock.mu.Unlock()
	if !mock.AuthSeen {
		t.Error("no request carried the API key header")
	}
	if mock.RequestCount == 0 {
		t.Error("mock instance never hit")
	}
}
