package main

import (
	"signoz-mcp/internal/apm"
	"signoz-mcp/internal/dashboards"
	"signoz-mcp/internal/discovery"
	"signoz-mcp/internal/models"
	"signoz-mcp/internal/query"
	"signoz-mcp/internal/signoz"
	"signoz-mcp/internal/telemetry"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerAllTools registers every tool with the MCP server. Handlers share
// one dispatch client; the configuration is read-only after startup.
func registerAllTools(server *mcp.Server, client *signoz.Client, cfg models.Config) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "test_connection",
		Description: discovery.TestConnectionDescription,
	}, discovery.NewTestConnectionHandler(client, cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_services",
		Description: discovery.FetchServicesDescription,
	}, discovery.NewFetchServicesHandler(client, cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_dashboards",
		Description: dashboards.FetchDashboardsDescription,
	}, dashboards.NewFetchDashboardsHandler(client, cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_dashboard_details",
		Description: dashboards.FetchDashboardDetailsDescription,
	}, dashboards.NewFetchDashboardDetailsHandler(client, cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_dashboard_data",
		Description: dashboards.FetchDashboardDataDescription,
	}, dashboards.NewFetchDashboardDataHandler(client, cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_apm_metrics",
		Description: apm.FetchAPMMetricsDescription,
	}, apm.NewFetchAPMMetricsHandler(client, cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "execute_clickhouse_query",
		Description: query.ExecuteClickhouseQueryDescription,
	}, query.NewClickhouseQueryHandler(client, cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "execute_builder_query",
		Description: query.ExecuteBuilderQueryDescription,
	}, query.NewBuilderQueryHandler(client, cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_traces_or_logs",
		Description: telemetry.FetchTracesOrLogsDescription,
	}, telemetry.NewFetchTracesOrLogsHandler(client, cfg))
}
