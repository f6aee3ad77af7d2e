package constants

import "time"

// API Endpoints
const (
	// Query endpoints
	EndpointQueryRange = "/api/v4/query_range"

	// Dashboard endpoints
	EndpointDashboards      = "/api/v1/dashboards"
	EndpointDashboardDetail = "/api/v1/dashboards/%s"

	// Service discovery endpoint
	EndpointServices = "/api/v1/services"
)

// HealthEndpoints are probed in order by test_connection; the first one
// answering 200 wins. SigNoz deployments differ in which of these exist.
var HealthEndpoints = []string{
	"/api/v1/health",
	"/api/v1/version",
	"/api/v2/health",
	"/api/v3/health",
	"/api/v4/health",
	"/health",
	"/ping",
}

// HTTP Headers
const (
	HeaderAccept          = "Accept"
	HeaderContentType     = "Content-Type"
	HeaderSignozAPIKey    = "SIGNOZ-API-KEY"
	HeaderUserAgent       = "User-Agent"
	HeaderContentTypeJSON = "application/json"
)

// User Agent
const UserAgentSignozMCP = "SigNoz-MCP-Server/1.0"

// Default time windows per tool family, applied when a call carries no
// explicit bounds or duration.
const (
	DefaultQueryWindow     = 3 * time.Hour
	DefaultDashboardWindow = 3 * time.Hour
	DefaultServicesWindow  = 24 * time.Hour

	// DefaultStep is the platform minimum aggregation granularity.
	DefaultStep = 60 * time.Second
)

// Request defaults and bounds.
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultRowLimit       = 100
	MaxRowLimit           = 10000

	// MaxResponseSize bounds upstream response bodies (50MB) so a huge
	// result set cannot exhaust memory.
	MaxResponseSize = 50 * 1024 * 1024
)

// ClickHouse tables backing the trace/log fetch tool.
const (
	TracesTable = "signoz_traces.distributed_signoz_index_v3"
	LogsTable   = "signoz_logs.distributed_logs"

	TracesColumns = "traceID, serviceName, name, durationNano, statusCode, timestamp"
	LogsColumns   = "timestamp, body, severity_text, resource_attributes, trace_id, span_id"
)
