// Package query implements the direct query tools: raw ClickHouse SQL and
// builder-style metric queries against the query_range endpoint.
package query

import (
	"context"
	"strings"

	"signoz-mcp/internal/constants"
	"signoz-mcp/internal/models"
	"signoz-mcp/internal/signoz"
	"signoz-mcp/internal/utils"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ClickhouseQueryArgs struct {
	Query     string `json:"query" jsonschema:"ClickHouse SQL to execute (required). Queries without a timestamp filter get the requested time range appended when that is unambiguous"`
	Duration  string `json:"duration,omitempty" jsonschema:"Time range to look back, e.g. 1h, 30m, 2d, or a bare number of minutes (default: 3h)"`
	StartTime string `json:"start_time,omitempty" jsonschema:"Absolute window start: RFC3339 or a relative expression like now-2h. Paired with end_time it overrides duration"`
	EndTime   string `json:"end_time,omitempty" jsonschema:"Absolute window end: RFC3339, now, or now-30m. Must be given together with start_time"`
	Window    string `json:"window,omitempty" jsonschema:"Aggregation bucket size, e.g. 1m, 5m (default: 1m)"`
	PanelType string `json:"panel_type,omitempty" jsonschema:"Result shape hint: table or graph (default: table)"`
}

type BuilderQueryArgs struct {
	Queries   map[string]map[string]any `json:"queries" jsonschema:"Builder query specs keyed by query name (A, B, ...). Each spec needs aggregateOperator and aggregateAttribute.key; group_by and filters are optional"`
	Duration  string                    `json:"duration,omitempty" jsonschema:"Time range to look back, e.g. 1h, 30m, 2d, or a bare number of minutes (default: 3h)"`
	StartTime string                    `json:"start_time,omitempty" jsonschema:"Absolute window start: RFC3339 or a relative expression like now-2h. Paired with end_time it overrides duration"`
	EndTime   string                    `json:"end_time,omitempty" jsonschema:"Absolute window end: RFC3339, now, or now-30m. Must be given together with start_time"`
	Window    string                    `json:"window,omitempty" jsonschema:"Aggregation bucket size, e.g. 1m, 5m (default: 1m)"`
}

const ExecuteClickhouseQueryDescription = `
	Run a raw ClickHouse SQL query against the SigNoz datastore.
	Useful tables:
	- signoz_traces.distributed_signoz_index_v3 (spans)
	- signoz_logs.distributed_logs (log records)
	- signoz_metrics.distributed_samples_v4 (metric samples)
	If the query has no timestamp filter and no clause that would make
	appending one unsafe, the requested time range is added automatically;
	otherwise the query runs exactly as written.
	Returns tabular rows with upstream column names and order preserved.
	Parameters:
	- query: (Required) The SQL to execute.
	- duration: (Optional) Look-back range such as "1h" or "30m". Default 3h.
	- start_time, end_time: (Optional) Absolute bounds, RFC3339 or relative
	  like "now-2h" and "now". Given together they override duration.
	- window: (Optional) Aggregation bucket such as "1m" or "5m".
	- panel_type: (Optional) "table" (default) or "graph".
`

const ExecuteBuilderQueryDescription = `
	Run a SigNoz builder query: an aggregation over metrics, traces, or logs
	described as JSON rather than SQL.
	Each entry maps a query name ("A", "B", ...) to a spec with
	aggregateOperator (e.g. sum_rate, avg, hist_quantile_95),
	aggregateAttribute ({"key": "<metric or attribute name>"}), and optional
	dataSource, filters, and group_by. Step intervals are aligned to the
	shared window automatically.
	Parameters:
	- queries: (Required) Map of query name to builder spec.
	- duration: (Optional) Look-back range such as "1h" or "30m". Default 3h.
	- start_time, end_time: (Optional) Absolute bounds, RFC3339 or relative
	  like "now-2h" and "now". Given together they override duration.
	- window: (Optional) Aggregation bucket such as "1m" or "5m".
`

// NewClickhouseQueryHandler builds the execute_clickhouse_query handler.
func NewClickhouseQueryHandler(client *signoz.Client, cfg models.Config) func(context.Context, *mcp.CallToolRequest, ClickhouseQueryArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args ClickhouseQueryArgs) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(args.Query) == "" {
			return utils.Failure(signoz.Errorf(signoz.KindValidation, "query must not be empty"))
		}

		window, err := signoz.ResolveTimeRangeBounds(args.StartTime, args.EndTime, args.Duration, args.Window, constants.DefaultQueryWindow)
		if err != nil {
			return utils.Failure(err)
		}

		scoped := signoz.ScopeQueryTime(args.Query, window)
		body, err := client.QueryRange(ctx, signoz.NewClickhousePayload(scoped, window, args.PanelType))
		if err != nil {
			return utils.Failure(err)
		}

		results, err := signoz.NormalizeQueryRange(body)
		if err != nil {
			return utils.Failure(err)
		}
		return utils.Result(results)
	}
}

// NewBuilderQueryHandler builds the execute_builder_query handler.
func NewBuilderQueryHandler(client *signoz.Client, cfg models.Config) func(context.Context, *mcp.CallToolRequest, BuilderQueryArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args BuilderQueryArgs) (*mcp.CallToolResult, any, error) {
		window, err := signoz.ResolveTimeRangeBounds(args.StartTime, args.EndTime, args.Duration, args.Window, constants.DefaultQueryWindow)
		if err != nil {
			return utils.Failure(err)
		}

		queries, err := signoz.NormalizeBuilderQueries(args.Queries, window.StepSeconds())
		if err != nil {
			return utils.Failure(err)
		}

		body, err := client.QueryRange(ctx, signoz.NewBuilderPayload(queries, window, signoz.PanelTypeTable))
		if err != nil {
			return utils.Failure(err)
		}

		results, err := signoz.NormalizeQueryRange(body)
		if err != nil {
			return utils.Failure(err)
		}
		return utils.Result(results)
	}
}
