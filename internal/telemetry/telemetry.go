// Package telemetry implements the raw trace and log fetch tool backed by
// the ClickHouse span and log tables.
package telemetry

import (
	"context"

	"signoz-mcp/internal/constants"
	"signoz-mcp/internal/models"
	"signoz-mcp/internal/signoz"
	"signoz-mcp/internal/utils"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type FetchTracesOrLogsArgs struct {
	DataType    string `json:"data_type" jsonschema:"What to fetch: traces or logs (required)"`
	ServiceName string `json:"service_name,omitempty" jsonschema:"Restrict rows to one service"`
	Duration    string `json:"duration,omitempty" jsonschema:"Time range to look back, e.g. 1h, 30m, 2d, or a bare number of minutes (default: 3h)"`
	StartTime   string `json:"start_time,omitempty" jsonschema:"Absolute window start: RFC3339 or a relative expression like now-2h. Paired with end_time it overrides duration"`
	EndTime     string `json:"end_time,omitempty" jsonschema:"Absolute window end: RFC3339, now, or now-30m. Must be given together with start_time"`
	Limit       *int   `json:"limit,omitempty" jsonschema:"Maximum rows to return, 1-10000 (default: 100)"`
}

const FetchTracesOrLogsDescription = `
	Fetch recent trace spans or log records, optionally scoped to a service.
	Traces return traceID, serviceName, span name, duration, status code, and
	timestamp. Logs return timestamp, body, severity, resource attributes,
	and trace correlation ids. Rows come back in upstream order.
	Parameters:
	- data_type: (Required) "traces" or "logs".
	- service_name: (Optional) Restrict to one service.
	- duration: (Optional) Look-back range such as "1h" or "30m". Default 3h.
	- start_time, end_time: (Optional) Absolute bounds, RFC3339 or relative
	  like "now-2h" and "now". Given together they override duration.
	- limit: (Optional) Maximum rows, 1 to 10000. Default 100.
`

// NewFetchTracesOrLogsHandler builds the fetch_traces_or_logs handler.
func NewFetchTracesOrLogsHandler(client *signoz.Client, cfg models.Config) func(context.Context, *mcp.CallToolRequest, FetchTracesOrLogsArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args FetchTracesOrLogsArgs) (*mcp.CallToolResult, any, error) {
		limit := constants.DefaultRowLimit
		if args.Limit != nil {
			limit = *args.Limit
		}
		if limit <= 0 {
			return utils.Failure(signoz.Errorf(signoz.KindValidation,
				"limit must be positive, got %d", limit))
		}
		if limit > constants.MaxRowLimit {
			return utils.Failure(signoz.Errorf(signoz.KindValidation,
				"limit %d exceeds the maximum of %d", limit, constants.MaxRowLimit))
		}

		window, err := signoz.ResolveTimeRangeBounds(args.StartTime, args.EndTime, args.Duration, "", constants.DefaultQueryWindow)
		if err != nil {
			return utils.Failure(err)
		}

		sql, err := signoz.TraceLogSQL(args.DataType, args.ServiceName, window, limit)
		if err != nil {
			return utils.Failure(err)
		}

		body, err := client.QueryRange(ctx, signoz.NewClickhousePayload(sql, window, signoz.PanelTypeTable))
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
