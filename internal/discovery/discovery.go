// Package discovery implements the connectivity and service-inventory
// tools: probing the instance health endpoints and listing the monitored
// services with their rate and latency metadata.
package discovery

import (
	"context"

	"signoz-mcp/internal/constants"
	"signoz-mcp/internal/models"
	"signoz-mcp/internal/signoz"
	"signoz-mcp/internal/utils"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type TestConnectionArgs struct{}

type FetchServicesArgs struct {
	Duration  string `json:"duration,omitempty" jsonschema:"Time range to look back, e.g. 1h, 30m, 2d, or a bare number of minutes (default: 24h)"`
	StartTime string `json:"start_time,omitempty" jsonschema:"Absolute window start: RFC3339 or a relative expression like now-2h. Paired with end_time it overrides duration"`
	EndTime   string `json:"end_time,omitempty" jsonschema:"Absolute window end: RFC3339, now, or now-30m. Must be given together with start_time"`
	Window    string `json:"window,omitempty" jsonschema:"Aggregation bucket size, e.g. 1m, 5m (default: 1m)"`
}

const TestConnectionDescription = `
	Verify connectivity to the configured SigNoz instance.
	Probes the known health endpoints in order and reports the first one that
	responds, along with the instance URL and whether an API key is in use.
	Use this first when other tools fail, to separate configuration problems
	from query problems.
`

const FetchServicesDescription = `
	List the services the SigNoz instance is monitoring.
	Returns each service name together with its rate and latency metadata
	(p99 latency, call rate, error rate) over the requested time range.
	Parameters:
	- duration: (Optional) Look-back range such as "1h", "30m", "2d", or a
	  bare number of minutes. Defaults to 24h.
	- start_time, end_time: (Optional) Absolute bounds, RFC3339 or relative
	  like "now-2h" and "now". Given together they override duration.
	- window: (Optional) Aggregation bucket such as "1m" or "5m".
`

// NewTestConnectionHandler builds the test_connection handler.
func NewTestConnectionHandler(client *signoz.Client, cfg models.Config) func(context.Context, *mcp.CallToolRequest, TestConnectionArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args TestConnectionArgs) (*mcp.CallToolResult, any, error) {
		endpoint, err := client.TestConnection(ctx)
		if err != nil {
			return utils.Failure(err)
		}
		return utils.Result(map[string]any{
			"url":           client.BaseURL(),
			"endpoint":      endpoint,
			"authenticated": cfg.APIKey != "",
			"message":       "connection to SigNoz succeeded",
		})
	}
}

// NewFetchServicesHandler builds the fetch_services handler.
func NewFetchServicesHandler(client *signoz.Client, cfg models.Config) func(context.Context, *mcp.CallToolRequest, FetchServicesArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args FetchServicesArgs) (*mcp.CallToolResult, any, error) {
		window, err := signoz.ResolveTimeRangeBounds(args.StartTime, args.EndTime, args.Duration, args.Window, constants.DefaultServicesWindow)
		if err != nil {
			return utils.Failure(err)
		}

		body, err := client.Post(ctx, constants.EndpointServices, signoz.NewServicesPayload(window))
		if err != nil {
			return utils.Failure(err)
		}

		services, err := signoz.NormalizeServices(body)
		if err != nil {
			return utils.Failure(err)
		}
		return utils.Result(services)
	}
}
