// Package apm implements the service-level metrics tool. One call expands
// into a fixed set of builder sub-queries (request rate, error rate, and
// latency quantiles) dispatched concurrently over a shared time window.
package apm

import (
	"context"
	"sync"

	"signoz-mcp/internal/constants"
	"signoz-mcp/internal/models"
	"signoz-mcp/internal/signoz"
	"signoz-mcp/internal/utils"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type FetchAPMMetricsArgs struct {
	ServiceName    string   `json:"service_name" jsonschema:"Name of the service to fetch metrics for (required)"`
	Duration       string   `json:"duration,omitempty" jsonschema:"Time range to look back, e.g. 1h, 30m, 2d, or a bare number of minutes (default: 3h)"`
	StartTime      string   `json:"start_time,omitempty" jsonschema:"Absolute window start: RFC3339 or a relative expression like now-2h. Paired with end_time it overrides duration"`
	EndTime        string   `json:"end_time,omitempty" jsonschema:"Absolute window end: RFC3339, now, or now-30m. Must be given together with start_time"`
	Window         string   `json:"window,omitempty" jsonschema:"Aggregation bucket size, e.g. 1m, 5m (default: 1m)"`
	OperationNames []string `json:"operation_names,omitempty" jsonschema:"Restrict metrics to these operations, e.g. [\"GET /cart\"]"`
}

const FetchAPMMetricsDescription = `
	Fetch the standard APM metrics for one service:
	- request_rate: requests per second
	- error_rate: errors per second
	- latency_p50 / latency_p95 / latency_p99: latency quantiles in ms
	Each metric is a time series over the requested range. Sub-queries run
	independently: a metric the platform cannot answer is reported with its
	own error while the others still return data.
	Parameters:
	- service_name: (Required) The service to query.
	- duration: (Optional) Look-back range such as "1h" or "30m". Default 3h.
	- start_time, end_time: (Optional) Absolute bounds, RFC3339 or relative
	  like "now-2h" and "now". Given together they override duration.
	- window: (Optional) Aggregation bucket such as "1m" or "5m".
	- operation_names: (Optional) Restrict to specific operations.
`

// MetricResult is the outcome of one sub-metric. Exactly one of Series and
// Error is populated.
type MetricResult struct {
	Metric string            `json:"metric"`
	Series []signoz.Series   `json:"series,omitempty"`
	Error  *models.ToolError `json:"error,omitempty"`
}

// NewFetchAPMMetricsHandler builds the fetch_apm_metrics handler.
func NewFetchAPMMetricsHandler(client *signoz.Client, cfg models.Config) func(context.Context, *mcp.CallToolRequest, FetchAPMMetricsArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args FetchAPMMetricsArgs) (*mcp.CallToolResult, any, error) {
		if args.ServiceName == "" {
			return utils.Failure(signoz.Errorf(signoz.KindValidation, "service_name is required"))
		}

		window, err := signoz.ResolveTimeRangeBounds(args.StartTime, args.EndTime, args.Duration, args.Window, constants.DefaultDashboardWindow)
		if err != nil {
			return utils.Failure(err)
		}

		results := fanOut(ctx, client, window, args)

		failed := 0
		for _, r := range results {
			if r.Error != nil {
				failed++
			}
		}
		if failed == len(results) {
			return utils.Failure(signoz.Errorf(signoz.KindUpstream,
				"all %d APM metric queries for service %q failed; first failure: %s",
				len(results), args.ServiceName, results[0].Error.Message))
		}

		return utils.Result(map[string]any{
			"service": args.ServiceName,
			"metrics": results,
		})
	}
}

// fanOut dispatches every sub-metric query concurrently and collects the
// outcomes in the fixed metric order, each slot written by exactly one
// goroutine.
func fanOut(ctx context.Context, client *signoz.Client, window signoz.TimeWindow, args FetchAPMMetricsArgs) []MetricResult {
	results := make([]MetricResult, len(signoz.APMMetrics))

	var wg sync.WaitGroup
	for i, metric := range signoz.APMMetrics {
		wg.Add(1)
		go func(i int, metric string) {
			defer wg.Done()
			results[i] = fetchMetric(ctx, client, window, metric, args)
		}(i, metric)
	}
	wg.Wait()
	return results
}

func fetchMetric(ctx context.Context, client *signoz.Client, window signoz.TimeWindow, metric string, args FetchAPMMetricsArgs) MetricResult {
	fail := func(err error) MetricResult {
		return MetricResult{
			Metric: metric,
			Error:  &models.ToolError{Kind: signoz.KindOf(err), Message: err.Error()},
		}
	}

	spec, err := signoz.APMQuery(metric, args.ServiceName, args.OperationNames, window.StepSeconds())
	if err != nil {
		return fail(err)
	}

	payload := signoz.NewBuilderPayload(map[string]map[string]any{"A": spec}, window, signoz.PanelTypeGraph)
	body, err := client.QueryRange(ctx, payload)
	if err != nil {
		return fail(err)
	}

	normalized, err := signoz.NormalizeQueryRange(body)
	if err != nil {
		return fail(err)
	}

	series := []signoz.Series{}
	for _, qr := range normalized {
		series = append(series, qr.Series...)
	}
	return MetricResult{Metric: metric, Series: series}
}
