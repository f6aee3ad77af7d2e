// Package dashboards implements the dashboard tools: listing dashboards,
// inspecting their panel structure, and re-executing every panel query of
// one dashboard against a fresh time window.
package dashboards

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"signoz-mcp/internal/constants"
	"signoz-mcp/internal/models"
	"signoz-mcp/internal/signoz"
	"signoz-mcp/internal/utils"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type FetchDashboardsArgs struct{}

type FetchDashboardDetailsArgs struct {
	DashboardID string `json:"dashboard_id" jsonschema:"Dashboard id as returned by fetch_dashboards (required)"`
}

type FetchDashboardDataArgs struct {
	DashboardName string `json:"dashboard_name" jsonschema:"Title of the dashboard to execute, matched case-insensitively (required)"`
	Duration      string `json:"duration,omitempty" jsonschema:"Time range to look back, e.g. 1h, 30m, 2d, or a bare number of minutes (default: 3h)"`
	StartTime     string `json:"start_time,omitempty" jsonschema:"Absolute window start: RFC3339 or a relative expression like now-2h. Paired with end_time it overrides duration"`
	EndTime       string `json:"end_time,omitempty" jsonschema:"Absolute window end: RFC3339, now, or now-30m. Must be given together with start_time"`
	Window        string `json:"window,omitempty" jsonschema:"Aggregation bucket size, e.g. 1m, 5m (default: 1m)"`
	VariablesJSON string `json:"variables_json,omitempty" jsonschema:"JSON object of dashboard variable values, e.g. {\"deployment\": \"prod\"}"`
}

const FetchDashboardsDescription = `
	List all dashboards on the SigNoz instance.
	Returns id, title, description, and tags for each dashboard. Use the id
	with fetch_dashboard_details and the title with fetch_dashboard_data.
`

const FetchDashboardDetailsDescription = `
	Fetch the structure of one dashboard: its panels, their types, and the
	queries behind them, without executing anything.
	Parameters:
	- dashboard_id: (Required) Id as returned by fetch_dashboards.
`

const FetchDashboardDataDescription = `
	Execute every panel query of a dashboard against a fresh time range and
	return the per-panel results.
	The dashboard is found by title (case-insensitive). Panels execute
	independently: a failing panel is reported with its own error while the
	others still return data, and panels without an executable query are
	marked skipped.
	Parameters:
	- dashboard_name: (Required) Dashboard title.
	- duration: (Optional) Look-back range such as "1h" or "30m". Default 3h.
	- start_time, end_time: (Optional) Absolute bounds, RFC3339 or relative
	  like "now-2h" and "now". Given together they override duration.
	- window: (Optional) Aggregation bucket such as "1m" or "5m".
	- variables_json: (Optional) Values for dashboard variables, as a JSON
	  object keyed by variable name.
`

// PanelResult is the outcome of one panel execution.
type PanelResult struct {
	Panel  string               `json:"panel"`
	Type   string               `json:"type,omitempty"`
	Status string               `json:"status"`
	Data   []signoz.QueryResult `json:"data,omitempty"`
	Error  *models.ToolError    `json:"error,omitempty"`
	Reason string               `json:"reason,omitempty"`
}

// Panel execution statuses.
const (
	panelSuccess = "success"
	panelError   = "error"
	panelSkipped = "skipped"
)

// NewFetchDashboardsHandler builds the fetch_dashboards handler.
func NewFetchDashboardsHandler(client *signoz.Client, cfg models.Config) func(context.Context, *mcp.CallToolRequest, FetchDashboardsArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args FetchDashboardsArgs) (*mcp.CallToolResult, any, error) {
		body, err := client.Get(ctx, constants.EndpointDashboards)
		if err != nil {
			return utils.Failure(err)
		}
		list, err := signoz.NormalizeDashboardList(body)
		if err != nil {
			return utils.Failure(err)
		}
		return utils.Result(list)
	}
}

// NewFetchDashboardDetailsHandler builds the fetch_dashboard_details handler.
func NewFetchDashboardDetailsHandler(client *signoz.Client, cfg models.Config) func(context.Context, *mcp.CallToolRequest, FetchDashboardDetailsArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args FetchDashboardDetailsArgs) (*mcp.CallToolResult, any, error) {
		if args.DashboardID == "" {
			return utils.Failure(signoz.Errorf(signoz.KindValidation, "dashboard_id is required"))
		}
		detail, err := fetchDetail(ctx, client, args.DashboardID)
		if err != nil {
			return utils.Failure(err)
		}
		return utils.Result(detail)
	}
}

// NewFetchDashboardDataHandler builds the fetch_dashboard_data handler.
func NewFetchDashboardDataHandler(client *signoz.Client, cfg models.Config) func(context.Context, *mcp.CallToolRequest, FetchDashboardDataArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args FetchDashboardDataArgs) (*mcp.CallToolResult, any, error) {
		if args.DashboardName == "" {
			return utils.Failure(signoz.Errorf(signoz.KindValidation, "dashboard_name is required"))
		}

		variables, err := parseVariables(args.VariablesJSON)
		if err != nil {
			return utils.Failure(err)
		}

		window, err := signoz.ResolveTimeRangeBounds(args.StartTime, args.EndTime, args.Duration, args.Window, constants.DefaultDashboardWindow)
		if err != nil {
			return utils.Failure(err)
		}

		id, err := resolveDashboardID(ctx, client, args.DashboardName)
		if err != nil {
			return utils.Failure(err)
		}
		detail, err := fetchDetail(ctx, client, id)
		if err != nil {
			return utils.Failure(err)
		}

		panels := make([]PanelResult, 0, len(detail.Panels))
		for _, panel := range detail.Panels {
			panels = append(panels, executePanel(ctx, client, panel, window, variables))
		}

		return utils.Result(map[string]any{
			"dashboard": detail.Title,
			"id":        detail.ID,
			"panels":    panels,
		})
	}
}

func parseVariables(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var variables map[string]any
	if err := json.Unmarshal([]byte(raw), &variables); err != nil {
		return nil, signoz.Errorf(signoz.KindValidation,
			"variables_json must be a JSON object: %v", err)
	}
	return variables, nil
}

// resolveDashboardID finds a dashboard by title. Titles are matched
// case-insensitively; an exact match wins over a substring match.
func resolveDashboardID(ctx context.Context, client *signoz.Client, name string) (string, error) {
	body, err := client.Get(ctx, constants.EndpointDashboards)
	if err != nil {
		return "", err
	}
	list, err := signoz.NormalizeDashboardList(body)
	if err != nil {
		return "", err
	}

	wanted := strings.ToLower(strings.TrimSpace(name))
	partial := ""
	for _, d := range list {
		title := strings.ToLower(d.Title)
		if title == wanted {
			return d.ID, nil
		}
		if partial == "" && strings.Contains(title, wanted) {
			partial = d.ID
		}
	}
	if partial != "" {
		return partial, nil
	}
	return "", signoz.Errorf(signoz.KindNotFound, "no dashboard titled %q", name)
}

func fetchDetail(ctx context.Context, client *signoz.Client, id string) (*signoz.DashboardDetail, error) {
	body, err := client.Get(ctx, fmt.Sprintf(constants.EndpointDashboardDetail, id))
	if err != nil {
		return nil, err
	}
	return signoz.NormalizeDashboardDetail(body)
}

// executePanel rebuilds one panel's query against the shared window and
// dispatches it. Failures stay inside the panel's own result.
func executePanel(ctx context.Context, client *signoz.Client, panel signoz.PanelSummary, window signoz.TimeWindow, variables map[string]any) PanelResult {
	name := panel.Title
	if name == "" {
		name = panel.ID
	}
	result := PanelResult{Panel: name, Type: panel.Type}

	payload, reason := buildPanelPayload(panel, window, variables)
	if payload == nil {
		result.Status = panelSkipped
		result.Reason = reason
		return result
	}

	body, err := client.QueryRange(ctx, *payload)
	if err == nil {
		var data []signoz.QueryResult
		if data, err = signoz.NormalizeQueryRange(body); err == nil {
			result.Status = panelSuccess
			result.Data = data
			return result
		}
	}
	result.Status = panelError
	result.Error = &models.ToolError{Kind: signoz.KindOf(err), Message: err.Error()}
	return result
}

// buildPanelPayload turns a stored widget query block into a dispatchable
// payload. A nil payload with a reason means the panel cannot be executed
// and should be skipped rather than failed.
func buildPanelPayload(panel signoz.PanelSummary, window signoz.TimeWindow, variables map[string]any) (*signoz.RangePayload, string) {
	if panel.Query == nil {
		return nil, "panel has no query"
	}

	queryType, _ := panel.Query["queryType"].(string)
	switch queryType {
	case "builder":
		builder, _ := panel.Query["builder"].(map[string]any)
		queryData, _ := builder["queryData"].([]any)
		queries := builderQueriesFromPanel(queryData, window.StepSeconds())
		if len(queries) == 0 {
			return nil, "panel has no enabled builder queries"
		}
		panelType := panel.Type
		if panelType == "" {
			panelType = signoz.PanelTypeGraph
		}
		payload := signoz.NewBuilderPayload(queries, window, panelType)
		return &payload, ""
	case "clickhouse_sql":
		entries, _ := panel.Query["clickhouse_sql"].([]any)
		sql := firstClickhouseQuery(entries)
		if sql == "" {
			return nil, "panel has no ClickHouse query"
		}
		payload := signoz.NewClickhousePayload(substituteVariables(sql, variables), window, signoz.PanelTypeTable)
		return &payload, ""
	case "promql":
		return nil, "PromQL panels are not executable through this tool"
	default:
		return nil, fmt.Sprintf("unsupported query type %q", queryType)
	}
}

// builderQueriesFromPanel converts stored queryData entries into the wire
// map, assigning letters in panel order and realigning step intervals. Spec
// validation is intentionally loose here: dashboard-authored panels may be
// formulas that reference other queries.
func builderQueriesFromPanel(queryData []any, stepSeconds int64) map[string]map[string]any {
	queries := make(map[string]map[string]any)
	letter := 'A'
	for _, raw := range queryData {
		entry, ok := raw.(map[string]any)
		if !ok || letter > 'Z' {
			continue
		}
		name, _ := entry["queryName"].(string)
		if name == "" {
			name = string(letter)
		}
		letter++

		out := make(map[string]any, len(entry)+2)
		for k, v := range entry {
			if k == "group_by" {
				out["groupBy"] = v
				continue
			}
			out[k] = v
		}
		out["queryName"] = name
		if _, ok := out["expression"]; !ok {
			out["expression"] = name
		}
		out["stepInterval"] = stepSeconds
		if _, ok := out["disabled"]; !ok {
			out["disabled"] = false
		}
		if ds, _ := out["dataSource"].(string); ds == "metrics" {
			out["pageSize"] = 10
		}
		queries[name] = out
	}
	return queries
}

func firstClickhouseQuery(entries []any) string {
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if disabled, _ := entry["disabled"].(bool); disabled {
			continue
		}
		if sql, _ := entry["query"].(string); strings.TrimSpace(sql) != "" {
			return sql
		}
	}
	return ""
}

// substituteVariables replaces {{.name}} placeholders in stored ClickHouse
// panel queries with the caller-supplied values.
func substituteVariables(sql string, variables map[string]any) string {
	for name, value := range variables {
		sql = strings.ReplaceAll(sql, fmt.Sprintf("{{.%s}}", name), fmt.Sprint(value))
	}
	return sql
}
