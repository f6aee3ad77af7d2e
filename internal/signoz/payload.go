package signoz

import (
	"fmt"
	"sort"
	"strings"

	"signoz-mcp/internal/constants"
)

// Panel types understood by the query_range endpoint.
const (
	PanelTypeTable = "table"
	PanelTypeGraph = "graph"
)

// CHQuery is one named ClickHouse query inside a composite query.
type CHQuery struct {
	Name     string `json:"name"`
	Legend   string `json:"legend"`
	Disabled bool   `json:"disabled"`
	Query    string `json:"query"`
}

// CompositeQuery selects between builder queries and raw ClickHouse SQL.
type CompositeQuery struct {
	QueryType      string                    `json:"queryType"`
	PanelType      string                    `json:"panelType"`
	FillGaps       bool                      `json:"fillGaps"`
	BuilderQueries map[string]map[string]any `json:"builderQueries,omitempty"`
	CHQueries      map[string]CHQuery        `json:"chQueries,omitempty"`
}

// RangePayload is the request body for the query_range endpoint.
// Start/End are Unix milliseconds.
type RangePayload struct {
	Start          int64          `json:"start"`
	End            int64          `json:"end"`
	Step           int64          `json:"step"`
	Variables      map[string]any `json:"variables"`
	FormatForWeb   bool           `json:"formatForWeb,omitempty"`
	CompositeQuery CompositeQuery `json:"compositeQuery"`
}

// ServicesPayload is the request body for the services endpoint. SigNoz
// expects nanosecond timestamps serialized as strings here.
type ServicesPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Tags  []any  `json:"tags"`
}

// NewServicesPayload builds the service-list request for a time window.
func NewServicesPayload(w TimeWindow) ServicesPayload {
	return ServicesPayload{
		Start: fmt.Sprintf("%d", w.StartNano()),
		End:   fmt.Sprintf("%d", w.EndNano()),
		Tags:  []any{},
	}
}

// NewClickhousePayload wraps a raw ClickHouse SQL query in a composite
// query. The SQL is passed through as given; time scoping, if wanted, is
// the caller's job (see ScopeQueryTime).
func NewClickhousePayload(query string, w TimeWindow, panelType string) RangePayload {
	if panelType == "" {
		panelType = PanelTypeTable
	}
	return RangePayload{
		Start:        w.StartMilli(),
		End:          w.EndMilli(),
		Step:         w.StepSeconds(),
		Variables:    map[string]any{},
		FormatForWeb: true,
		CompositeQuery: CompositeQuery{
			QueryType: "clickhouse_sql",
			PanelType: panelType,
			CHQueries: map[string]CHQuery{
				"A": {Name: "A", Query: query},
			},
		},
	}
}

// NewBuilderPayload wraps normalized builder queries in a composite query.
func NewBuilderPayload(queries map[string]map[string]any, w TimeWindow, panelType string) RangePayload {
	if panelType == "" {
		panelType = PanelTypeTable
	}
	return RangePayload{
		Start:     w.StartMilli(),
		End:       w.EndMilli(),
		Step:      w.StepSeconds(),
		Variables: map[string]any{},
		CompositeQuery: CompositeQuery{
			QueryType:      "builder",
			PanelType:      panelType,
			BuilderQueries: queries,
		},
	}
}

// NormalizeBuilderQueries validates and normalizes a caller-supplied map of
// builder query specs keyed by query name ("A", "B", ...). Each spec must
// carry an aggregation operator and an aggregate attribute; group_by is
// renamed to the wire key, the step interval is forced to the shared window
// step, and metric datasources get the default page size.
func NormalizeBuilderQueries(queries map[string]map[string]any, stepSeconds int64) (map[string]map[string]any, error) {
	if len(queries) == 0 {
		return nil, Errorf(KindInvalidBuilderSpec, "builder query set is empty")
	}

	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Strings(names)

	normalized := make(map[string]map[string]any, len(queries))
	for _, name := range names {
		spec := queries[name]
		if spec == nil {
			return nil, Errorf(KindInvalidBuilderSpec, "builder query %q is empty", name)
		}

		op, _ := spec["aggregateOperator"].(string)
		if op == "" {
			return nil, Errorf(KindInvalidBuilderSpec,
				"builder query %q is missing aggregateOperator", name)
		}
		if !hasAggregateAttribute(spec) {
			return nil, Errorf(KindInvalidBuilderSpec,
				"builder query %q is missing aggregateAttribute.key", name)
		}

		out := make(map[string]any, len(spec)+4)
		for k, v := range spec {
			if k == "step_interval" {
				continue
			}
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
		normalized[name] = out
	}
	return normalized, nil
}

func hasAggregateAttribute(spec map[string]any) bool {
	attr, ok := spec["aggregateAttribute"].(map[string]any)
	if !ok {
		return false
	}
	key, _ := attr["key"].(string)
	return key != ""
}

// APMMetrics is the fixed sub-query set expanded by fetch_apm_metrics.
var APMMetrics = []string{"request_rate", "error_rate", "latency_p50", "latency_p95", "latency_p99"}

type apmTemplate struct {
	operator        string
	attributeKey    string
	timeAggregation string
	legend          string
}

var apmTemplates = map[string]apmTemplate{
	"request_rate": {operator: "sum_rate", attributeKey: "signoz_latency.count", timeAggregation: "rate", legend: "Request Rate"},
	"error_rate":   {operator: "sum_rate", attributeKey: "signoz_errors.count", timeAggregation: "rate", legend: "Error Rate"},
	"latency_p50":  {operator: "hist_quantile_50", attributeKey: "signoz_latency.bucket", timeAggregation: "sum", legend: "Latency p50"},
	"latency_p95":  {operator: "hist_quantile_95", attributeKey: "signoz_latency.bucket", timeAggregation: "sum", legend: "Latency p95"},
	"latency_p99":  {operator: "hist_quantile_99", attributeKey: "signoz_latency.bucket", timeAggregation: "sum", legend: "Latency p99"},
}

// APMQuery builds the single builder query for one APM sub-metric, scoped
// to a service and optionally to a set of operation names. The metric name
// must be one of APMMetrics.
func APMQuery(metric, service string, operations []string, stepSeconds int64) (map[string]any, error) {
	tmpl, ok := apmTemplates[metric]
	if !ok {
		return nil, Errorf(KindValidation, "unknown APM metric %q", metric)
	}

	filters := []map[string]any{
		{
			"key":   map[string]any{"key": "service.name", "dataType": "string", "isColumn": false, "type": "resource"},
			"op":    "IN",
			"value": []string{service},
		},
	}
	if len(operations) > 0 {
		filters = append(filters, map[string]any{
			"key":   map[string]any{"key": "operation", "dataType": "string", "isColumn": false, "type": "tag"},
			"op":    "IN",
			"value": operations,
		})
	}

	return map[string]any{
		"dataSource":        "metrics",
		"queryName":         "A",
		"expression":        "A",
		"aggregateOperator": tmpl.operator,
		"aggregateAttribute": map[string]any{
			"key": tmpl.attributeKey, "dataType": "float64", "isColumn": true, "type": "",
		},
		"timeAggregation":  tmpl.timeAggregation,
		"spaceAggregation": "sum",
		"stepInterval":     stepSeconds,
		"filters":          map[string]any{"items": filters, "op": "AND"},
		"groupBy":          []any{},
		"legend":           tmpl.legend,
		"reduceTo":         "avg",
		"disabled":         false,
	}, nil
}

// sqlClauseMarkers make a raw query ambiguous for time scoping: appending
// a WHERE clause after any of these would change its meaning.
var sqlClauseMarkers = []string{" where ", " group by ", " order by ", " limit ", " union ", " join ", ";"}

// ScopeQueryTime appends a timestamp window predicate to a raw ClickHouse
// query when the query clearly has none. Detection is string-based and
// best-effort, not a SQL parser: any mention of a timestamp column or any
// clause that makes appending unsafe leaves the query untouched, and the
// caller stays responsible for time scoping.
func ScopeQueryTime(query string, w TimeWindow) string {
	lower := " " + strings.ToLower(strings.TrimSpace(query)) + " "
	if strings.Contains(lower, "timestamp") {
		return query
	}
	for _, marker := range sqlClauseMarkers {
		if strings.Contains(lower, marker) {
			return query
		}
	}
	return fmt.Sprintf("%s WHERE timestamp >= toDateTime64(%d, 9) AND timestamp <= toDateTime64(%d, 9)",
		strings.TrimSpace(query), w.Start.Unix(), w.End.Unix())
}

// TraceLogSQL synthesizes the ClickHouse SELECT used by the trace/log fetch
// tool. dataType selects the table and column set; service, when set, adds
// an equality filter.
func TraceLogSQL(dataType, service string, w TimeWindow, limit int) (string, error) {
	var table, columns, serviceClause string
	switch dataType {
	case "traces":
		table, columns = constants.TracesTable, constants.TracesColumns
		serviceClause = fmt.Sprintf("serviceName = '%s'", escapeSQLString(service))
	case "logs":
		table, columns = constants.LogsTable, constants.LogsColumns
		serviceClause = fmt.Sprintf("JSONExtractString(resource_attributes, 'service.name') = '%s'", escapeSQLString(service))
	default:
		return "", Errorf(KindValidation,
			"invalid data_type %q: must be \"traces\" or \"logs\"", dataType)
	}

	where := []string{
		fmt.Sprintf("timestamp >= toDateTime64(%d, 9)", w.Start.Unix()),
		fmt.Sprintf("timestamp < toDateTime64(%d, 9)", w.End.Unix()),
	}
	if service != "" {
		where = append(where, serviceClause)
	}

	return fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT %d",
		columns, table, strings.Join(where, " AND "), limit), nil
}

func escapeSQLString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
