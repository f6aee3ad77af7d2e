package signoz

import (
	"encoding/json"
	"math"
	"strconv"
)

// Point is one time bucket of a series. Value is nil for buckets the
// platform reported as null; those are kept, not dropped, so gaps stay
// visible to the caller.
type Point struct {
	Timestamp int64    `json:"timestamp"`
	Value     *float64 `json:"value"`
}

// UnmarshalJSON accepts the value as a JSON number, a quoted number (the
// platform emits both depending on the query type), or null.
func (p *Point) UnmarshalJSON(b []byte) error {
	var raw struct {
		Timestamp int64           `json:"timestamp"`
		Value     json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Timestamp = raw.Timestamp
	p.Value = nil

	s := string(raw.Value)
	if s == "" || s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		// NaN/Inf and non-numeric values read as empty buckets; they
		// cannot round-trip through JSON anyway.
		return nil
	}
	p.Value = &v
	return nil
}

// Series is one labeled time series in chronological upstream order.
type Series struct {
	Labels map[string]string `json:"labels,omitempty"`
	Points []Point           `json:"points"`
}

// Table is a tabular result. Columns keep the upstream names and order
// verbatim; each row holds values in column order.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// QueryResult is the normalized outcome of one named query inside a
// query_range response. Exactly one of Series, Table, or Rows is set,
// matching the shape the platform returned.
type QueryResult struct {
	Name   string           `json:"name"`
	Series []Series         `json:"series,omitempty"`
	Table  *Table           `json:"table,omitempty"`
	Rows   []map[string]any `json:"rows,omitempty"`
}

type rawQueryEntry struct {
	QueryName string           `json:"queryName"`
	Series    []rawSeries      `json:"series"`
	Table     *rawTable        `json:"table"`
	List      []map[string]any `json:"list"`
}

// rawSeries matches the upstream field names; the platform calls the
// bucket array "values".
type rawSeries struct {
	Labels map[string]string `json:"labels"`
	Values []Point           `json:"values"`
}

type rawTable struct {
	Columns []struct {
		Name string `json:"name"`
	} `json:"columns"`
	Rows []struct {
		Data map[string]any `json:"data"`
	} `json:"rows"`
}

type queryRangeEnvelope struct {
	Status string `json:"status"`
	Data   *struct {
		ResultType string          `json:"resultType"`
		Result     []rawQueryEntry `json:"result"`
	} `json:"data"`
}

// NormalizeQueryRange maps a query_range response body into per-query
// results. Series order, point order, column order, and row order all
// follow the upstream payload.
func NormalizeQueryRange(body []byte) ([]QueryResult, error) {
	var env queryRangeEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, Errorf(KindMalformed, "query response is not valid JSON: %v", err)
	}
	if env.Data == nil {
		return nil, Errorf(KindMalformed, "query response has no data field")
	}

	results := make([]QueryResult, 0, len(env.Data.Result))
	for _, entry := range env.Data.Result {
		r := QueryResult{Name: entry.QueryName}
		switch {
		case entry.Table != nil:
			r.Table = normalizeTable(entry.Table)
		case entry.List != nil:
			r.Rows = entry.List
		default:
			r.Series = make([]Series, len(entry.Series))
			for i, s := range entry.Series {
				r.Series[i] = Series{Labels: s.Labels, Points: s.Values}
			}
		}
		results = append(results, r)
	}
	return results, nil
}

func normalizeTable(t *rawTable) *Table {
	out := &Table{
		Columns: make([]string, len(t.Columns)),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, c := range t.Columns {
		out.Columns[i] = c.Name
	}
	for i, row := range t.Rows {
		values := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			values[j] = row.Data[c.Name]
		}
		out.Rows[i] = values
	}
	return out
}

// DashboardSummary is one entry of the dashboard list.
type DashboardSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type rawDashboardItem struct {
	UUID string         `json:"uuid"`
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

func (d rawDashboardItem) identifier() string {
	if d.UUID != "" {
		return d.UUID
	}
	return d.ID
}

// NormalizeDashboardList maps the dashboard-list response into summaries.
// An entry without an identifier or a title means the payload is not what
// this endpoint returns, so the whole response is rejected rather than
// silently thinned out.
func NormalizeDashboardList(body []byte) ([]DashboardSummary, error) {
	var env struct {
		Data []rawDashboardItem `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, Errorf(KindMalformed, "dashboard list is not valid JSON: %v", err)
	}
	if env.Data == nil {
		return nil, Errorf(KindMalformed, "dashboard list has no data field")
	}

	out := make([]DashboardSummary, 0, len(env.Data))
	for i, item := range env.Data {
		id := item.identifier()
		title, _ := item.Data["title"].(string)
		if id == "" || title == "" {
			return nil, Errorf(KindMalformed, "dashboard entry %d is missing id or title", i)
		}
		s := DashboardSummary{ID: id, Title: title}
		s.Description, _ = item.Data["description"].(string)
		if tags, ok := item.Data["tags"].([]any); ok {
			for _, t := range tags {
				if ts, ok := t.(string); ok {
					s.Tags = append(s.Tags, ts)
				}
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// PanelSummary is one widget of a dashboard. Query keeps the widget's raw
// query block so data fetches can rebuild it against a new time window.
type PanelSummary struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Type  string         `json:"type"`
	Query map[string]any `json:"query,omitempty"`
}

// DashboardDetail is the normalized dashboard-detail response.
type DashboardDetail struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Variables   map[string]any `json:"variables,omitempty"`
	Panels      []PanelSummary `json:"panels"`
}

// NormalizeDashboardDetail maps the dashboard-detail response. A response
// without a title is rejected as malformed; widgets without a query block
// are kept so the caller can still see the panel inventory.
func NormalizeDashboardDetail(body []byte) (*DashboardDetail, error) {
	var env struct {
		Data *rawDashboardItem `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, Errorf(KindMalformed, "dashboard detail is not valid JSON: %v", err)
	}
	if env.Data == nil || env.Data.Data == nil {
		return nil, Errorf(KindMalformed, "dashboard detail has no data field")
	}

	title, _ := env.Data.Data["title"].(string)
	if title == "" {
		return nil, Errorf(KindMalformed, "dashboard detail is missing title")
	}

	detail := &DashboardDetail{
		ID:     env.Data.identifier(),
		Title:  title,
		Panels: []PanelSummary{},
	}
	detail.Description, _ = env.Data.Data["description"].(string)
	detail.Variables, _ = env.Data.Data["variables"].(map[string]any)

	widgets, _ := env.Data.Data["widgets"].([]any)
	for _, w := range widgets {
		widget, ok := w.(map[string]any)
		if !ok {
			continue
		}
		p := PanelSummary{}
		p.ID, _ = widget["id"].(string)
		p.Title, _ = widget["title"].(string)
		p.Type, _ = widget["panelTypes"].(string)
		p.Query, _ = widget["query"].(map[string]any)
		detail.Panels = append(detail.Panels, p)
	}
	return detail, nil
}

// ServiceEntry is one monitored service with its rate/latency metadata
// passed through as returned.
type ServiceEntry struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NormalizeServices maps the service-list response. Both the bare-array
// form and the {data: [...]} wrapper are accepted; entries must carry a
// serviceName or name field.
func NormalizeServices(body []byte) ([]ServiceEntry, error) {
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		var env struct {
			Data []map[string]any `json:"data"`
		}
		if err := json.Unmarshal(body, &env); err != nil || env.Data == nil {
			return nil, Errorf(KindMalformed, "service list is not valid JSON array or data wrapper")
		}
		items = env.Data
	}

	out := make([]ServiceEntry, 0, len(items))
	for i, item := range items {
		name, _ := item["serviceName"].(string)
		if name == "" {
			name, _ = item["name"].(string)
		}
		if name == "" {
			return nil, Errorf(KindMalformed, "service entry %d has no name", i)
		}
		meta := make(map[string]any, len(item))
		for k, v := range item {
			if k == "serviceName" || k == "name" {
				continue
			}
			meta[k] = v
		}
		if len(meta) == 0 {
			meta = nil
		}
		out = append(out, ServiceEntry{Name: name, Metadata: meta})
	}
	return out, nil
}
