package main

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// promptDef defines a prompt's metadata and its workflow text. Argument
// values replace $UPPER_SNAKE placeholders in the text; placeholders
// without a value are left for the agent to fill in.
type promptDef struct {
	prompt   *mcp.Prompt
	workflow string
	argNames []string
}

var promptDefs = []promptDef{
	{
		prompt: &mcp.Prompt{
			Name:        "investigate-service-health",
			Title:       "Investigate Service Health",
			Description: "Walk through the health of one service: APM metrics, recent error traces, and correlated logs.",
			Arguments: []*mcp.PromptArgument{
				{Name: "service_name", Description: "Name of the service to investigate", Required: true},
				{Name: "duration", Description: "Look-back range, e.g. 1h or 24h", Required: false},
			},
		},
		workflow: `Investigate the health of the service $SERVICE_NAME over the last $DURATION.

1. Call test_connection to confirm the SigNoz instance is reachable.
2. Call fetch_apm_metrics for $SERVICE_NAME to get request rate, error rate,
   and latency quantiles. Note any metric whose shape changes sharply.
3. If the error rate is elevated, call fetch_traces_or_logs with
   data_type="traces" and service_name="$SERVICE_NAME" to sample failing
   spans, then again with data_type="logs" around the same window.
4. Summarize: what changed, when it started, and which operations are
   affected. Quote concrete numbers from the metrics.`,
		argNames: []string{"service_name", "duration"},
	},
	{
		prompt: &mcp.Prompt{
			Name:        "explore-dashboards",
			Title:       "Explore Dashboards",
			Description: "Find the dashboard relevant to a question and read its data instead of guessing at raw queries.",
			Arguments: []*mcp.PromptArgument{
				{Name: "topic", Description: "What you are looking for, e.g. kafka, api latency", Required: false},
			},
		},
		workflow: `Find and read the dashboards relevant to: $TOPIC

1. Call fetch_dashboards and pick the dashboards whose titles or tags match
   the topic.
2. Call fetch_dashboard_details on the best match to see which panels exist
   before fetching any data.
3. Call fetch_dashboard_data with the dashboard title to execute its panels.
   Skipped or failing panels are reported per panel; do not treat them as a
   failure of the whole dashboard.
4. Only fall back to execute_clickhouse_query or execute_builder_query when
   no dashboard covers the question.`,
		argNames: []string{"topic"},
	},
}

// registerAllPrompts registers the investigation prompts with the server.
func registerAllPrompts(server *mcp.Server) {
	for _, def := range promptDefs {
		server.AddPrompt(def.prompt, makePromptHandler(def))
	}
}

func makePromptHandler(def promptDef) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		workflow := substituteArgs(def.workflow, req.Params.Arguments, def.argNames)
		return &mcp.GetPromptResult{
			Description: def.prompt.Description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    mcp.Role("user"),
					Content: &mcp.TextContent{Text: workflow},
				},
			},
		}, nil
	}
}

// substituteArgs replaces $UPPER_SNAKE placeholders in text with argument
// values, e.g. "service_name" fills "$SERVICE_NAME".
func substituteArgs(text string, args map[string]string, argNames []string) string {
	for _, name := range argNames {
		val, ok := args[name]
		if !ok || val == "" {
			continue
		}
		placeholder := "$" + strings.ToUpper(name)
		text = strings.ReplaceAll(text, placeholder, val)
	}
	return text
}
