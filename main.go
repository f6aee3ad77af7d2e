// An MCP server implementation for SigNoz that lets AI agents query
// dashboards, APM metrics, traces, and logs from a SigNoz instance.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"signoz-mcp/internal/models"
	"signoz-mcp/internal/signoz"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/peterbourgon/ff/v3"
)

func main() {
	cfg, httpAddr, err := setupConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	client, err := signoz.NewClient(cfg)
	if err != nil {
		log.Fatalf("client setup: %v", err)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "signoz-mcp",
		Version: Version,
	}, nil)

	registerAllTools(server, client, cfg)
	registerAllPrompts(server)

	if httpAddr != "" {
		if err := NewHTTPServer(server, cfg, httpAddr).Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
		return
	}

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

// Version information
var (
	Version   = "dev"     // Set by goreleaser
	CommitSHA = "unknown" // Set by goreleaser
	BuildTime = "unknown" // Set by goreleaser
)

// setupConfig initializes and parses the configuration. Every flag can also
// be set through a SIGNOZ_* environment variable or a config file.
func setupConfig() (models.Config, string, error) {
	fs := flag.NewFlagSet("signoz-mcp", flag.ExitOnError)

	var cfg models.Config
	var httpAddr string
	var timeout time.Duration

	fs.StringVar(&cfg.BaseURL, "host", os.Getenv("SIGNOZ_HOST"), "SigNoz instance URL, e.g. https://signoz.example.com")
	fs.StringVar(&cfg.APIKey, "api-key", os.Getenv("SIGNOZ_API_KEY"), "SigNoz API key (optional for unauthenticated instances)")
	fs.BoolVar(&cfg.SSLVerify, "ssl-verify", true, "Verify TLS certificates on outbound requests")
	fs.DurationVar(&timeout, "timeout", 0, "Per-request timeout (default 30s)")
	fs.BoolVar(&cfg.Debug, "debug", false, "Log outbound requests")
	fs.Float64Var(&cfg.RequestRateLimit, "rate", 10, "Requests per second limit toward SigNoz")
	fs.IntVar(&cfg.RequestRateBurst, "burst", 10, "Request burst capacity")
	fs.StringVar(&httpAddr, "http", "", "Serve MCP over HTTP on this address (e.g. :8080) instead of stdio")

	var configFile string
	fs.StringVar(&configFile, "config", "", "config file path")

	err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SIGNOZ"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	)
	if err != nil {
		return cfg, "", fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.BaseURL == "" {
		return cfg, "", errors.New("SigNoz host must be provided via SIGNOZ_HOST env var or -host flag")
	}
	cfg.Timeout = timeout

	return cfg, httpAddr, nil
}
