package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signoz-mcp/internal/models"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HTTPServer serves the MCP server over streamable HTTP instead of stdio.
type HTTPServer struct {
	server *mcp.Server
	config models.Config
	addr   string
}

// NewHTTPServer creates a new HTTP-based MCP server.
func NewHTTPServer(server *mcp.Server, config models.Config, addr string) *HTTPServer {
	return &HTTPServer{
		server: server,
		config: config,
		addr:   addr,
	}
}

// Start runs the HTTP server until a termination signal arrives, then shuts
// it down gracefully.
func (h *HTTPServer) Start() error {
	mux := http.NewServeMux()

	// Stateless MCP handler for maximum client compatibility: direct tool
	// calls work without session management, which also suits serverless
	// deployments and horizontal scaling.
	httpHandler := mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return h.server
	}, nil)

	// Register on both root and /mcp so clients with either convention work.
	mux.Handle("/", httpHandler)
	mux.Handle("/mcp", httpHandler)
	mux.HandleFunc("/health", h.handleHealth)

	httpServer := &http.Server{
		Addr:         h.addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("MCP server listening on %s", h.addr)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case sig := <-signalChan:
		log.Printf("received signal %v, shutting down", sig)
	case err := <-serverErr:
		log.Printf("server error: %v", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		return err
	}
	log.Printf("shutdown complete")
	return nil
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"server":  "signoz-mcp",
		"version": Version,
	})
}
