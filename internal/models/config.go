package models

import "time"

// Config holds the server configuration parameters. It is constructed once
// at startup and treated as read-only for the process lifetime.
type Config struct {
	// SigNoz connection settings
	BaseURL   string // SigNoz instance URL, e.g. https://signoz.example.com
	APIKey    string // SIGNOZ-API-KEY value, optional for unauthenticated instances
	SSLVerify bool   // Verify TLS certificates on outbound requests

	// HTTP client behaviour
	Timeout time.Duration // Per-request timeout
	Debug   bool          // Log outbound requests

	// Rate limiting configuration
	RequestRateLimit float64 // Maximum requests per second
	RequestRateBurst int     // Maximum burst capacity for requests
}
