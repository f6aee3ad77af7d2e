package signoz

import (
	"bytes"
	"io"
	"log"
	"net/http"
)

// DebugTransport wraps an http.RoundTripper and logs request URL and body.
type DebugTransport struct {
	Transport http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (d *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	log.Printf("[DEBUG] %s %s", req.Method, req.URL.String())

	if req.Body != nil && req.ContentLength > 0 {
		bodyBytes, err := io.ReadAll(req.Body)
		if err == nil {
			req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodyStr := string(bodyBytes)
			if len(bodyStr) > 5000 {
				bodyStr = bodyStr[:5000] + "... [truncated]"
			}
			log.Printf("[DEBUG] Body: %s", bodyStr)
		}
	}

	return d.Transport.RoundTrip(req)
}

// WrapTransportWithDebug wraps a transport with debug logging if enabled.
func WrapTransportWithDebug(transport http.RoundTripper, debug bool) http.RoundTripper {
	if !debug {
		return transport
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &DebugTransport{Transport: transport}
}
