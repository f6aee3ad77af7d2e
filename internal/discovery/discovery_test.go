package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"signoz-mcp/internal/models"
	"signoz-mcp/internal/signoz"
	"signoz-mcp/internal/testutil"
)

func newClient(t *testing.T, mock *testutil.MockSignoz) (*signoz.Client, models.Config) {
	t.Helper()
	cfg := testutil.MockConfig(mock.URL())
	client, err := signoz.NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, cfg
}

func TestTestConnectionSucceeds(t *testing.T) {
	mock := testutil.NewMockSignoz(t)
	mock.HandleJSON("/api/v1/health", `{"status": "ok"}`)

	client, cfg := newClient(t, mock)
	res, _, err := NewTestConnectionHandler(client, cfg)(context.Background(), nil, TestConnectionArgs{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	result := testutil.DecodeResult(t, res)
	testutil.RequireStatus(t, result, models.StatusOK, "")

	data := result.Data.(map[string]any)
	if data["endpoint"] != "/api/v1/health" {
		t.Errorf("endpoint = %v", data["endpoint"])
	}
	if data["authenticated"] != true {
		t.Errorf("authenticated = %v, want true", data["authenticated"])
	}
}

func TestTestConnectionFallsThroughProbes(t *testing.T) {
	mock := testutil.NewMockSignoz(t)
	mock.HandleStatus("/api/v1/health", http.StatusNotFound)
	mock.HandleJSON("/api/v1/version", `{"version": "v0.54.0"}`)

	client, cfg := newClient(t, mock)
	res, _, err := NewTestConnectionHandler(client, cfg)(context.Background(), nil, TestConnectionArgs{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	result := testutil.DecodeResult(t, res)
	testutil.RequireStatus(t, result, models.StatusOK, "")
	if data := result.Data.(map[string]any); data["endpoint"] != "/api/v1/version" {
		t.Errorf("endpoint = %v, want /api/v1/version", data["endpoint"])
	}
}

func TestTestConnectionAllProbesFail(t *testing.T) {
	mock := testutil.NewMockSignoz(t)

	client, cfg := newClient(t, mock)
	res, _, err := NewTestConnectionHandler(client, cfg)(context.Background(), nil, TestConnectionArgs{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	result := testutil.DecodeResult(t, res)
	testutil.RequireStatus(t, result, models.StatusError, signoz.KindTransport)
}

func TestFetchServices(t *testing.T) {
	mock := testutil.NewMockSignoz(t)
	var gotPayload map[string]any
	mock.Handle("/api/v1/services", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`[{"serviceName": "svc-a", "p99": 120.5}]`))
	})

	client, cfg := newClient(t, mock)
	res, _, err := NewFetchServicesHandler(client, cfg)(context.Background(), nil, FetchServicesArgs{Duration: "24h"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	result := testutil.DecodeResult(t, res)
	testutil.RequireStatus(t, result, models.StatusOK, "")

	services := result.Data.([]any)
	if len(services) != 1 {
		t.Fatalf("services = %d, want 1", len(services))
	}
	if svc := services[0].(map[string]any); svc["name"] != "svc-a" {
		t.Errorf("name = %v, want svc-a", svc["name"])
	}

	// Platform expects nanosecond timestamps as strings with an empty tag
	// array.
	if _, ok := gotPayload["start"].(string); !ok {
		t.Errorf("start = %T, want string", gotPayload["start"])
	}
	if tags, ok := gotPayload["tags"].([]any); !ok || len(tags) != 0 {
		t.Errorf("tags = %v, want []", gotPayload["tags"])
	}
}

func TestFetchServicesExplicitBounds(t *testing.T) {
	mock := testutil.NewMockSignoz(t)
	var gotPayload map[string]any
	mock.Handle("/api/v1/services", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`[]`))
	})

	client, cfg := newClient(t, mock)
	_, _, err := NewFetchServicesHandler(client, cfg)(context.Background(), nil, FetchServicesArgs{
		StartTime: "2026-08-28T10:00:00Z",
		EndTime:   "2026-08-28T11:00:00Z",
		Duration:  "24h",
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	wantStart := strconv.FormatInt(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC).UnixNano(), 10)
	wantEnd := strconv.FormatInt(time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC).UnixNano(), 10)
	if gotPayload["start"] != wantStart || gotPayload["end"] != wantEnd {
		t.Errorf("bounds = [%v, %v], want [%s, %s] (explicit bounds win over duration)",
			gotPayload["start"], gotPayload["end"], wantStart, wantEnd)
	}
}

func TestFetchServicesOneSidedBoundsRejected(t *testing.T) {
	mock := testutil.NewMockSignoz(t)

	client, cfg := newClient(t, mock)
	res, _, err := NewFetchServicesHandler(client, cfg)(context.Background(), nil, FetchServicesArgs{EndTime: "now"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	result := testutil.DecodeResult(t, res)
	testutil.RequireStatus(t, result, models.StatusError, signoz.KindValidation)
	if n := mock.RequestCount(); n != 0 {
		t.Errorf("requests = %d, want 0 before validation passes", n)
	}
}

func TestFetchServicesInvalidDurationMakesNoRequest(t *testing.T) {
	mock := testutil.NewMockSignoz(t)

	client, cfg := newClient(t, mock)
	res, _, err := NewFetchServicesHandler(client, cfg)(context.Background(), nil, FetchServicesArgs{Duration: "yesterday"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	result := testutil.DecodeResult(t, res)
	testutil.RequireStatus(t, result, models.StatusError, signoz.KindInvalidDuration)
	if n := mock.RequestCount(); n != 0 {
		t.Errorf("requests = %d, want 0 before validation passes", n)
	}
}
