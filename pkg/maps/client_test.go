package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/gaslinkhq/gaslink-backend/pkg/errors"
)

func TestDistanceParsesMatrixResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("origins"); got != "12 Agency Road" {
			t.Errorf("unexpected origins %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"rows": [{"elements": [{"status": "OK", "distance": {"value": 7300}, "duration": {"value": 1080}}]}]
		}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Distance(context.Background(), "12 Agency Road", "44 Customer Lane")
	if err != nil {
		t.Fatalf("distance: %v", err)
	}
	if result.DistanceKm != 7.3 {
		t.Fatalf("expected 7.3 km, got %v", result.DistanceKm)
	}
	if result.DurationMinutes != 18 {
		t.Fatalf("expected 18 minutes, got %v", result.DurationMinutes)
	}
}

func TestDistanceUnresolvableRoute(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"rows": [{"elements": [{"status": "NOT_FOUND"}]}]
		}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Distance(context.Background(), "nowhere", "nothing")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestDistanceTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	server.Close() // connection refused

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Distance(context.Background(), "a", "b")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
