package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestHealthHandler(t *testing.T) {
	srv := NewServer("127.0.0.1:0", func(context.Context) HealthStatus {
		return HealthStatus{Status: "down", Timestamp: time.Unix(0, 0), Details: map[string]string{"graph": "missing"}}
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var got HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Details["graph"] != "missing" {
		t.Fatalf("details = %v", got.Details)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	FilesScannedTotal.Inc()
	StatementsTotal.WithLabelValues("StaticImport").Inc()

	rec := httptest.NewRecorder()
	NewServer("", nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, name := range []string{"jsdeps_files_scanned_total", "jsdeps_statements_total"} {
		if !strings.Contains(rec.Body.String(), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestServerStartStop(t *testing.T) {
	srv := NewServer("127.0.0.1:0", nil)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer srv.Stop(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingConfig{Enabled: true})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestTracerDelegates(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := Tracer.Start(context.Background(), "test.span")
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "test.span" {
		t.Fatalf("spans = %v", spans)
	}
}
