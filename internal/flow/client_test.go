package flow

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"flowbridge/internal/config"
)

func testFlowLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestForward_QueryEncoding(t *testing.T) {
	var gotText, gotSender string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/receive" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotText = r.URL.Query().Get("text")
		gotSender = r.URL.Query().Get("sender")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		Config: config.FlowConfig{BaseURL: srv.URL, TimeoutSeconds: 5},
		Logger: testFlowLogger(),
		Client: srv.Client(),
	})

	if err := c.Forward(context.Background(), "+15551234567", "Hello & goodbye?"); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if gotText != "Hello & goodbye?" {
		t.Errorf("text not round-tripped: %q", gotText)
	}
	if gotSender != "+15551234567" {
		t.Errorf("sender not round-tripped: %q", gotSender)
	}
}

func TestForward_EngineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		Config: config.FlowConfig{BaseURL: srv.URL},
		Logger: testFlowLogger(),
		Client: srv.Client(),
	})

	if err := c.Forward(context.Background(), "+1555", "hi"); err == nil {
		t.Fatal("expected error for engine 4xx")
	}
}
