package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/boardkit/internal/platform/otel"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		enabled  string
	}{
		{name: "noop without endpoint"},
		{name: "noop when disabled", endpoint: "http://localhost:4318", enabled: "false"},
		// Non-routable address so nothing is exported.
		{name: "provider with endpoint", endpoint: "http://192.0.2.1:4318"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BOARDKIT_OTEL_ENDPOINT", tt.endpoint)
			t.Setenv("BOARDKIT_OTEL_ENABLED", tt.enabled)

			shutdown, err := otel.Setup(context.Background(), "test-service")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown error: %v", err)
			}
		})
	}
}

func TestSetupRejectsMalformedEnabled(t *testing.T) {
	t.Setenv("BOARDKIT_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("BOARDKIT_OTEL_ENABLED", "perhaps")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}
