package telemetry_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"bmshooter/server/telemetry"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), "", "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_CreatesProvidersWhenEndpointSet(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 到達不能なアドレスなので実際の送信は起きない
	shutdown, err := telemetry.Setup(ctx, "http://192.0.2.1:4317", "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestNewLogHandler(t *testing.T) {
	base := slog.NewTextHandler(os.Stdout, nil)

	if got := telemetry.NewLogHandler(base, "", "svc"); got != base {
		t.Error("empty endpoint should return the base handler")
	}
	if got := telemetry.NewLogHandler(base, "http://192.0.2.1:4317", "svc"); got == base {
		t.Error("endpoint set should wrap the base handler")
	}
}
