package application_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"bmshooter/server/application"
	"bmshooter/server/domain"
)

// グローバルのTracerProviderを差し替えるのはこのテストだけにする
func TestDeathController_RespawnRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	c, timers, nav, rep := newAuthorityCharacter(t, ctrl)

	rep.EXPECT().ReplicateHealth(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	rep.EXPECT().ReplicateDeath(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	rep.EXPECT().ReplicateTransform(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	nav.EXPECT().RandomPoint(gomock.Any()).Return(domain.Vec3{}, application.ErrNoNavigablePoint)

	c.Health.Damage(ctx, 100)
	timers.Advance(ctx, application.DefaultRespawnDelay)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "character.respawn" {
		t.Errorf("span name = %q", span.Name())
	}
	var fallback bool
	for _, ev := range span.Events() {
		if ev.Name == "fallback spawn" {
			fallback = true
		}
	}
	if !fallback {
		t.Error("fallback spawn event was not recorded")
	}
}
