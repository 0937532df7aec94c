package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bmshooter/server"
	"bmshooter/server/application"
	"bmshooter/server/config"
	"bmshooter/server/domain"
	"bmshooter/server/navigation"
	"bmshooter/server/telemetry"
)

const serviceName = "bmshooter"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.OtelEndpoint, serviceName)
	if err != nil {
		slog.Error("failed to set up telemetry", "err", err)
		os.Exit(1)
	}
	text := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(telemetry.NewLogHandler(text, cfg.OtelEndpoint, serviceName)))

	shooterCfg := cfg.Shooter()
	var navigator application.Navigator
	if mesh := loadNavMesh(ctx, cfg); mesh != nil {
		navigator = mesh
		if cfg.NavMeshWatch {
			go func() {
				if err := navigation.Watch(ctx, cfg.NavMeshPath, mesh); err != nil {
					slog.WarnContext(ctx, "navmesh watch stopped", "err", err)
				}
			}()
		}
	}

	// PubSub初期化
	pubsub := domain.NewSimplePubSub()

	// デフォルトルーム設定
	roomManager := domain.NewSimpleRoomManager(domain.DefaultRoomID)

	app := application.NewShooterApplication(shooterCfg, navigator)
	room := domain.NewRoom(domain.DefaultRoomID, pubsub, app, cfg.TickInterval())
	go func() {
		if err := room.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.ErrorContext(ctx, "room error", "err", err)
		}
	}()

	handler := server.Route(pubsub, roomManager, room, cfg.EndpointOptions()...)
	s := server.NewServer(cfg.Address(), handler)

	go func() {
		if err := s.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "http server error", "err", err)
			stop()
		}
	}()
	slog.InfoContext(ctx, "server listening", "addr", cfg.Address(), "tickRate", cfg.TickRate)

	<-ctx.Done()
	slog.InfoContext(ctx, "shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "graceful shutdown failed", "error", err)
		if err := s.Close(); err != nil {
			slog.ErrorContext(ctx, "forced close failed", "error", err)
		}
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "telemetry shutdown failed", "err", err)
	}
	slog.InfoContext(ctx, "server shutdown complete")
}

// loadNavMesh はナビゲーションファイルを読み込みます。読めなければnilを返し、出現地点はフォールバックになります。
// ファイルにfallbackがあれば環境変数の値より優先します。
func loadNavMesh(ctx context.Context, cfg config.Config) *navigation.NavMesh {
	if cfg.NavMeshPath == "" {
		slog.WarnContext(ctx, "NAVMESH_PATH is empty, spawning at fallback point")
		return nil
	}
	spec, err := navigation.Load(cfg.NavMeshPath)
	if err != nil {
		slog.WarnContext(ctx, "failed to load navmesh, spawning at fallback point", "err", err)
		return nil
	}
	mesh := navigation.NewNavMesh(spec.Areas, nil)
	mesh.SetFallback(spec.Fallback)
	slog.InfoContext(ctx, "navmesh loaded", "name", spec.Name, "areas", mesh.Len())
	return mesh
}
