package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	adapterwebsocket "bmshooter/server/adapter/websocket"
	"bmshooter/server/application"
	"bmshooter/server/config"
	"bmshooter/server/domain"
	"bmshooter/server/telemetry"
)

const serviceName = "bmshooter-bot"

func main() {
	cfg, err := config.LoadBot()
	if err != nil {
		slog.Error("invalid bot config", "err", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.OtelEndpoint, serviceName)
	if err != nil {
		slog.Error("failed to set up telemetry", "err", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "err", err)
		}
	}()
	text := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(telemetry.NewLogHandler(text, cfg.OtelEndpoint, serviceName)))

	serverURL := cfg.URL()
	slog.Info("starting bots", "count", cfg.BotCount, "server", serverURL)

	var wg sync.WaitGroup
	for i := range cfg.BotCount {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runBot(ctx, serverURL, cfg.ActionInterval, id)
		}(i)
	}

	wg.Wait()
	slog.Info("all bots stopped")
}

func runBot(ctx context.Context, serverURL string, interval time.Duration, id int) {
	logger := slog.With("botID", id)

	for {
		if ctx.Err() != nil {
			return
		}
		err := botSession(ctx, serverURL, interval, logger)
		if err != nil && ctx.Err() == nil {
			logger.Warn("bot session ended, reconnecting", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}
}

// bot は1接続分のボットの状態です。受信ゴルーチンと行動ゴルーチンで共有するためmuで守ります。
type bot struct {
	conn       *domain.Connection
	logger     *slog.Logger
	controller application.BotController
	presenter  *application.LogPresenter

	seq atomic.Uint32

	mu        sync.Mutex
	sessionID domain.SessionID
	mirror    *application.Mirror
}

func botSession(ctx context.Context, serverURL string, interval time.Duration, logger *slog.Logger) error {
	transport, err := adapterwebsocket.Dial(ctx, serverURL)
	if err != nil {
		return err
	}
	conn := domain.NewConnection(transport)
	defer conn.Close(domain.CloseGoingAway, "")

	logger.Info("connected")
	b := &bot{
		conn:       conn,
		logger:     logger,
		controller: application.NewRuleBotController(),
		presenter:  application.NewLogPresenter(logger),
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return b.readLoop(ctx) })
	eg.Go(func() error { return b.actLoop(ctx, interval) })
	err = eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (b *bot) nextSeq() uint16 {
	return uint16(b.seq.Add(1))
}

func (b *bot) write(ctx context.Context, data []byte) error {
	return b.conn.Write(ctx, data)
}

func (b *bot) readLoop(ctx context.Context) error {
	for {
		data, err := b.conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}

		header, payloadHeader, _, err := domain.ParseMessage(data)
		if err != nil {
			b.logger.Debug("invalid frame", "err", err)
			continue
		}

		switch payloadHeader.DataType {
		case domain.DataTypeControl:
			if err := b.handleControl(ctx, header, domain.ControlSubType(payloadHeader.SubType)); err != nil {
				return err
			}
		case domain.DataTypeReplicate:
			b.mu.Lock()
			if b.mirror != nil {
				err = b.mirror.Apply(ctx, data)
			}
			b.mu.Unlock()
			if err != nil {
				b.logger.Debug("failed to apply replication", "err", err)
			}
		}
	}
}

func (b *bot) handleControl(ctx context.Context, header *domain.Header, subType domain.ControlSubType) error {
	switch subType {
	case domain.ControlSubTypeAssign:
		sessionID := domain.SessionIDFromBytes(header.SessionID)
		b.mu.Lock()
		b.sessionID = sessionID
		b.mirror = application.NewMirror(sessionID, b.presenter)
		b.mu.Unlock()
		b.logger.Info("session assigned", "sessionID", sessionID)

		// RoomIDゼロ値でデフォルトルームに参加
		if err := b.write(ctx, domain.EncodeJoinMessage(sessionID, b.nextSeq(), domain.RoomID{})); err != nil {
			return fmt.Errorf("send join: %w", err)
		}
		b.logger.Info("joined room")
	case domain.ControlSubTypePing:
		b.mu.Lock()
		sessionID := b.sessionID
		b.mu.Unlock()
		if err := b.write(ctx, domain.EncodeControlMessage(sessionID, b.nextSeq(), domain.ControlSubTypePong)); err != nil {
			return fmt.Errorf("send pong: %w", err)
		}
	case domain.ControlSubTypeKick, domain.ControlSubTypeError:
		return fmt.Errorf("closed by server: subType=%d", subType)
	}
	return nil
}

// actLoop は一定間隔で照準と射撃を決めて送ります。
func (b *bot) actLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.conn.Close(domain.CloseNormal, "shutdown")
			return ctx.Err()
		case <-ticker.C:
		}

		b.mu.Lock()
		if b.mirror == nil {
			b.mu.Unlock()
			continue
		}
		sessionID := b.sessionID
		self := b.mirror.Self()
		action := b.controller.Decide(self, b.mirror.Characters())
		if action.HasAim {
			self.SetLocalAim(action.Aim)
		}
		var origin domain.Vec3
		if self != nil {
			origin = self.EyeLocation()
		}
		b.mu.Unlock()

		if !action.HasAim {
			continue
		}
		aim := domain.AimPayload{Rotation: action.Aim}
		if err := b.write(ctx, domain.EncodeMessage(sessionID, b.nextSeq(), domain.DataTypeInput, uint8(domain.InputSubTypeAim), aim.Encode())); err != nil {
			return fmt.Errorf("send aim: %w", err)
		}
		if !action.Fire {
			continue
		}
		fire := domain.FirePayload{Origin: origin, Direction: action.Aim.Direction()}
		if err := b.write(ctx, domain.EncodeMessage(sessionID, b.nextSeq(), domain.DataTypeInput, uint8(domain.InputSubTypeFire), fire.Encode())); err != nil {
			return fmt.Errorf("send fire: %w", err)
		}
	}
}
