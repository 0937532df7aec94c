package application

import (
	"context"
	"log/slog"
)

// EffectsPresenter は射撃エフェクトを再生できるPresenterです。
type EffectsPresenter interface {
	PlayShootEffects(ctx context.Context, entity EntityID)
}

// HUDPresenter は自分の体力表示を更新できるPresenterです。
type HUDPresenter interface {
	ShowHealth(ctx context.Context, entity EntityID, normalized float32)
}

// LogPresenter は描画の代わりに表示の切り替えをログに出すPresenterです。
type LogPresenter struct {
	logger *slog.Logger
}

var (
	_ Presenter        = (*LogPresenter)(nil)
	_ EffectsPresenter = (*LogPresenter)(nil)
	_ HUDPresenter     = (*LogPresenter)(nil)
)

func NewLogPresenter(logger *slog.Logger) *LogPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPresenter{logger: logger}
}

func (p *LogPresenter) SetRagdoll(ctx context.Context, entity EntityID, enabled bool) {
	p.logger.InfoContext(ctx, "ragdoll", "entity", entity, "enabled", enabled)
}

func (p *LogPresenter) SetFirstPersonView(ctx context.Context, entity EntityID, enabled bool) {
	view := "third-person"
	if enabled {
		view = "first-person"
	}
	p.logger.InfoContext(ctx, "view switched", "entity", entity, "view", view)
}

func (p *LogPresenter) SetInputEnabled(ctx context.Context, entity EntityID, enabled bool) {
	p.logger.InfoContext(ctx, "input", "entity", entity, "enabled", enabled)
}

func (p *LogPresenter) PlayShootEffects(ctx context.Context, entity EntityID) {
	p.logger.DebugContext(ctx, "shoot effects", "entity", entity)
}

func (p *LogPresenter) ShowHealth(ctx context.Context, entity EntityID, normalized float32) {
	p.logger.InfoContext(ctx, "hud health", "entity", entity, "health", normalized)
}
