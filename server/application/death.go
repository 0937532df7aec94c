package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bmshooter/server/domain"
)

var tracer = otel.Tracer("bmshooter/server/application")

//go:generate go tool mockgen -destination=./mocks/collaborators_mock.go -package=mocks . Navigator,Presenter,Replicator

// ErrNoNavigablePoint はナビゲーションが到達可能な地点を返せなかったことを表します。
var ErrNoNavigablePoint = errors.New("navigation: no navigable point")

// Navigator は到達可能な領域からランダムな地点を返す外部サービスです。
type Navigator interface {
	RandomPoint(ctx context.Context) (domain.Vec3, error)
}

// FallbackSource はNavigatorのうち、自前のフォールバック地点を持つものです。
// ok=trueのときはRespawnConfig.Fallbackより優先します。
type FallbackSource interface {
	Fallback() (location domain.Vec3, ok bool)
}

// Presenter は死亡・復活時の見た目の切り替えを担う外部の表示層です。
type Presenter interface {
	SetRagdoll(ctx context.Context, entity EntityID, enabled bool)
	SetFirstPersonView(ctx context.Context, entity EntityID, enabled bool)
	SetInputEnabled(ctx context.Context, entity EntityID, enabled bool)
}

// DeathReplicator は死亡フラグを観測者へ複製します。
type DeathReplicator interface {
	ReplicateDeath(ctx context.Context, entity EntityID, dead bool)
}

// Mover はリスポーン地点へエンティティを移動させます。
type Mover interface {
	Teleport(ctx context.Context, location domain.Vec3)
}

// RespawnConfig はリスポーンの設定です。
type RespawnConfig struct {
	Delay time.Duration
	// Clearance は床にめり込まないよう上方向へずらす量です。
	Clearance float32
	// Fallback はナビゲーションが失敗したときの出現地点です。
	Fallback domain.Vec3
}

// DeathDeps はDeathControllerが呼び出す外部の協調者です。観測者側ではTimers/Navigator/Replicatorは不要です。
type DeathDeps struct {
	Timers     *Timers
	Navigator  Navigator
	Mover      Mover
	Replicator DeathReplicator
	Presenter  Presenter
}

// DeathController は体力の変化から生死を判定し、リスポーンを進めます。
//
// 状態は Alive と Dead(タイマー待ち) の2つで、初期状態は Alive です。
// Alive → Dead は正本で体力0の通知を受けたときだけ、Dead → Alive はリスポーンタイマーの発火時だけ起こります。
type DeathController struct {
	entity            EntityID
	role              Role
	locallyControlled bool

	health *HealthComponent
	deps   DeathDeps
	cfg    RespawnConfig

	dead         bool
	respawnTimer TimerHandle
	unsubscribe  func()
}

func NewDeathController(entity EntityID, role Role, locallyControlled bool, health *HealthComponent, deps DeathDeps, cfg RespawnConfig) *DeathController {
	d := &DeathController{
		entity:            entity,
		role:              role,
		locallyControlled: locallyControlled,
		health:            health,
		deps:              deps,
		cfg:               cfg,
	}
	d.unsubscribe = health.Subscribe(d.HandleHealthChanged)
	return d
}

func (d *DeathController) IsDead() bool { return d.dead }

// RespawnPending はリスポーンタイマーが待機中ならtrueを返します。
func (d *DeathController) RespawnPending() bool { return d.respawnTimer.Pending() }

// RespawnRemaining はリスポーンまでの残り時間です。
func (d *DeathController) RespawnRemaining() time.Duration { return d.respawnTimer.Remaining() }

// HandleHealthChanged は体力変更通知を受けて死亡判定を行います。
func (d *DeathController) HandleHealthChanged(ctx context.Context, change HealthChange) {
	if d.role != RoleAuthority {
		return
	}
	if change.Current > 0 {
		return
	}
	// 既に死亡中なら無視（タイマーを二重に張らない）
	if d.dead {
		return
	}
	d.die(ctx, change.Cause)
}

func (d *DeathController) die(ctx context.Context, cause Cause) {
	d.dead = true
	if d.deps.Replicator != nil {
		d.deps.Replicator.ReplicateDeath(ctx, d.entity, true)
	}
	d.respawnTimer = d.deps.Timers.AfterFunc(TimerKey{Entity: d.entity, Kind: TimerRespawn}, d.cfg.Delay, d.Respawn)
	slog.InfoContext(ctx, "character died",
		"entity", d.entity,
		"instigator", cause.Instigator,
		"cause", cause.Kind,
		"respawnIn", d.cfg.Delay,
	)
}

// Respawn はリスポーンタイマーの発火時に呼ばれます。生存中に呼ばれた場合は何もしません。
func (d *DeathController) Respawn(ctx context.Context) {
	if d.role != RoleAuthority || !d.dead {
		return
	}
	ctx, span := tracer.Start(ctx, "character.respawn",
		trace.WithAttributes(attribute.String("entity.id", d.entity.String())),
	)
	defer span.End()

	location := PickSpawnPoint(ctx, d.deps.Navigator, d.cfg)
	if d.deps.Mover != nil {
		d.deps.Mover.Teleport(ctx, location)
	}
	d.health.ResetHealth(ctx)
	d.dead = false
	if d.deps.Replicator != nil {
		d.deps.Replicator.ReplicateDeath(ctx, d.entity, false)
	}
	slog.InfoContext(ctx, "character respawned", "entity", d.entity, "location", location)
}

// ApplyReplicatedDead は観測者側で死亡フラグの複製値を受信したときに呼びます。
// 値が変わったときだけ表示を切り替えます。
func (d *DeathController) ApplyReplicatedDead(ctx context.Context, dead bool) {
	if d.role == RoleAuthority {
		return
	}
	if d.dead == dead {
		return
	}
	d.dead = dead

	p := d.deps.Presenter
	if p == nil {
		return
	}
	p.SetRagdoll(ctx, d.entity, dead)
	if d.locallyControlled {
		p.SetFirstPersonView(ctx, d.entity, !dead)
		p.SetInputEnabled(ctx, d.entity, !dead)
	}
}

// Destroy は保留中のリスポーンを取り消し、通知の購読を解除します。
func (d *DeathController) Destroy() {
	d.respawnTimer.Stop()
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
}

// PickSpawnPoint はナビゲーションから出現地点を選び、Clearanceだけ持ち上げて返します。
// ナビゲーションが使えない場合はFallbackを使います。navがFallbackSourceならその地点が優先です。
func PickSpawnPoint(ctx context.Context, nav Navigator, cfg RespawnConfig) domain.Vec3 {
	base := cfg.Fallback
	if fs, ok := nav.(FallbackSource); ok {
		if p, ok := fs.Fallback(); ok {
			base = p
		}
	}
	if nav == nil {
		slog.WarnContext(ctx, "no navigator, using fallback spawn", "fallback", base)
	} else if p, err := nav.RandomPoint(ctx); err != nil {
		slog.WarnContext(ctx, "navigation query failed, using fallback spawn", "err", err, "fallback", base)
	} else if !p.IsFinite() {
		slog.WarnContext(ctx, "navigation returned invalid point, using fallback spawn", "point", p, "fallback", base)
	} else {
		return p.Add(domain.Vec3{Z: cfg.Clearance})
	}
	trace.SpanFromContext(ctx).AddEvent("fallback spawn")
	return base.Add(domain.Vec3{Z: cfg.Clearance})
}
