package application

import (
	"context"
	"time"

	"bmshooter/server/domain"
)

const (
	DefaultMaxHealth    float32 = 100
	DefaultRespawnDelay         = 3 * time.Second
	DefaultClearance    float32 = 100

	// カプセルの寸法 (半径, 半分の高さ)。位置はカプセル中心です。
	CapsuleRadius     float32 = 55
	CapsuleHalfHeight float32 = 96

	// EyeHeight はカプセル中心から視点までの高さです。
	EyeHeight float32 = 64
	// MuzzleOffset は視点から銃口までの前方距離です。
	MuzzleOffset float32 = 100
)

// CharacterConfig はキャラクター生成時の設定です。
type CharacterConfig struct {
	MaxHealth float32
	Respawn   RespawnConfig
}

// DefaultCharacterConfig は既定値のCharacterConfigを返します。
func DefaultCharacterConfig() CharacterConfig {
	return CharacterConfig{
		MaxHealth: DefaultMaxHealth,
		Respawn: RespawnConfig{
			Delay:     DefaultRespawnDelay,
			Clearance: DefaultClearance,
		},
	}
}

// CharacterDeps はキャラクターが使う外部の協調者です。
// 正本ではTimers/Navigator/Replicator、観測者ではPresenterを渡します。
type CharacterDeps struct {
	Timers     *Timers
	Navigator  Navigator
	Replicator Replicator
	Presenter  Presenter
	// HealthOptions は観測者側の通知設定などを追加で渡すためのものです。
	HealthOptions []HealthOption
}

// Character はプレイヤー1人分の状態です。
type Character struct {
	ID                EntityID
	role              Role
	locallyControlled bool

	location domain.Vec3
	aim      domain.Rotator

	Health *HealthComponent
	Death  *DeathController

	replicator Replicator
}

func NewCharacter(id EntityID, role Role, locallyControlled bool, cfg CharacterConfig, deps CharacterDeps) *Character {
	c := &Character{
		ID:                id,
		role:              role,
		locallyControlled: locallyControlled,
		replicator:        deps.Replicator,
	}
	opts := []HealthOption{WithLocallyControlled(locallyControlled), WithHealthReplicator(deps.Replicator)}
	opts = append(opts, deps.HealthOptions...)
	c.Health = NewHealthComponent(id, role, cfg.MaxHealth, opts...)

	deathDeps := DeathDeps{
		Timers:     deps.Timers,
		Navigator:  deps.Navigator,
		Mover:      c,
		Replicator: deps.Replicator,
		Presenter:  deps.Presenter,
	}
	c.Death = NewDeathController(id, role, locallyControlled, c.Health, deathDeps, cfg.Respawn)
	return c
}

func (c *Character) Role() Role                { return c.role }
func (c *Character) IsLocallyControlled() bool { return c.locallyControlled }
func (c *Character) Location() domain.Vec3     { return c.location }
func (c *Character) Aim() domain.Rotator       { return c.aim }
func (c *Character) IsAlive() bool             { return !c.Death.IsDead() }

// EyeLocation は視点のワールド座標です。
func (c *Character) EyeLocation() domain.Vec3 {
	return c.location.Add(domain.Vec3{Z: EyeHeight})
}

// MuzzleLocation は照準方向に沿った銃口のワールド座標です。
func (c *Character) MuzzleLocation() domain.Vec3 {
	return c.EyeLocation().Add(c.aim.Direction().Scale(MuzzleOffset))
}

// Teleport はキャラクターを移動させ、位置を複製します。正本専用です。
func (c *Character) Teleport(ctx context.Context, location domain.Vec3) {
	if c.role != RoleAuthority {
		return
	}
	c.location = location
	if c.replicator != nil {
		c.replicator.ReplicateTransform(ctx, c.ID, location)
	}
}

// MoveTo はクライアントが申告した移動後の位置を受け入れます。死亡中や不正な値は無視します。
func (c *Character) MoveTo(ctx context.Context, location domain.Vec3) bool {
	if c.role != RoleAuthority || c.Death.IsDead() || !location.IsFinite() {
		return false
	}
	c.Teleport(ctx, location)
	return true
}

// CorrectPitch はクライアントから届いた照準を保持し、全観測者へ中継します。
// 届かなくても再送はしません。
func (c *Character) CorrectPitch(ctx context.Context, rotation domain.Rotator) {
	if c.role != RoleAuthority || !rotation.IsFinite() {
		return
	}
	c.aim = rotation
	if c.replicator != nil {
		c.replicator.RelayPitch(ctx, c.ID, rotation)
	}
}

// ApplyReplicatedPitch は中継された照準を反映します。自分で操作しているキャラクターはローカルの値を優先します。
func (c *Character) ApplyReplicatedPitch(rotation domain.Rotator) {
	if c.role == RoleAuthority || c.locallyControlled {
		return
	}
	c.aim = rotation
}

// SetLocalAim は自分で操作しているキャラクターの照準をローカルで更新します。
func (c *Character) SetLocalAim(rotation domain.Rotator) {
	if c.locallyControlled {
		c.aim = rotation
	}
}

// ApplyReplicatedLocation は複製された位置を反映します。
func (c *Character) ApplyReplicatedLocation(location domain.Vec3) {
	if c.role == RoleAuthority {
		return
	}
	c.location = location
}

// Destroy はキャラクターを破棄します。保留中のリスポーンは取り消されます。
func (c *Character) Destroy() {
	c.Death.Destroy()
	if c.Death.deps.Timers != nil {
		c.Death.deps.Timers.CancelEntity(c.ID)
	}
}
