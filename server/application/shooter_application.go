package application

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"time"

	"bmshooter/server/domain"
)

const DefaultSnapshotInterval = time.Second

// ShooterConfig はShooterApplicationの設定です。
type ShooterConfig struct {
	Character  CharacterConfig
	Projectile ProjectileConfig
	// SnapshotInterval ごとに全キャラクターの状態を送り直します。0以下なら送りません。
	SnapshotInterval time.Duration
}

func DefaultShooterConfig() ShooterConfig {
	return ShooterConfig{
		Character:        DefaultCharacterConfig(),
		Projectile:       DefaultProjectileConfig(),
		SnapshotInterval: DefaultSnapshotInterval,
	}
}

// ShooterApplication はルーム内の全キャラクターの正本を持つApplicationです。
// Roomのゴルーチンからのみ呼ばれます。
type ShooterApplication struct {
	cfg       ShooterConfig
	navigator Navigator

	timers *Timers
	queue  *replicationQueue

	characters  map[EntityID]*Character
	projectiles []*Projectile
	nextShotID  uint32

	sinceSnapshot time.Duration
}

var _ domain.Application = (*ShooterApplication)(nil)

func NewShooterApplication(cfg ShooterConfig, navigator Navigator) *ShooterApplication {
	return &ShooterApplication{
		cfg:        cfg,
		navigator:  navigator,
		timers:     NewTimers(),
		queue:      newReplicationQueue(),
		characters: make(map[EntityID]*Character),
	}
}

// Character は指定エンティティのキャラクターを返します。
func (app *ShooterApplication) Character(id EntityID) (*Character, bool) {
	c, ok := app.characters[id]
	return c, ok
}

// Characters はID順に並べた全キャラクターを返します。
func (app *ShooterApplication) Characters() []*Character {
	return sortedCharacters(app.characters)
}

// Projectiles は飛行中の弾丸を返します。
func (app *ShooterApplication) Projectiles() []*Projectile {
	return app.projectiles
}

func (app *ShooterApplication) HandleMessage(ctx context.Context, sessionID domain.SessionID, data []byte) error {
	header, payloadHeader, payload, err := domain.ParseMessage(data)
	if err != nil {
		return err
	}

	switch payloadHeader.DataType {
	case domain.DataTypeControl:
		return app.handleControl(ctx, sessionID, payloadHeader.SubType)
	case domain.DataTypeInput:
		return app.handleInput(ctx, sessionID, header, payloadHeader.SubType, payload)
	default:
		slog.WarnContext(ctx, "unknown data type", "dataType", payloadHeader.DataType)
		return nil
	}
}

func (app *ShooterApplication) handleControl(ctx context.Context, sessionID domain.SessionID, subType uint8) error {
	switch domain.ControlSubType(subType) {
	case domain.ControlSubTypeJoin:
		app.spawn(ctx, sessionID)
	case domain.ControlSubTypeLeave:
		app.remove(ctx, sessionID)
	default:
		slog.DebugContext(ctx, "control ignored", "sessionID", sessionID, "subType", subType)
	}
	return nil
}

func (app *ShooterApplication) handleInput(ctx context.Context, sessionID domain.SessionID, header *domain.Header, subType uint8, payload []byte) error {
	c, ok := app.characters[sessionID]
	if !ok {
		slog.DebugContext(ctx, "input from unknown character", "sessionID", sessionID, "seq", header.Seq)
		return nil
	}

	switch domain.InputSubType(subType) {
	case domain.InputSubTypeFire:
		fire, err := domain.ParseFirePayload(payload)
		if err != nil {
			return err
		}
		app.fire(ctx, c, fire.Direction)
	case domain.InputSubTypeAim:
		aim, err := domain.ParseAimPayload(payload)
		if err != nil {
			return err
		}
		c.CorrectPitch(ctx, aim.Rotation)
	case domain.InputSubTypeMove:
		move, err := domain.ParseMovePayload(payload)
		if err != nil {
			return err
		}
		c.MoveTo(ctx, move.Location)
	default:
		slog.WarnContext(ctx, "unknown input subtype", "subType", subType)
	}
	return nil
}

// spawn は参加したセッションのキャラクターを生成し、全員に知らせます。
// 参加者本人には既存キャラクター全員の状態も送ります。
func (app *ShooterApplication) spawn(ctx context.Context, id EntityID) {
	if _, ok := app.characters[id]; ok {
		slog.DebugContext(ctx, "character already spawned", "entity", id)
		return
	}
	c := NewCharacter(id, RoleAuthority, false, app.cfg.Character, CharacterDeps{
		Timers:     app.timers,
		Navigator:  app.navigator,
		Replicator: app.queue,
	})
	c.Teleport(ctx, PickSpawnPoint(ctx, app.navigator, app.cfg.Character.Respawn))
	app.characters[id] = c

	for _, other := range sortedCharacters(app.characters) {
		if other.ID == id {
			continue
		}
		app.queue.enqueue(app.queue.snapshot(id, other)...)
	}
	app.queue.enqueue(app.queue.snapshot(domain.SessionID{}, c)...)
	slog.InfoContext(ctx, "character spawned", "entity", id, "location", c.Location())
}

// remove はキャラクターを破棄します。保留中のリスポーンも取り消されます。
func (app *ShooterApplication) remove(ctx context.Context, id EntityID) {
	c, ok := app.characters[id]
	if !ok {
		return
	}
	c.Destroy()
	delete(app.characters, id)
	app.queue.Despawn(ctx, id)
	slog.InfoContext(ctx, "character removed", "entity", id)
}

// fire は銃口から弾丸を生成し、射撃エフェクトを全員に流します。死亡中は撃てません。
// 発射位置はサーバーが持つ位置と照準から求め、クライアント申告の原点は使いません。
func (app *ShooterApplication) fire(ctx context.Context, c *Character, direction domain.Vec3) {
	if !c.IsAlive() {
		return
	}
	dir := direction.Normalize()
	if !direction.IsFinite() || dir.Length() == 0 {
		dir = c.Aim().Direction()
	}
	app.nextShotID++
	p := &Projectile{
		ID:         app.nextShotID,
		Instigator: c.ID,
		Location:   c.MuzzleLocation(),
		Velocity:   dir.Scale(app.cfg.Projectile.Speed),
		Remaining:  app.cfg.Projectile.Lifespan,
		Damage:     app.cfg.Projectile.Damage,
	}
	app.projectiles = append(app.projectiles, p)
	app.queue.MulticastShootEffects(ctx, c.ID)
	slog.DebugContext(ctx, "projectile fired", "entity", c.ID, "projectile", p.ID)
}

// Tick は弾丸・タイマーを進め、このtickで送るフレームを返します。
func (app *ShooterApplication) Tick(ctx context.Context, dt time.Duration) []domain.Outbound {
	app.stepProjectiles(ctx, dt)
	app.timers.Advance(ctx, dt)

	if app.cfg.SnapshotInterval > 0 {
		app.sinceSnapshot += dt
		if app.sinceSnapshot >= app.cfg.SnapshotInterval {
			app.sinceSnapshot = 0
			for _, c := range sortedCharacters(app.characters) {
				app.queue.enqueue(app.queue.snapshot(domain.SessionID{}, c)...)
			}
		}
	}
	return app.queue.drain()
}

func (app *ShooterApplication) stepProjectiles(ctx context.Context, dt time.Duration) {
	if len(app.projectiles) == 0 {
		return
	}
	characters := sortedCharacters(app.characters)
	alive := app.projectiles[:0]
	for _, p := range app.projectiles {
		from, to, ok := p.Step(dt)
		if target := hitTarget(p, from, to, characters); target != nil {
			target.Health.TakeDamage(ctx, p.Damage, Cause{
				Kind:       DamageKindProjectile,
				Instigator: p.Instigator,
				Causer:     p.ID,
			})
			continue
		}
		if ok {
			alive = append(alive, p)
		}
	}
	clear(app.projectiles[len(alive):])
	app.projectiles = alive
}

// hitTarget は弾丸が当たったキャラクターを返します。撃った本人と死亡中のキャラクターには当たりません。
func hitTarget(p *Projectile, from, to domain.Vec3, characters []*Character) *Character {
	var (
		best     *Character
		bestDist float32
	)
	for _, c := range characters {
		if c.ID == p.Instigator || !c.IsAlive() {
			continue
		}
		if !HitsCharacter(from, to, c) {
			continue
		}
		d := c.Location().Sub(from)
		if dist := d.Dot(d); best == nil || dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}

func sortedCharacters(m map[EntityID]*Character) []*Character {
	out := make([]*Character, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Character) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out
}
