package application

import (
	"context"
	"log/slog"

	"bmshooter/server/domain"
)

type revisionKey struct {
	entity EntityID
	kind   domain.ReplicateSubType
}

// MirrorOption はMirrorの生成オプションです。
type MirrorOption func(*Mirror)

// WithMirrorCharacterConfig は観測者側のキャラクター生成に使う設定を指定します。
func WithMirrorCharacterConfig(cfg CharacterConfig) MirrorOption {
	return func(m *Mirror) { m.cfg = cfg }
}

// WithMirrorHealthOptions は観測者側の体力コンポーネントに渡すオプションを指定します。
func WithMirrorHealthOptions(opts ...HealthOption) MirrorOption {
	return func(m *Mirror) { m.healthOpts = append(m.healthOpts, opts...) }
}

// WithSpawnHook はキャラクターを初めて受信したときに呼ばれる関数を指定します。
func WithSpawnHook(fn func(*Character)) MirrorOption {
	return func(m *Mirror) { m.onSpawn = fn }
}

// Mirror はサーバーから複製されたフレームを観測者側のキャラクターに反映します。
//
// 体力・死亡・位置はエンティティと種別ごとのリビジョンで古い値を捨てます(後勝ち)。
// 照準の中継にはリビジョンがなく、届いた順に反映します。
type Mirror struct {
	self      EntityID
	presenter Presenter
	cfg       CharacterConfig

	healthOpts []HealthOption
	onSpawn    func(*Character)

	characters map[EntityID]*Character
	revisions  map[revisionKey]uint32
}

func NewMirror(self EntityID, presenter Presenter, opts ...MirrorOption) *Mirror {
	m := &Mirror{
		self:       self,
		presenter:  presenter,
		cfg:        DefaultCharacterConfig(),
		characters: make(map[EntityID]*Character),
		revisions:  make(map[revisionKey]uint32),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Self は自分のキャラクターを返します。まだ受信していなければnilです。
func (m *Mirror) Self() *Character {
	return m.characters[m.self]
}

func (m *Mirror) Character(id EntityID) (*Character, bool) {
	c, ok := m.characters[id]
	return c, ok
}

// Characters はID順に並べた全キャラクターを返します。
func (m *Mirror) Characters() []*Character {
	return sortedCharacters(m.characters)
}

// Apply は1フレームを反映します。複製以外のフレームは無視します。
func (m *Mirror) Apply(ctx context.Context, data []byte) error {
	_, payloadHeader, payload, err := domain.ParseMessage(data)
	if err != nil {
		return err
	}
	if payloadHeader.DataType != domain.DataTypeReplicate {
		return nil
	}

	switch domain.ReplicateSubType(payloadHeader.SubType) {
	case domain.ReplicateSubTypeHealth:
		rep, err := domain.ParseHealthReplication(payload)
		if err != nil {
			return err
		}
		m.applyHealth(ctx, rep)
	case domain.ReplicateSubTypeDeath:
		rep, err := domain.ParseDeathReplication(payload)
		if err != nil {
			return err
		}
		if !m.accept(rep.Entity, domain.ReplicateSubTypeDeath, rep.Revision) {
			return nil
		}
		m.character(rep.Entity, m.cfg.MaxHealth).Death.ApplyReplicatedDead(ctx, rep.Dead)
	case domain.ReplicateSubTypeTransform:
		rep, err := domain.ParseTransformReplication(payload)
		if err != nil {
			return err
		}
		if !m.accept(rep.Entity, domain.ReplicateSubTypeTransform, rep.Revision) {
			return nil
		}
		m.character(rep.Entity, m.cfg.MaxHealth).ApplyReplicatedLocation(rep.Location)
	case domain.ReplicateSubTypePitch:
		rep, err := domain.ParsePitchReplication(payload)
		if err != nil {
			return err
		}
		m.character(rep.Entity, m.cfg.MaxHealth).ApplyReplicatedPitch(rep.Rotation)
	case domain.ReplicateSubTypeShootEffects:
		ev, err := domain.ParseEntityEvent(payload)
		if err != nil {
			return err
		}
		if p, ok := m.presenter.(EffectsPresenter); ok {
			p.PlayShootEffects(ctx, ev.Entity)
		}
	case domain.ReplicateSubTypeDespawn:
		ev, err := domain.ParseEntityEvent(payload)
		if err != nil {
			return err
		}
		m.despawn(ctx, ev.Entity)
	default:
		slog.WarnContext(ctx, "unknown replicate subtype", "subType", payloadHeader.SubType)
	}
	return nil
}

func (m *Mirror) applyHealth(ctx context.Context, rep *domain.HealthReplication) {
	if !m.accept(rep.Entity, domain.ReplicateSubTypeHealth, rep.Revision) {
		return
	}
	c := m.character(rep.Entity, rep.Max)
	c.Health.applyReplicatedMax(rep.Max)
	c.Health.ApplyReplicatedHealth(ctx, rep.Current)
	if rep.Entity != m.self {
		return
	}
	if p, ok := m.presenter.(HUDPresenter); ok {
		p.ShowHealth(ctx, rep.Entity, c.Health.GetNormalizedHealth())
	}
}

// accept はrevisionが既知のものより新しい場合にtrueを返し、記録します。
func (m *Mirror) accept(entity EntityID, kind domain.ReplicateSubType, revision uint32) bool {
	key := revisionKey{entity: entity, kind: kind}
	if last, ok := m.revisions[key]; ok && revision <= last {
		return false
	}
	m.revisions[key] = revision
	return true
}

// character は観測者側のキャラクターを返します。未受信なら生成します。
func (m *Mirror) character(id EntityID, maxHealth float32) *Character {
	if c, ok := m.characters[id]; ok {
		return c
	}
	cfg := m.cfg
	cfg.MaxHealth = maxHealth
	c := NewCharacter(id, RoleObserver, id == m.self, cfg, CharacterDeps{
		Presenter:     m.presenter,
		HealthOptions: m.healthOpts,
	})
	m.characters[id] = c
	if m.onSpawn != nil {
		m.onSpawn(c)
	}
	return c
}

func (m *Mirror) despawn(ctx context.Context, id EntityID) {
	c, ok := m.characters[id]
	if !ok {
		return
	}
	c.Destroy()
	delete(m.characters, id)
	for key := range m.revisions {
		if key.entity == id {
			delete(m.revisions, key)
		}
	}
	slog.DebugContext(ctx, "character despawned", "entity", id)
}
