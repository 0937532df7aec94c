package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"bmshooter/server/application"
	"bmshooter/server/application/mocks"
	"bmshooter/server/domain"
)

func newAuthorityCharacter(t *testing.T, ctrl *gomock.Controller) (*application.Character, *application.Timers, *mocks.MockNavigator, *mocks.MockReplicator) {
	t.Helper()
	timers := application.NewTimers()
	nav := mocks.NewMockNavigator(ctrl)
	rep := mocks.NewMockReplicator(ctrl)
	cfg := application.DefaultCharacterConfig()
	cfg.Respawn.Fallback = domain.Vec3{X: 1, Y: 2, Z: 3}
	c := application.NewCharacter(domain.NewSessionID(), application.RoleAuthority, false, cfg, application.CharacterDeps{
		Timers:     timers,
		Navigator:  nav,
		Replicator: rep,
	})
	return c, timers, nav, rep
}

func TestDeathController_DiesOnceAtZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	c, timers, _, rep := newAuthorityCharacter(t, ctrl)

	rep.EXPECT().ReplicateHealth(gomock.Any(), c.ID, gomock.Any(), float32(100)).Times(3)
	rep.EXPECT().ReplicateDeath(gomock.Any(), c.ID, true).Times(1)

	c.Health.Damage(ctx, 100)
	// 死亡中にさらに0が通知されてもタイマーは1つだけ
	c.Health.Damage(ctx, 10)
	c.Health.SetCurrentHealth(ctx, 0)

	if !c.Death.IsDead() {
		t.Fatal("character should be dead")
	}
	if !c.Death.RespawnPending() {
		t.Fatal("respawn timer should be pending")
	}
	if got := c.Death.RespawnRemaining(); got != application.DefaultRespawnDelay {
		t.Errorf("RespawnRemaining() = %v, want %v", got, application.DefaultRespawnDelay)
	}
	if timers.Len() != 1 {
		t.Errorf("timers = %d, want 1", timers.Len())
	}
}

func TestDeathController_RespawnSequence(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	c, timers, nav, rep := newAuthorityCharacter(t, ctrl)

	spawn := domain.Vec3{X: 500, Y: -200, Z: 0}
	gomock.InOrder(
		rep.EXPECT().ReplicateHealth(gomock.Any(), c.ID, float32(0), float32(100)),
		rep.EXPECT().ReplicateDeath(gomock.Any(), c.ID, true),
		nav.EXPECT().RandomPoint(gomock.Any()).Return(spawn, nil),
		rep.EXPECT().ReplicateTransform(gomock.Any(), c.ID, domain.Vec3{X: 500, Y: -200, Z: application.DefaultClearance}),
		rep.EXPECT().ReplicateHealth(gomock.Any(), c.ID, float32(100), float32(100)),
		rep.EXPECT().ReplicateDeath(gomock.Any(), c.ID, false),
	)

	c.Health.Damage(ctx, 1000)
	timers.Advance(ctx, application.DefaultRespawnDelay-time.Millisecond)
	if !c.Death.IsDead() {
		t.Fatal("respawned before delay elapsed")
	}
	timers.Advance(ctx, time.Millisecond)

	if c.Death.IsDead() {
		t.Fatal("character should be alive after respawn")
	}
	if got := c.Health.GetCurrentHealth(); got != 100 {
		t.Errorf("health = %v, want 100", got)
	}
	if got := c.Location(); got != (domain.Vec3{X: 500, Y: -200, Z: application.DefaultClearance}) {
		t.Errorf("location = %+v", got)
	}
	if c.Death.RespawnPending() {
		t.Error("timer should not be pending after respawn")
	}
}

func TestDeathController_NavigationFailureUsesFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	c, timers, nav, rep := newAuthorityCharacter(t, ctrl)

	rep.EXPECT().ReplicateHealth(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	rep.EXPECT().ReplicateDeath(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	nav.EXPECT().RandomPoint(gomock.Any()).Return(domain.Vec3{}, application.ErrNoNavigablePoint)
	rep.EXPECT().ReplicateTransform(gomock.Any(), c.ID, domain.Vec3{X: 1, Y: 2, Z: 3 + application.DefaultClearance})

	c.Health.Damage(ctx, 100)
	timers.Advance(ctx, application.DefaultRespawnDelay)

	if c.Death.IsDead() {
		t.Fatal("character should respawn at the fallback point")
	}
}

func TestDeathController_RespawnWhileAliveIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	c, _, _, _ := newAuthorityCharacter(t, ctrl)

	// 期待呼び出しがないのでReplicator/Navigatorが呼ばれると失敗する
	c.Death.Respawn(context.Background())

	if c.Death.IsDead() {
		t.Error("character should stay alive")
	}
}

func TestDeathController_DestroyCancelsTimer(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	c, timers, _, rep := newAuthorityCharacter(t, ctrl)

	rep.EXPECT().ReplicateHealth(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
	rep.EXPECT().ReplicateDeath(gomock.Any(), c.ID, true)

	c.Health.Damage(ctx, 100)
	c.Destroy()
	timers.Advance(ctx, time.Minute)

	if timers.Len() != 0 {
		t.Errorf("timers = %d, want 0", timers.Len())
	}
	if !c.Death.IsDead() {
		t.Error("destroyed character must not respawn")
	}
}

func TestDeathController_ObserverIgnoresHealth(t *testing.T) {
	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockPresenter(ctrl)
	c := application.NewCharacter(domain.NewSessionID(), application.RoleObserver, false, application.DefaultCharacterConfig(), application.CharacterDeps{
		Presenter:     presenter,
		HealthOptions: []application.HealthOption{application.WithReplicatedNotify()},
	})

	c.Health.ApplyReplicatedHealth(context.Background(), 0)

	if c.Death.IsDead() {
		t.Error("observer must not decide death from health")
	}
}

func TestDeathController_ApplyReplicatedDead(t *testing.T) {
	tests := []struct {
		name              string
		locallyControlled bool
	}{
		{name: "remote character", locallyControlled: false},
		{name: "locally controlled", locallyControlled: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ctx := context.Background()
			presenter := mocks.NewMockPresenter(ctrl)
			id := domain.NewSessionID()
			c := application.NewCharacter(id, application.RoleObserver, tt.locallyControlled, application.DefaultCharacterConfig(), application.CharacterDeps{
				Presenter: presenter,
			})

			calls := []any{presenter.EXPECT().SetRagdoll(gomock.Any(), id, true)}
			if tt.locallyControlled {
				calls = append(calls,
					presenter.EXPECT().SetFirstPersonView(gomock.Any(), id, false),
					presenter.EXPECT().SetInputEnabled(gomock.Any(), id, false),
				)
			}
			calls = append(calls, presenter.EXPECT().SetRagdoll(gomock.Any(), id, false))
			if tt.locallyControlled {
				calls = append(calls,
					presenter.EXPECT().SetFirstPersonView(gomock.Any(), id, true),
					presenter.EXPECT().SetInputEnabled(gomock.Any(), id, true),
				)
			}
			gomock.InOrder(calls...)

			c.Death.ApplyReplicatedDead(ctx, true)
			// 同じ値の再受信では表示を切り替えない
			c.Death.ApplyReplicatedDead(ctx, true)
			if !c.Death.IsDead() {
				t.Fatal("observer should mirror dead=true")
			}
			c.Death.ApplyReplicatedDead(ctx, false)
			if c.Death.IsDead() {
				t.Fatal("observer should mirror dead=false")
			}
		})
	}
}

func TestPickSpawnPoint(t *testing.T) {
	ctx := context.Background()
	cfg := application.RespawnConfig{Clearance: 50, Fallback: domain.Vec3{X: 10, Y: 20, Z: 30}}
	fallback := domain.Vec3{X: 10, Y: 20, Z: 80}

	t.Run("nil navigator", func(t *testing.T) {
		if got := application.PickSpawnPoint(ctx, nil, cfg); got != fallback {
			t.Errorf("PickSpawnPoint() = %+v, want %+v", got, fallback)
		}
	})

	t.Run("navigator error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		nav := mocks.NewMockNavigator(ctrl)
		nav.EXPECT().RandomPoint(gomock.Any()).Return(domain.Vec3{}, errors.New("boom"))
		if got := application.PickSpawnPoint(ctx, nav, cfg); got != fallback {
			t.Errorf("PickSpawnPoint() = %+v, want %+v", got, fallback)
		}
	})

	t.Run("navigable point", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		nav := mocks.NewMockNavigator(ctrl)
		nav.EXPECT().RandomPoint(gomock.Any()).Return(domain.Vec3{X: 1, Y: 1, Z: 0}, nil)
		want := domain.Vec3{X: 1, Y: 1, Z: 50}
		if got := application.PickSpawnPoint(ctx, nav, cfg); got != want {
			t.Errorf("PickSpawnPoint() = %+v, want %+v", got, want)
		}
	})
}
