package application

import (
	"context"
	"math"
	"testing"

	"bmshooter/server/domain"
)

func placedCharacter(t *testing.T, location domain.Vec3) *Character {
	t.Helper()
	c := NewCharacter(domain.NewSessionID(), RoleAuthority, false, DefaultCharacterConfig(), CharacterDeps{Timers: NewTimers()})
	c.Teleport(context.Background(), location)
	return c
}

func TestRuleBotController_Decide(t *testing.T) {
	bot := &RuleBotController{EngageRange: 3000, NoiseDegrees: 0, FireChance: 1}
	self := placedCharacter(t, domain.Vec3{})
	near := placedCharacter(t, domain.Vec3{Y: 500, Z: EyeHeight})
	far := placedCharacter(t, domain.Vec3{X: 1000})
	outOfRange := placedCharacter(t, domain.Vec3{X: -5000})

	action := bot.Decide(self, []*Character{self, far, near, outOfRange})

	if !action.HasAim || !action.Fire {
		t.Fatalf("action = %+v, want aim and fire", action)
	}
	if math.Abs(float64(action.Aim.Yaw-90)) > 1e-3 || math.Abs(float64(action.Aim.Pitch)) > 1e-3 {
		t.Errorf("aim = %+v, want yaw 90 pitch 0", action.Aim)
	}
}

func TestRuleBotController_SkipsDead(t *testing.T) {
	ctx := context.Background()
	bot := &RuleBotController{EngageRange: 3000, FireChance: 1}
	self := placedCharacter(t, domain.Vec3{})
	enemy := placedCharacter(t, domain.Vec3{X: 100})
	enemy.Health.Damage(ctx, DefaultMaxHealth)

	if action := bot.Decide(self, []*Character{self, enemy}); action.HasAim || action.Fire {
		t.Errorf("action = %+v, want none against dead enemy", action)
	}

	enemy2 := placedCharacter(t, domain.Vec3{X: 100})
	self.Health.Damage(ctx, DefaultMaxHealth)
	if action := bot.Decide(self, []*Character{self, enemy2}); action.HasAim || action.Fire {
		t.Errorf("action = %+v, dead bot should not act", action)
	}
}
