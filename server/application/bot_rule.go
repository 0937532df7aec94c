package application

import (
	"math"
	"math/rand/v2"

	"bmshooter/server/domain"
)

const (
	botEngageRange float32 = 5000 // これより遠い敵は狙わない
	botNoiseAngle  float64 = 3.0  // 照準のぶれ ±3度
	botFireChance  float64 = 0.2  // 照準が合っているtickで撃つ確率
)

// BotAction はボットの1tick分の行動です。
type BotAction struct {
	Aim    domain.Rotator
	HasAim bool
	Fire   bool
}

// BotController はボットの意思決定インターフェースです。
type BotController interface {
	Decide(self *Character, all []*Character) BotAction
}

// RuleBotController はルールベースのボットAIです。
// 最寄りの生存している敵を狙い、一定確率で撃ちます。
type RuleBotController struct {
	EngageRange  float32
	NoiseDegrees float64
	FireChance   float64
}

var _ BotController = (*RuleBotController)(nil)

// NewRuleBotController はランダムな個性を持つボットAIを生成します。
func NewRuleBotController() *RuleBotController {
	return &RuleBotController{
		EngageRange:  botEngageRange * (0.5 + rand.Float32()*0.5),
		NoiseDegrees: botNoiseAngle,
		FireChance:   botFireChance,
	}
}

func (r *RuleBotController) Decide(self *Character, all []*Character) BotAction {
	// 死亡中は入力が無効
	if self == nil || !self.IsAlive() {
		return BotAction{}
	}

	target := r.findNearestEnemy(self, all)
	if target == nil {
		return BotAction{}
	}

	aim := domain.RotatorFromDirection(target.Location().Sub(self.EyeLocation()))
	aim = addNoise(aim, r.NoiseDegrees)
	return BotAction{
		Aim:    aim,
		HasAim: true,
		Fire:   rand.Float64() < r.FireChance,
	}
}

// findNearestEnemy は射程内で最寄りの生存敵を探します。
func (r *RuleBotController) findNearestEnemy(self *Character, all []*Character) *Character {
	var nearest *Character
	nearestDistSq := r.EngageRange * r.EngageRange

	for _, other := range all {
		if other.ID == self.ID || !other.IsAlive() {
			continue
		}
		d := other.Location().Sub(self.Location())
		if distSq := d.Dot(d); distSq < nearestDistSq {
			nearestDistSq = distSq
			nearest = other
		}
	}
	return nearest
}

// addNoise はpitch/yawに ±maxDegrees のランダムなぶれを加えます。
func addNoise(aim domain.Rotator, maxDegrees float64) domain.Rotator {
	if maxDegrees <= 0 {
		return aim
	}
	aim.Pitch += float32((rand.Float64()*2 - 1) * maxDegrees)
	aim.Yaw += float32((rand.Float64()*2 - 1) * maxDegrees)
	aim.Pitch = float32(math.Max(-89, math.Min(89, float64(aim.Pitch))))
	return aim
}
