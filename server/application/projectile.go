package application

import (
	"time"

	"bmshooter/server/domain"
)

const (
	DefaultProjectileSpeed    float32 = 3000
	DefaultProjectileLifespan         = 3 * time.Second
	DefaultProjectileDamage   float32 = 20
	ProjectileRadius          float32 = 5
)

// ProjectileConfig は弾丸の設定です。
type ProjectileConfig struct {
	Speed    float32
	Lifespan time.Duration
	Damage   float32
}

func DefaultProjectileConfig() ProjectileConfig {
	return ProjectileConfig{
		Speed:    DefaultProjectileSpeed,
		Lifespan: DefaultProjectileLifespan,
		Damage:   DefaultProjectileDamage,
	}
}

// Projectile はフィールド上の弾丸です。
type Projectile struct {
	ID         uint32
	Instigator EntityID
	Location   domain.Vec3
	Velocity   domain.Vec3
	Remaining  time.Duration
	Damage     float32
}

// Step は弾丸をdt進め、移動前後の位置を返します。寿命が尽きたらfalseを返します。
func (p *Projectile) Step(dt time.Duration) (from, to domain.Vec3, alive bool) {
	from = p.Location
	p.Location = p.Location.Add(p.Velocity.Scale(float32(dt.Seconds())))
	p.Remaining -= dt
	return from, p.Location, p.Remaining > 0
}

// HitsCharacter は from → to の移動中にキャラクターのカプセルへ触れたかを判定します。
func HitsCharacter(from, to domain.Vec3, c *Character) bool {
	// カプセルは中心から上下に (HalfHeight - Radius) 伸びた線分 + 半径
	axis := CapsuleHalfHeight - CapsuleRadius
	loc := c.Location()
	bottom := loc.Sub(domain.Vec3{Z: axis})
	top := loc.Add(domain.Vec3{Z: axis})
	r := CapsuleRadius + ProjectileRadius
	return segmentDistanceSq(from, to, bottom, top) <= r*r
}

// segmentDistanceSq は線分 p1-q1 と p2-q2 の最短距離の2乗を返します。
func segmentDistanceSq(p1, q1, p2, q2 domain.Vec3) float32 {
	const eps = 1e-6
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	var s, t float32
	switch {
	case a <= eps && e <= eps:
		// 両方とも点
		return r.Dot(r)
	case a <= eps:
		t = clamp(f/e, 0, 1)
	default:
		c := d1.Dot(r)
		if e <= eps {
			s = clamp(-c/a, 0, 1)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom > eps {
				s = clamp((b*f-c*e)/denom, 0, 1)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp(-c/a, 0, 1)
			} else if t > 1 {
				t = 1
				s = clamp((b-c)/a, 0, 1)
			}
		}
	}
	c1 := p1.Add(d1.Scale(s))
	c2 := p2.Add(d2.Scale(t))
	diff := c1.Sub(c2)
	return diff.Dot(diff)
}
