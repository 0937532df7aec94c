// Package navigation は出現地点の選択に使う歩行可能領域を扱います。
package navigation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"bmshooter/server/application"
	"bmshooter/server/domain"
)

var ErrInvalidArea = errors.New("navigation: area max must not be below min")

// Point はYAML上の座標です。
type Point struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

func (p Point) Vec3() domain.Vec3 { return domain.Vec3{X: p.X, Y: p.Y, Z: p.Z} }

// Area は軸に沿った歩行可能な箱です。
type Area struct {
	Name string `yaml:"name"`
	Min  Point  `yaml:"min"`
	Max  Point  `yaml:"max"`
}

// floorArea は床面積 (XY平面) です。
func (a Area) floorArea() float32 {
	return (a.Max.X - a.Min.X) * (a.Max.Y - a.Min.Y)
}

func (a Area) validate() error {
	if a.Max.X < a.Min.X || a.Max.Y < a.Min.Y || a.Max.Z < a.Min.Z {
		return fmt.Errorf("%w: %q", ErrInvalidArea, a.Name)
	}
	return nil
}

// MeshSpec はナビゲーションファイルの内容です。
type MeshSpec struct {
	Name     string `yaml:"name"`
	Fallback *Point `yaml:"fallback"`
	Areas    []Area `yaml:"areas"`
}

// Load はYAMLファイルからMeshSpecを読み込みます。
func Load(filename string) (*MeshSpec, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("navigation: load %s: %w", filename, err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("navigation: %s: %w", filename, err)
	}
	return spec, nil
}

func Parse(data []byte) (*MeshSpec, error) {
	var spec MeshSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	for _, a := range spec.Areas {
		if err := a.validate(); err != nil {
			return nil, err
		}
	}
	return &spec, nil
}

// NavMesh は歩行可能領域から床面積に比例した確率でランダムな地点を返します。
type NavMesh struct {
	mu    sync.Mutex
	rng   *rand.Rand
	areas []Area
	// cumulative[i] は areas[0..i] の床面積の累積和
	cumulative []float32
	total      float32
	fallback   *domain.Vec3
}

var (
	_ application.Navigator      = (*NavMesh)(nil)
	_ application.FallbackSource = (*NavMesh)(nil)
)

// NewNavMesh はNavMeshを作ります。床面積が0の領域は使いません。rngがnilならランダムな種で作ります。
func NewNavMesh(areas []Area, rng *rand.Rand) *NavMesh {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	m := &NavMesh{rng: rng}
	m.Replace(areas)
	return m
}

// Replace は領域を差し替えます。読み込み直しに使います。
func (m *NavMesh) Replace(areas []Area) {
	var (
		used       []Area
		cumulative []float32
		total      float32
	)
	for _, a := range areas {
		fa := a.floorArea()
		if fa <= 0 {
			continue
		}
		total += fa
		used = append(used, a)
		cumulative = append(cumulative, total)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.areas = used
	m.cumulative = cumulative
	m.total = total
}

// SetFallback はファイルに書かれたフォールバック地点を設定します。nilなら設定を外します。
func (m *NavMesh) SetFallback(p *Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		m.fallback = nil
		return
	}
	v := p.Vec3()
	m.fallback = &v
}

func (m *NavMesh) Fallback() (domain.Vec3, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fallback == nil {
		return domain.Vec3{}, false
	}
	return *m.fallback, true
}

// RandomPoint は歩行可能な地点を1つ返します。領域がなければErrNoNavigablePointです。
func (m *NavMesh) RandomPoint(ctx context.Context) (domain.Vec3, error) {
	if err := ctx.Err(); err != nil {
		return domain.Vec3{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.areas) == 0 {
		return domain.Vec3{}, application.ErrNoNavigablePoint
	}
	pick := m.rng.Float32() * m.total
	idx := len(m.areas) - 1
	for i, c := range m.cumulative {
		if pick < c {
			idx = i
			break
		}
	}
	a := m.areas[idx]
	return domain.Vec3{
		X: lerp(a.Min.X, a.Max.X, m.rng.Float32()),
		Y: lerp(a.Min.Y, a.Max.Y, m.rng.Float32()),
		Z: lerp(a.Min.Z, a.Max.Z, m.rng.Float32()),
	}, nil
}

// Len は使用中の領域数です。
func (m *NavMesh) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.areas)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
