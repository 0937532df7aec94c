package domain

import (
	"errors"
	"math"
)

const (
	Vec3Size    = 12 // 3 * float32
	RotatorSize = 12 // 3 * float32
)

var (
	ErrInvalidVec3Data    = errors.New("invalid vec3 data: expected 12 bytes")
	ErrInvalidRotatorData = errors.New("invalid rotator data: expected 12 bytes")
)

// Vec3 はワールド座標系の位置・方向です。Zが上方向です。
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}
func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize は単位ベクトルを返します。長さ0のときはゼロベクトルを返します。
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l < 1e-6 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// IsFinite はNaN/Infを含まない場合にtrueを返します。
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func ParseVec3(data []byte) (*Vec3, error) {
	if len(data) < Vec3Size {
		return nil, ErrInvalidVec3Data
	}
	return &Vec3{
		X: math.Float32frombits(byteOrder.Uint32(data[0:4])),
		Y: math.Float32frombits(byteOrder.Uint32(data[4:8])),
		Z: math.Float32frombits(byteOrder.Uint32(data[8:12])),
	}, nil
}

func (v *Vec3) Encode() []byte {
	buf := make([]byte, Vec3Size)
	byteOrder.PutUint32(buf[0:4], math.Float32bits(v.X))
	byteOrder.PutUint32(buf[4:8], math.Float32bits(v.Y))
	byteOrder.PutUint32(buf[8:12], math.Float32bits(v.Z))
	return buf
}

// Rotator は度数法の姿勢 (pitch, yaw, roll) です。
type Rotator struct {
	Pitch, Yaw, Roll float32
}

// Direction はpitch/yawから前方向の単位ベクトルを求めます。
func (r Rotator) Direction() Vec3 {
	p := float64(r.Pitch) * math.Pi / 180
	y := float64(r.Yaw) * math.Pi / 180
	return Vec3{
		X: float32(math.Cos(p) * math.Cos(y)),
		Y: float32(math.Cos(p) * math.Sin(y)),
		Z: float32(math.Sin(p)),
	}
}

// RotatorFromDirection は方向ベクトルからroll=0のRotatorを求めます。
func RotatorFromDirection(v Vec3) Rotator {
	n := v.Normalize()
	horiz := math.Hypot(float64(n.X), float64(n.Y))
	return Rotator{
		Pitch: float32(math.Atan2(float64(n.Z), horiz) * 180 / math.Pi),
		Yaw:   float32(math.Atan2(float64(n.Y), float64(n.X)) * 180 / math.Pi),
	}
}

func (r Rotator) IsFinite() bool {
	return isFinite(r.Pitch) && isFinite(r.Yaw) && isFinite(r.Roll)
}

func ParseRotator(data []byte) (*Rotator, error) {
	if len(data) < RotatorSize {
		return nil, ErrInvalidRotatorData
	}
	return &Rotator{
		Pitch: math.Float32frombits(byteOrder.Uint32(data[0:4])),
		Yaw:   math.Float32frombits(byteOrder.Uint32(data[4:8])),
		Roll:  math.Float32frombits(byteOrder.Uint32(data[8:12])),
	}, nil
}

func (r *Rotator) Encode() []byte {
	buf := make([]byte, RotatorSize)
	byteOrder.PutUint32(buf[0:4], math.Float32bits(r.Pitch))
	byteOrder.PutUint32(buf[4:8], math.Float32bits(r.Yaw))
	byteOrder.PutUint32(buf[8:12], math.Float32bits(r.Roll))
	return buf
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
