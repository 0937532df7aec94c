// Package config は環境変数からサーバーとボットの設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/caarlos0/env/v11"

	"bmshooter/server/application"
	"bmshooter/server/domain"
)

var (
	ErrInvalidTickRate      = errors.New("config: TICK_RATE must be positive")
	ErrInvalidMaxHealth     = errors.New("config: MAX_HEALTH must be positive")
	ErrInvalidFallbackSpawn = errors.New("config: FALLBACK_SPAWN must be x,y,z")
	ErrInvalidBotCount      = errors.New("config: BOT_COUNT must be positive")
)

// Config はサーバーの設定です。
type Config struct {
	Addr     string `env:"ADDR"      envDefault:"localhost"`
	Port     string `env:"PORT"      envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	TickRate         int           `env:"TICK_RATE"         envDefault:"30"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"1s"`

	MaxHealth      float32       `env:"MAX_HEALTH"      envDefault:"100"`
	RespawnDelay   time.Duration `env:"RESPAWN_DELAY"   envDefault:"3s"`
	SpawnClearance float32       `env:"SPAWN_CLEARANCE" envDefault:"100"`
	FallbackSpawn  []float32     `env:"FALLBACK_SPAWN"  envDefault:"0,0,0" envSeparator:","`
	NavMeshPath    string        `env:"NAVMESH_PATH"    envDefault:"configs/navmesh.yaml"`
	NavMeshWatch   bool          `env:"NAVMESH_WATCH"   envDefault:"true"`

	ProjectileDamage   float32       `env:"PROJECTILE_DAMAGE"   envDefault:"20"`
	ProjectileSpeed    float32       `env:"PROJECTILE_SPEED"    envDefault:"3000"`
	ProjectileLifespan time.Duration `env:"PROJECTILE_LIFESPAN" envDefault:"3s"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30s"`
	PingInterval       time.Duration `env:"PING_INTERVAL"        envDefault:"5s"`

	// OtelEndpoint はOTLPの送信先です。空ならトレースとログは送りません。
	OtelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load は環境変数からConfigを読み込み、値を検証します。
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.TickRate <= 0 {
		return ErrInvalidTickRate
	}
	if c.MaxHealth <= 0 {
		return ErrInvalidMaxHealth
	}
	if len(c.FallbackSpawn) != 3 {
		return ErrInvalidFallbackSpawn
	}
	return nil
}

// Address はlistenするアドレスです。
func (c Config) Address() string {
	return net.JoinHostPort(c.Addr, c.Port)
}

// TickInterval はルームの1tickの長さです。
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// SlogLevel はLOG_LEVELをslogのレベルに変換します。解釈できない場合はInfoです。
func (c Config) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

// FallbackLocation はナビゲーション失敗時の出現地点です。
func (c Config) FallbackLocation() domain.Vec3 {
	if len(c.FallbackSpawn) != 3 {
		return domain.Vec3{}
	}
	return domain.Vec3{X: c.FallbackSpawn[0], Y: c.FallbackSpawn[1], Z: c.FallbackSpawn[2]}
}

// Shooter はゲームルールの設定を組み立てます。
func (c Config) Shooter() application.ShooterConfig {
	return application.ShooterConfig{
		Character: application.CharacterConfig{
			MaxHealth: c.MaxHealth,
			Respawn: application.RespawnConfig{
				Delay:     c.RespawnDelay,
				Clearance: c.SpawnClearance,
				Fallback:  c.FallbackLocation(),
			},
		},
		Projectile: application.ProjectileConfig{
			Speed:    c.ProjectileSpeed,
			Lifespan: c.ProjectileLifespan,
			Damage:   c.ProjectileDamage,
		},
		SnapshotInterval: c.SnapshotInterval,
	}
}

// EndpointOptions はセッションエンドポイントの設定です。
func (c Config) EndpointOptions() []domain.EndpointOption {
	return []domain.EndpointOption{
		domain.WithIdleTimeout(c.SessionIdleTimeout),
		domain.WithPingInterval(c.PingInterval),
	}
}

// BotConfig は負荷試験用ボットの設定です。
type BotConfig struct {
	Addr           string        `env:"ADDR"                envDefault:"localhost"`
	Port           string        `env:"PORT"                envDefault:"9090"`
	LogLevel       string        `env:"LOG_LEVEL"           envDefault:"info"`
	BotCount       int           `env:"BOT_COUNT"           envDefault:"4"`
	ActionInterval time.Duration `env:"BOT_ACTION_INTERVAL" envDefault:"100ms"`
	OtelEndpoint   string        `env:"OTEL_ENDPOINT"`
}

func LoadBot() (BotConfig, error) {
	cfg, err := env.ParseAs[BotConfig]()
	if err != nil {
		return BotConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BotCount <= 0 {
		return BotConfig{}, ErrInvalidBotCount
	}
	return cfg, nil
}

// URL は接続先のWebSocket URLです。
func (c BotConfig) URL() string {
	return "ws://" + net.JoinHostPort(c.Addr, c.Port) + "/ws"
}

func (c BotConfig) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

// ParseLevel は "debug" / "info" / "warn" / "error" をslog.Levelに変換します。
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
