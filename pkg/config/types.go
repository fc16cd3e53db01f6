package config

import (
	"time"

	"github.com/spf13/cast"
)

type ModsSettings struct {
	Directory string   `json:"directory"`
	Extension string   `json:"extension"`
	Remotes   []string `json:"remotes"`
	Watch     bool     `json:"watch"`
	Required  []string `json:"required"`
}

type PoolSettings struct {
	Capacity int    `json:"capacity"`
	Key      string `json:"key"`
}

type ProjectileSettings struct {
	Speed          float64 `json:"speed"`
	DebrisKey      string  `json:"debrisKey"`
	DebrisLifetime string  `json:"debrisLifetime"`
	ImpactSound    string  `json:"impactSound"`
	Range          float64 `json:"range"`
}

// Lifetime is how long debris stays around after an impact.
func (p ProjectileSettings) Lifetime() (time.Duration, error) {
	return cast.ToDurationE(p.DebrisLifetime)
}

type WeaponSettings struct {
	FireRate float64 `json:"fireRate"`
}

type RedisSettings struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type CacheSettings struct {
	Directory string        `json:"directory"`
	Redis     RedisSettings `json:"redis"`
}

type Config struct {
	Mods       ModsSettings       `json:"mods"`
	Pool       PoolSettings       `json:"pool"`
	Projectile ProjectileSettings `json:"projectile"`
	Weapon     WeaponSettings     `json:"weapon"`
	Cache      CacheSettings      `json:"cache"`
}
