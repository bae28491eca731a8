// Package config holds the typed run configuration. Defaults carry the tuned
// values of the original game; files may override any subset.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeusync/escape/internal/core/models"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Simulation Simulation               `json:"simulation" yaml:"simulation"`
	Physics    Physics                  `json:"physics" yaml:"physics"`
	Agents     Agents                   `json:"agents" yaml:"agents"`
	Bullets    Bullets                  `json:"bullets" yaml:"bullets"`
	Weapons    []models.WeaponPrototype `json:"weapons" yaml:"weapons"`
	Snapshot   Snapshot                 `json:"snapshot" yaml:"snapshot"`
	Server     Server                   `json:"server" yaml:"server"`
	Log        Log                      `json:"log" yaml:"log"`
}

type Simulation struct {
	// TickRate is the number of fixed steps per wall-clock second.
	TickRate int `json:"tick_rate" yaml:"tick_rate"`
	// Seed drives the clock's random source (weapon spread).
	Seed uint64 `json:"seed" yaml:"seed"`
}

// Delta is the fixed step length in seconds.
func (s Simulation) Delta() float64 { return 1 / float64(s.TickRate) }

// Interval is the wall-clock period of one tick.
func (s Simulation) Interval() time.Duration { return time.Second / time.Duration(s.TickRate) }

// Physics tunes the rigid-body step. Low iteration counts trade precision for
// throughput; agents get strong damping so they stop without input.
type Physics struct {
	VelocityIterations int     `json:"velocity_iterations" yaml:"velocity_iterations"`
	PositionIterations int     `json:"position_iterations" yaml:"position_iterations"`
	WallFriction       float64 `json:"wall_friction" yaml:"wall_friction"`
	AgentDensity       float64 `json:"agent_density" yaml:"agent_density"`
	AgentFriction      float64 `json:"agent_friction" yaml:"agent_friction"`
	AgentDamping       float64 `json:"agent_damping" yaml:"agent_damping"`
	BulletFriction     float64 `json:"bullet_friction" yaml:"bullet_friction"`
}

type Agents struct {
	Radius    float64           `json:"radius" yaml:"radius"`
	MaxHealth float64           `json:"max_health" yaml:"max_health"`
	MoveSpeed float64           `json:"move_speed" yaml:"move_speed"`
	Weapon    models.WeaponType `json:"weapon" yaml:"weapon"`
	PlayerID  int               `json:"player_id" yaml:"player_id"`
}

type Bullets struct {
	Density     float64 `json:"density" yaml:"density"`
	Radius      float64 `json:"radius" yaml:"radius"`
	ShellRadius float64 `json:"shell_radius" yaml:"shell_radius"`
	Lifetime    float64 `json:"lifetime" yaml:"lifetime"`
	Knockback   float64 `json:"knockback" yaml:"knockback"`
}

type Snapshot struct {
	Path   string `json:"path" yaml:"path"`
	Format string `json:"format" yaml:"format"`
}

type Server struct {
	Addr       string `json:"addr" yaml:"addr"`
	SendBuffer int    `json:"send_buffer" yaml:"send_buffer"`
	MaxClients int    `json:"max_clients" yaml:"max_clients"`
}

type Log struct {
	Level string `json:"level" yaml:"level"`
}

// DefaultWeapons is the stock weapon table.
func DefaultWeapons() []models.WeaponPrototype {
	return []models.WeaponPrototype{
		{
			Type:         models.Handgun,
			BulletType:   models.HandgunBullet,
			Cooldown:     0.5,
			Accuracy:     95,
			BulletNumber: 1,
			BulletDamage: 10,
			BulletSpeed:  60,
			GunLength:    2.1,
		},
		{
			Type:         models.Shotgun,
			BulletType:   models.ShotgunShell,
			Cooldown:     1.5,
			Accuracy:     80,
			BulletNumber: 10,
			BulletDamage: 8,
			BulletSpeed:  60,
			GunLength:    2.5,
		},
		{
			Type:         models.SMG,
			BulletType:   models.SMGBullet,
			Cooldown:     1.0 / 30,
			Accuracy:     85,
			BulletNumber: 1,
			BulletDamage: 4,
			BulletSpeed:  60,
			GunLength:    2.3,
		},
		{
			Type:         models.Rifle,
			BulletType:   models.RifleBullet,
			Cooldown:     2,
			Accuracy:     97,
			BulletNumber: 1,
			BulletDamage: 55,
			BulletSpeed:  100,
			GunLength:    3,
		},
	}
}

func Default() Config {
	return Config{
		Simulation: Simulation{TickRate: 60, Seed: 1},
		Physics: Physics{
			VelocityIterations: 1,
			PositionIterations: 1,
			WallFriction:       1e6,
			AgentDensity:       1,
			AgentFriction:      0.1,
			AgentDamping:       15,
			BulletFriction:     1e6,
		},
		Agents: Agents{
			Radius:    1,
			MaxHealth: 100,
			MoveSpeed: 20,
			Weapon:    models.Handgun,
			PlayerID:  1,
		},
		Bullets: Bullets{
			Density:     7.6,
			Radius:      0.3,
			ShellRadius: 0.2,
			Lifetime:    3,
			Knockback:   2,
		},
		Weapons:  DefaultWeapons(),
		Snapshot: Snapshot{Path: "world.json", Format: "json"},
		Server:   Server{Addr: "127.0.0.1:8080", SendBuffer: 16, MaxClients: 64},
		Log:      Log{Level: "info"},
	}
}

// Load reads path on top of Default. The decoder is chosen by extension:
// .yaml/.yml use YAML, anything else JSON.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(f)
	default:
		return LoadJSON(f)
	}
}

func LoadYAML(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode yaml config: %w", err)
	}
	return c, c.Validate()
}

func LoadJSON(r io.Reader) (Config, error) {
	c := Default()
	dec := json.NewDecoder(r)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode json config: %w", err)
	}
	return c, c.Validate()
}

// Validate rejects values the simulation cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Simulation.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("simulation.tick_rate must be positive, got %d", c.Simulation.TickRate))
	}
	if c.Physics.VelocityIterations <= 0 || c.Physics.PositionIterations <= 0 {
		errs = append(errs, errors.New("physics iterations must be positive"))
	}
	if c.Agents.Radius <= 0 || c.Bullets.Radius <= 0 || c.Bullets.ShellRadius <= 0 {
		errs = append(errs, errors.New("radii must be positive"))
	}
	if c.Bullets.Lifetime <= 0 {
		errs = append(errs, errors.New("bullets.lifetime must be positive"))
	}
	seen := make(map[models.WeaponType]bool, len(c.Weapons))
	for _, w := range c.Weapons {
		if seen[w.Type] {
			errs = append(errs, fmt.Errorf("weapon %s declared twice", w.Type))
		}
		seen[w.Type] = true
		if w.BulletNumber <= 0 || w.Cooldown < 0 {
			errs = append(errs, fmt.Errorf("weapon %s: bullet_number must be positive and cooldown non-negative", w.Type))
		}
	}
	if !seen[c.Agents.Weapon] {
		errs = append(errs, fmt.Errorf("agents.weapon %q has no prototype", c.Agents.Weapon))
	}
	if c.Server.SendBuffer <= 0 || c.Server.MaxClients <= 0 {
		errs = append(errs, errors.New("server.send_buffer and server.max_clients must be positive"))
	}
	switch c.Snapshot.Format {
	case "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("snapshot.format must be json or yaml, got %q", c.Snapshot.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
