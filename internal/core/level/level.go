// Package level reads the two-document tile map format and turns it into
// wall and agent spawn calls.
package level

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeusync/escape/internal/core/models"
)

const (
	ConfigurationFile = "configuration.json"
	MapDataFile       = "mapdata.json"

	// Scale converts map pixels to world units.
	Scale = 1.0 / 16.0

	TileWall        = "Wall"
	ObjectSpawn     = "SpawnPoint"
	SpawnPlayer     = "player"
	SpawnAgent      = "agent"
	PropertyAI      = "ai"
	DefaultAIScript = "simple_ai"
)

var ErrInvalidLevel = errors.New("invalid level")

// Spawner receives the entities a level describes.
type Spawner interface {
	CreateWall(x, y, width, height float64)
	CreateAgent(pos models.Vec2, id, group int, profile string)
}

type Tile struct {
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Configuration maps tile index-1 to its description.
type Configuration struct {
	Tiles []Tile `json:"tiles"`
}

type Property struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value any    `json:"value"`
}

type Object struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Properties []Property `json:"properties,omitempty"`
}

// Property returns the string property key of o.
func (o Object) Property(key string) (string, bool) {
	for _, p := range o.Properties {
		if p.Name != key {
			continue
		}
		s, ok := p.Value.(string)
		return s, ok
	}
	return "", false
}

// Layer is either a tile layer (Data, row-major width*height) or an object
// layer.
type Layer struct {
	Name    string   `json:"name"`
	Data    []int    `json:"data,omitempty"`
	Objects []Object `json:"objects,omitempty"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
}

type Map struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	TileWidth  float64 `json:"tilewidth"`
	TileHeight float64 `json:"tileheight"`
	Layers     []Layer `json:"layers"`
}

type Level struct {
	Configuration Configuration
	Map           Map
}

// Stats counts what Apply spawned.
type Stats struct {
	Walls   int
	Players int
	Agents  int
}

// Load reads a level directory.
func Load(dir string) (*Level, error) {
	cfg, err := os.Open(filepath.Join(dir, ConfigurationFile))
	if err != nil {
		return nil, fmt.Errorf("level: %w", err)
	}
	defer cfg.Close()
	data, err := os.Open(filepath.Join(dir, MapDataFile))
	if err != nil {
		return nil, fmt.Errorf("level: %w", err)
	}
	defer data.Close()
	return Parse(cfg, data)
}

// Parse decodes the two documents and checks that they agree.
func Parse(configuration, mapdata io.Reader) (*Level, error) {
	l := &Level{}
	if err := json.NewDecoder(configuration).Decode(&l.Configuration); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLevel, ConfigurationFile, err)
	}
	if err := json.NewDecoder(mapdata).Decode(&l.Map); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLevel, MapDataFile, err)
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Level) validate() error {
	m := l.Map
	if m.Width < 0 || m.Height < 0 || m.TileWidth <= 0 || m.TileHeight <= 0 {
		return fmt.Errorf("%w: map dimensions %dx%d tiles of %gx%g", ErrInvalidLevel, m.Width, m.Height, m.TileWidth, m.TileHeight)
	}
	for _, layer := range m.Layers {
		if layer.Data == nil {
			continue
		}
		if len(layer.Data) != m.Width*m.Height {
			return fmt.Errorf("%w: layer %q has %d tiles, want %d", ErrInvalidLevel, layer.Name, len(layer.Data), m.Width*m.Height)
		}
		for i, t := range layer.Data {
			if t < 0 || t > len(l.Configuration.Tiles) {
				return fmt.Errorf("%w: layer %q tile %d uses unknown index %d", ErrInvalidLevel, layer.Name, i, t)
			}
		}
	}
	return nil
}

// Apply emits every wall tile and spawn point. Player spawns get playerID
// and group 1, agent spawns id 0 and group 0. Map y grows downwards, world
// y grows upwards.
func (l *Level) Apply(s Spawner, playerID int) Stats {
	var stats Stats
	m := l.Map
	tw, th := m.TileWidth*Scale, m.TileHeight*Scale
	for _, layer := range m.Layers {
		if layer.Data != nil {
			for r := 0; r < m.Height; r++ {
				for c := 0; c < m.Width; c++ {
					t := layer.Data[r*m.Width+c]
					if t == 0 || l.Configuration.Tiles[t-1].Type != TileWall {
						continue
					}
					x := (float64(c)*m.TileWidth + layer.X) * Scale
					y := -(float64(r)*m.TileHeight + layer.Y) * Scale
					s.CreateWall(x, y, tw, th)
					stats.Walls++
				}
			}
			continue
		}
		for _, obj := range layer.Objects {
			if obj.Type != ObjectSpawn {
				continue
			}
			pos := models.V(obj.X*Scale, -obj.Y*Scale)
			switch obj.Name {
			case SpawnPlayer:
				s.CreateAgent(pos, playerID, 1, "")
				stats.Players++
			case SpawnAgent:
				profile, ok := obj.Property(PropertyAI)
				if !ok {
					profile = DefaultAIScript
				}
				s.CreateAgent(pos, 0, 0, profile)
				stats.Agents++
			}
		}
	}
	return stats
}
