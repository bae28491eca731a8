package snapshot

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
)

// populate builds a world that uses every kind and has reused slots, so ids
// carry non-zero generations.
func populate(t *testing.T) (*storage.World, models.Entity, models.Entity) {
	t.Helper()
	w := storage.NewWorld()
	scratch := w.Create()
	w.Destroy(scratch)

	agent := w.Create()
	storage.Assign(w, agent, models.Name{Value: "player"})
	storage.Assign(w, agent, models.Position{Vec2: models.V(1.25, -3.5)})
	storage.Assign(w, agent, models.Velocity{Vec2: models.V(0.1, 0.2)})
	storage.Assign(w, agent, models.Rotation{Radian: 0.75})
	storage.Assign(w, agent, models.Hitbox{Radius: 1})
	storage.Assign(w, agent, models.Health{Current: 42.5, Max: 100})
	storage.Assign(w, agent, models.AgentData{ID: 1, Group: 1})
	storage.Assign(w, agent, models.Weapon{Kind: models.SMG, Last: 1.5, Next: 1.5 + 1.0/30})

	bot := w.Create()
	storage.Assign(w, bot, models.AgentData{ID: 0, Group: 0})
	storage.Assign(w, bot, models.AIControl{Profile: "simple_ai"})

	bullet := w.Create()
	storage.Assign(w, bullet, models.BulletData{Firer: agent, Group: 1, Type: models.SMGBullet, Damage: 4, Density: 7.6, Radius: 0.3})
	storage.Assign(w, bullet, models.Lifespan{Begin: 1.5, End: 4.5})

	wall := w.Create()
	storage.Assign(w, wall, models.TerrainData{Kind: models.TerrainBox, Args: [4]float64{1, 2}})

	clock := w.Create()
	storage.Assign(w, clock, models.ClockInfo{Tick: 90, Elapsed: 1.5})

	w.Create() // no components at all
	return w, agent, bullet
}

func contents(w *storage.World) map[string]map[models.Entity]any {
	out := make(map[string]map[models.Entity]any)
	for _, k := range AllKinds {
		m := make(map[models.Entity]any)
		for e := range w.Alive() {
			if v, ok := k.extract(w, e); ok {
				m[e] = v
			}
		}
		out[k.String()] = m
	}
	return out
}

func alive(w *storage.World) []models.Entity { return storage.Collect(w.Alive()) }

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{JSON, YAML} {
		t.Run(string(format), func(t *testing.T) {
			src, _, _ := populate(t)
			codec := New(format)

			var buf bytes.Buffer
			require.NoError(t, codec.Export(src, &buf))

			dst := storage.NewWorld()
			dst.Create()
			require.NoError(t, codec.Import(&buf, dst))

			assert.Equal(t, alive(src), alive(dst))
			assert.Equal(t, contents(src), contents(dst))
		})
	}
}

func TestImportedWorldKeepsAllocating(t *testing.T) {
	src, _, _ := populate(t)
	codec := New(JSON)
	var buf bytes.Buffer
	require.NoError(t, codec.Export(src, &buf))
	dst := storage.NewWorld()
	require.NoError(t, codec.Import(&buf, dst))

	seen := make(map[models.Entity]bool)
	for e := range dst.Alive() {
		seen[e] = true
	}
	fresh := dst.Create()
	assert.False(t, seen[fresh])
	assert.True(t, dst.Valid(fresh))
}

func TestStaleFirerSurvivesAsNumber(t *testing.T) {
	src, agent, bullet := populate(t)
	src.Destroy(agent)
	codec := New(JSON)
	var buf bytes.Buffer
	require.NoError(t, codec.Export(src, &buf))

	dst := storage.NewWorld()
	require.NoError(t, codec.Import(&buf, dst))
	data, err := storage.Get[models.BulletData](dst, bullet)
	require.NoError(t, err)
	assert.Equal(t, agent, data.Firer)
	assert.False(t, dst.Valid(data.Firer))
}

func exportDoc(t *testing.T, w *storage.World) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, New(JSON).Export(w, &buf))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	return doc
}

func encode(t *testing.T, doc map[string]any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestFailuresKeepTheWorld(t *testing.T) {
	src, _, _ := populate(t)
	good := exportDoc(t, src)

	cases := map[string]struct {
		input func() *bytes.Reader
		codec *Codec
		want  error
	}{
		"truncated": {
			input: func() *bytes.Reader {
				var buf bytes.Buffer
				require.NoError(t, New(JSON).Export(src, &buf))
				return bytes.NewReader(buf.Bytes()[:buf.Len()/2])
			},
			want: ErrParse,
		},
		"trailing garbage": {
			input: func() *bytes.Reader {
				var buf bytes.Buffer
				require.NoError(t, New(JSON).Export(src, &buf))
				buf.WriteString(`{garbage`)
				return bytes.NewReader(buf.Bytes())
			},
			want: ErrParse,
		},
		"second yaml document": {
			input: func() *bytes.Reader {
				var buf bytes.Buffer
				require.NoError(t, New(YAML).Export(src, &buf))
				buf.WriteString("---\nversion: 1\n")
				return bytes.NewReader(buf.Bytes())
			},
			codec: New(YAML),
			want:  ErrParse,
		},
		"not a document": {
			input: func() *bytes.Reader { return bytes.NewReader([]byte(`[1,2,3]`)) },
			want:  ErrParse,
		},
		"version": {
			input: func() *bytes.Reader {
				doc := exportDoc(t, src)
				doc["version"] = Version + 1
				return encode(t, doc)
			},
			want: ErrSchemaMismatch,
		},
		"declared order differs": {
			input: func() *bytes.Reader { return encode(t, good) },
			codec: New(JSON, KindPosition, KindName),
			want:  ErrSchemaMismatch,
		},
		"checksum": {
			input: func() *bytes.Reader {
				doc := exportDoc(t, src)
				doc["checksum"] = "0"
				return encode(t, doc)
			},
			want: ErrChecksum,
		},
		"undeclared tag": {
			input: func() *bytes.Reader {
				doc := exportDoc(t, src)
				ents := doc["entities"].(map[string]any)
				for id := range ents {
					ents[id] = []any{map[string]any{"type": "Gravity", "data": map[string]any{}}}
					break
				}
				return encode(t, doc)
			},
			want: ErrParse,
		},
		"bad entity id": {
			input: func() *bytes.Reader {
				doc := exportDoc(t, src)
				doc["entities"].(map[string]any)["zero"] = []any{}
				return encode(t, doc)
			},
			want: ErrParse,
		},
		"unknown field in component": {
			input: func() *bytes.Reader {
				doc := exportDoc(t, src)
				doc["entities"] = map[string]any{"1": []any{map[string]any{"type": "Health", "data": map[string]any{"hp": 1}}}}
				return encode(t, doc)
			},
			want: ErrParse,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dst, _, _ := populate(t)
			before := contents(dst)
			codec := tc.codec
			if codec == nil {
				codec = New(JSON)
			}
			err := codec.Import(tc.input(), dst)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, before, contents(dst), "world untouched")
		})
	}
}

func TestSubsetCodecOnlyCarriesDeclaredKinds(t *testing.T) {
	src, agent, _ := populate(t)
	codec := New(YAML, KindPosition, KindHealth)
	var buf bytes.Buffer
	require.NoError(t, codec.Export(src, &buf))
	assert.True(t, strings.Contains(buf.String(), "Position"))
	assert.False(t, strings.Contains(buf.String(), "AgentData"))

	dst := storage.NewWorld()
	require.NoError(t, codec.Import(&buf, dst))
	assert.True(t, storage.Has[models.Health](dst, agent))
	assert.False(t, storage.Has[models.Name](dst, agent))
	assert.Equal(t, src.Len(), dst.Len())
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	src, _, _ := populate(t)
	for _, name := range []string{"world.json", "world.yaml"} {
		path := filepath.Join(dir, name)
		codec := New(FormatFor(path))
		require.NoError(t, codec.SaveFile(path, src))

		dst := storage.NewWorld()
		require.NoError(t, codec.LoadFile(path, dst))
		assert.Equal(t, contents(src), contents(dst))
	}
	matches, err := filepath.Glob(filepath.Join(dir, ".*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "no temp files left behind")

	assert.Error(t, New(JSON).LoadFile(filepath.Join(dir, "missing.json"), storage.NewWorld()))
}

func TestKindNames(t *testing.T) {
	for _, k := range AllKinds {
		got, ok := ParseKind(k.String())
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseKind("Message")
	assert.False(t, ok)
	assert.Equal(t, YAML, FormatFor("a/b.YML"))
	assert.Equal(t, JSON, FormatFor("a/b"))
}
