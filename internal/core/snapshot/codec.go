// Package snapshot exports the whole entity store to a self-describing
// document and restores it exactly.
//
// A document declares its format version and the ordered list of component
// types it was written with. Import refuses documents whose declaration
// differs from the codec's, so components are never silently dropped, and
// every check runs before the destination world is touched.
package snapshot

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
	"gopkg.in/yaml.v3"
)

// Version is bumped whenever a component's encoding changes.
const Version = 1

var (
	ErrParse          = errors.New("snapshot: malformed document")
	ErrSchemaMismatch = errors.New("snapshot: schema mismatch")
	ErrChecksum       = errors.New("snapshot: checksum mismatch")
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatFor picks the format from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Tagged is one component value labelled with its type.
type Tagged struct {
	Type string `json:"type" yaml:"type"`
	Data any    `json:"data" yaml:"data"`
}

// Document is the serialized form of a world.
type Document struct {
	Version  int                 `json:"version" yaml:"version"`
	Types    []string            `json:"types" yaml:"types"`
	Checksum string              `json:"checksum" yaml:"checksum"`
	Entities map[string][]Tagged `json:"entities" yaml:"entities"`
}

type rawTagged struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type rawDocument struct {
	Version  int                    `json:"version"`
	Types    []string               `json:"types"`
	Checksum string                 `json:"checksum"`
	Entities map[string][]rawTagged `json:"entities"`
}

// pair is one restored component waiting for its entity.
type pair struct {
	entity models.Entity
	value  any
}

// Codec reads and writes documents for a fixed ordered list of kinds.
type Codec struct {
	kinds  []Kind
	format Format
}

// New creates a codec for kinds in the given order. With no kinds it uses
// AllKinds.
func New(format Format, kinds ...Kind) *Codec {
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	if format == "" {
		format = JSON
	}
	return &Codec{kinds: slices.Clone(kinds), format: format}
}

func (c *Codec) Format() Format { return c.format }

// Kinds returns the declared type order.
func (c *Codec) Kinds() []Kind { return slices.Clone(c.kinds) }

func (c *Codec) typeNames() []string {
	names := make([]string, len(c.kinds))
	for i, k := range c.kinds {
		names[i] = k.String()
	}
	return names
}

// Document builds the in-memory form of w. Entities without any declared
// component are kept so identities survive.
func (c *Codec) Document(w *storage.World) Document {
	doc := Document{
		Version:  Version,
		Types:    c.typeNames(),
		Entities: make(map[string][]Tagged, w.Len()),
	}
	byKind := make([][]pair, len(c.kinds))
	var ids []models.Entity
	for e := range w.Alive() {
		ids = append(ids, e)
		list := []Tagged{}
		for i, k := range c.kinds {
			if v, ok := k.extract(w, e); ok {
				list = append(list, Tagged{Type: k.String(), Data: v})
				byKind[i] = append(byKind[i], pair{entity: e, value: v})
			}
		}
		doc.Entities[e.String()] = list
	}
	canonical(ids, byKind)
	doc.Checksum = checksum(ids, c.kinds, byKind)
	return doc
}

// Export writes the whole world to out.
func (c *Codec) Export(w *storage.World, out io.Writer) error {
	doc := c.Document(w)
	switch c.format {
	case YAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("snapshot: encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("snapshot: encode json: %w", err)
		}
		return nil
	}
}

// Import replaces the contents of w with the document read from in. On any
// error w is left exactly as it was.
func (c *Codec) Import(in io.Reader, w *storage.World) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	raw, err := c.parse(data)
	if err != nil {
		return err
	}
	if raw.Version != Version {
		return fmt.Errorf("%w: version %d, want %d", ErrSchemaMismatch, raw.Version, Version)
	}
	if want := c.typeNames(); !slices.Equal(raw.Types, want) {
		return fmt.Errorf("%w: types %v, want %v", ErrSchemaMismatch, raw.Types, want)
	}

	ids, byKind, err := c.collect(raw)
	if err != nil {
		return err
	}
	if sum := checksum(ids, c.kinds, byKind); sum != raw.Checksum {
		return fmt.Errorf("%w: got %s, document says %s", ErrChecksum, sum, raw.Checksum)
	}

	w.Clear()
	for _, e := range ids {
		if err := w.Restore(e); err != nil {
			// ids are unique and the world is empty, so this cannot happen
			panic(err)
		}
	}
	for i, k := range c.kinds {
		for _, p := range byKind[i] {
			k.attach(w, p.entity, p.value)
		}
	}
	return nil
}

func (c *Codec) parse(data []byte) (rawDocument, error) {
	var raw rawDocument
	if c.format == YAML {
		// YAML is normalised through the JSON data model so both formats
		// share one strict decoder.
		var generic any
		ydec := yaml.NewDecoder(bytes.NewReader(data))
		if err := ydec.Decode(&generic); err != nil {
			return raw, fmt.Errorf("%w: %w", ErrParse, err)
		}
		var extra any
		if err := ydec.Decode(&extra); !errors.Is(err, io.EOF) {
			return raw, fmt.Errorf("%w: trailing data after document", ErrParse)
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return raw, fmt.Errorf("%w: %w", ErrParse, err)
		}
		data = converted
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return raw, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return raw, fmt.Errorf("%w: trailing data after document", ErrParse)
	}
	if raw.Entities == nil {
		return raw, fmt.Errorf("%w: missing entities", ErrParse)
	}
	return raw, nil
}

// collect decodes every component and groups them type by type across all
// entities, the order they are restored in.
func (c *Codec) collect(raw rawDocument) ([]models.Entity, [][]pair, error) {
	position := make(map[Kind]int, len(c.kinds))
	for i, k := range c.kinds {
		position[k] = i
	}

	ids := make([]models.Entity, 0, len(raw.Entities))
	seen := make(map[models.Entity]string, len(raw.Entities))
	byKind := make([][]pair, len(c.kinds))
	for key, list := range raw.Entities {
		e, err := models.ParseEntity(key)
		if err != nil || e.IsNull() {
			return nil, nil, fmt.Errorf("%w: entity id %q", ErrParse, key)
		}
		if other, dup := seen[e]; dup {
			return nil, nil, fmt.Errorf("%w: entity %q repeats %q", ErrParse, key, other)
		}
		seen[e] = key
		ids = append(ids, e)

		last := -1
		for _, t := range list {
			k, ok := ParseKind(t.Type)
			idx, declared := position[k]
			if !ok || !declared {
				return nil, nil, fmt.Errorf("%w: entity %s: undeclared type %q", ErrParse, key, t.Type)
			}
			if idx <= last {
				return nil, nil, fmt.Errorf("%w: entity %s: %s out of order", ErrParse, key, t.Type)
			}
			last = idx
			v, err := k.decode(t.Data)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: entity %s: %s: %w", ErrParse, key, t.Type, err)
			}
			byKind[idx] = append(byKind[idx], pair{entity: e, value: v})
		}
	}

	canonical(ids, byKind)
	return ids, byKind, nil
}

// canonical sorts ids and every kind's pairs by numeric entity id.
func canonical(ids []models.Entity, byKind [][]pair) {
	slices.Sort(ids)
	for _, pairs := range byKind {
		slices.SortFunc(pairs, func(a, b pair) int { return cmp.Compare(a.entity, b.entity) })
	}
}

// checksum hashes the typed content. Callers sort with canonical first.
func checksum(ids []models.Entity, kinds []Kind, byKind [][]pair) string {
	h := xxhash.New()
	var buf [8]byte
	for _, e := range ids {
		binary.LittleEndian.PutUint64(buf[:], uint64(e))
		_, _ = h.Write(buf[:])
	}
	for i, k := range kinds {
		_, _ = h.WriteString(k.String())
		for _, p := range byKind[i] {
			binary.LittleEndian.PutUint64(buf[:], uint64(p.entity))
			_, _ = h.Write(buf[:])
			encoded, _ := json.Marshal(p.value)
			_, _ = h.Write(encoded)
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
