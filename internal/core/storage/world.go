// Package storage is the entity store: entity identifiers plus one typed
// component store per component type.
//
// The store is single-owner and not safe for concurrent use. Structural
// changes (Create, Destroy, Assign, Remove) while ranging over a view are
// undefined; collect the entities first, then mutate.
package storage

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/zeusync/escape/internal/core/models"
)

// World owns every entity and component of a run.
type World struct {
	generations []uint32 // slot i+1 -> current generation
	alive       []bool
	free        []uint32
	live        int
	stores      map[reflect.Type]componentStore
}

// NewWorld returns an empty World. Gameplay code receives the World from the
// system registry and never constructs its own.
func NewWorld() *World {
	return &World{stores: make(map[reflect.Type]componentStore)}
}

// Create allocates a fresh entity, reusing destroyed slots with a bumped generation.
func (w *World) Create() models.Entity {
	for len(w.free) > 0 {
		idx := w.free[len(w.free)-1]
		w.free = w.free[:len(w.free)-1]
		if w.alive[idx-1] {
			// slot was taken back by Restore
			continue
		}
		w.alive[idx-1] = true
		w.live++
		return models.NewEntity(idx, w.generations[idx-1])
	}
	w.generations = append(w.generations, 0)
	w.alive = append(w.alive, true)
	w.live++
	return models.NewEntity(uint32(len(w.generations)), 0)
}

// Restore recreates e with its exact index and generation. It is used when
// loading snapshots into a cleared world.
func (w *World) Restore(e models.Entity) error {
	idx := e.Index()
	if idx == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidEntity, e)
	}
	for uint32(len(w.generations)) < idx {
		w.generations = append(w.generations, 0)
		w.alive = append(w.alive, false)
		w.free = append(w.free, uint32(len(w.generations)))
	}
	if w.alive[idx-1] {
		return fmt.Errorf("%w: %s", ErrEntityExists, e)
	}
	w.generations[idx-1] = e.Generation()
	w.alive[idx-1] = true
	w.live++
	return nil
}

// Destroy removes every component of e and invalidates the identifier.
// Destroying a stale or null entity is a no-op.
func (w *World) Destroy(e models.Entity) {
	if !w.Valid(e) {
		return
	}
	for _, s := range w.stores {
		s.remove(e)
	}
	idx := e.Index()
	w.alive[idx-1] = false
	w.generations[idx-1]++
	w.free = append(w.free, idx)
	w.live--
}

// Valid reports whether e still names a live entity.
func (w *World) Valid(e models.Entity) bool {
	idx := e.Index()
	if idx == 0 || int(idx) > len(w.generations) {
		return false
	}
	return w.alive[idx-1] && w.generations[idx-1] == e.Generation()
}

// Len returns the number of live entities.
func (w *World) Len() int { return w.live }

// Empty reports whether no more entities are alive.
func (w *World) Empty() bool { return w.live == 0 }

// Alive yields every live entity in ascending index order.
func (w *World) Alive() iter.Seq[models.Entity] {
	return func(yield func(models.Entity) bool) {
		for i, ok := range w.alive {
			if !ok {
				continue
			}
			if !yield(models.NewEntity(uint32(i+1), w.generations[i])) {
				return
			}
		}
	}
}

// Clear destroys every entity and resets identifier allocation.
func (w *World) Clear() {
	for _, s := range w.stores {
		s.clear()
	}
	w.generations = nil
	w.alive = nil
	w.free = nil
	w.live = 0
}

func typeOf[C any]() reflect.Type { return reflect.TypeFor[C]() }

func lookup[C any](w *World) *Store[C] {
	s, ok := w.stores[typeOf[C]()]
	if !ok {
		return nil
	}
	return s.(*Store[C])
}

func storeFor[C any](w *World) *Store[C] {
	if s := lookup[C](w); s != nil {
		return s
	}
	s := newStore[C]()
	w.stores[typeOf[C]()] = s
	return s
}

// Has reports whether e is alive and holds a component of type C.
func Has[C any](w *World, e models.Entity) bool {
	if !w.Valid(e) {
		return false
	}
	s := lookup[C](w)
	return s != nil && s.has(e)
}

// Get returns a pointer to e's component of type C. Callers are expected to
// check Has first; a miss is reported as ErrComponentNotFound.
func Get[C any](w *World, e models.Entity) (*C, error) {
	if !w.Valid(e) {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, e)
	}
	if s := lookup[C](w); s != nil {
		if ptr, ok := s.get(e); ok {
			return ptr, nil
		}
	}
	return nil, fmt.Errorf("%w: %s on entity %s", ErrComponentNotFound, typeOf[C](), e)
}

// Assign attaches c to e, overwriting any existing component of the same type.
// Assigning to a dead entity is a programming error and panics.
func Assign[C any](w *World, e models.Entity, c C) *C {
	if !w.Valid(e) {
		panic(fmt.Sprintf("storage: assign %s to dead entity %s", typeOf[C](), e))
	}
	return storeFor[C](w).set(e, c)
}

// Remove detaches e's component of type C if present.
func Remove[C any](w *World, e models.Entity) {
	if s := lookup[C](w); s != nil {
		s.remove(e)
	}
}

// Count returns how many entities hold a component of type C.
func Count[C any](w *World) int {
	if s := lookup[C](w); s != nil {
		return s.count()
	}
	return 0
}
