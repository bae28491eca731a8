package storage

import "github.com/zeusync/escape/internal/core/models"

// componentStore is the type-erased view of a Store used by the World for
// destruction, clearing and view driving.
type componentStore interface {
	has(e models.Entity) bool
	remove(e models.Entity)
	clear()
	count() int
	at(i int) models.Entity
}

// Store holds every component of type T. Components are heap allocated so the
// pointer handed out by Get stays valid until the component is removed.
// dense keeps insertion order (modulo swap-removal) for deterministic views.
type Store[T any] struct {
	items map[models.Entity]*T
	index map[models.Entity]int
	dense []models.Entity
}

func newStore[T any]() *Store[T] {
	return &Store[T]{
		items: make(map[models.Entity]*T),
		index: make(map[models.Entity]int),
		dense: make([]models.Entity, 0, 64),
	}
}

func (s *Store[T]) set(e models.Entity, val T) *T {
	if ptr, ok := s.items[e]; ok {
		*ptr = val
		return ptr
	}
	ptr := new(T)
	*ptr = val
	s.items[e] = ptr
	s.index[e] = len(s.dense)
	s.dense = append(s.dense, e)
	return ptr
}

func (s *Store[T]) get(e models.Entity) (*T, bool) {
	ptr, ok := s.items[e]
	return ptr, ok
}

func (s *Store[T]) has(e models.Entity) bool {
	_, ok := s.items[e]
	return ok
}

func (s *Store[T]) remove(e models.Entity) {
	i, ok := s.index[e]
	if !ok {
		return
	}
	last := len(s.dense) - 1
	if i != last {
		moved := s.dense[last]
		s.dense[i] = moved
		s.index[moved] = i
	}
	s.dense = s.dense[:last]
	delete(s.index, e)
	delete(s.items, e)
}

func (s *Store[T]) clear() {
	s.items = make(map[models.Entity]*T)
	s.index = make(map[models.Entity]int)
	s.dense = make([]models.Entity, 0, 64)
}

func (s *Store[T]) count() int { return len(s.dense) }

func (s *Store[T]) at(i int) models.Entity { return s.dense[i] }
