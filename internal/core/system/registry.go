package system

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/storage"
)

// Registry owns the World and one instance of every registered System.
// Registration order is execution order: a system that writes velocities
// must be registered before the physics bridge, which must come before
// systems reading post-physics positions.
type Registry struct {
	world   *storage.World
	systems []System
	byType  map[reflect.Type]System
	byName  map[string]System
	metrics map[string]*Metrics
	state   StateIdentity
	ticks   uint64
	logger  log.Log
}

// NewRegistry creates the registry together with the World it exclusively owns.
func NewRegistry(logger log.Log) *Registry {
	return &Registry{
		world:   storage.NewWorld(),
		byType:  make(map[reflect.Type]System),
		byName:  make(map[string]System),
		metrics: make(map[string]*Metrics),
		logger:  logger.With(log.String("component", "registry")),
	}
}

// World returns the store owned by the registry. Readers such as renderers
// and the snapshot codec use it between ticks.
func (r *Registry) World() *storage.World { return r.world }

// Register stores s keyed by its concrete type and name.
func (r *Registry) Register(s System) error {
	if r.state != StateRegistering {
		return ErrRegistryStarted
	}
	t := reflect.TypeOf(s)
	if _, ok := r.byType[t]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, t)
	}
	if _, ok := r.byName[s.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, s.Name())
	}
	r.systems = append(r.systems, s)
	r.byType[t] = s
	r.byName[s.Name()] = s
	r.metrics[s.Name()] = &Metrics{}
	r.logger.Debug("system registered", log.String("system", s.Name()), log.Int("position", len(r.systems)-1))
	return nil
}

// Find returns the registered instance of S.
func Find[S System](r *Registry) (S, error) {
	var zero S
	t := reflect.TypeFor[S]()
	s, ok := r.byType[t]
	if !ok {
		return zero, &WiringError{Dependency: t.String(), Err: ErrNotRegistered}
	}
	return s.(S), nil
}

// MustFind is Find for startup wiring; a missing system panics with a WiringError.
func MustFind[S System](r *Registry) S {
	s, err := Find[S](r)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns a system by name.
func (r *Registry) Lookup(name string) (System, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// ValidateDependencies checks that every declared dependency is registered
// before its dependent. Since a system can only depend on earlier ones the
// dependency graph cannot contain a cycle.
func (r *Registry) ValidateDependencies() error {
	position := make(map[string]int, len(r.systems))
	for i, s := range r.systems {
		position[s.Name()] = i
	}
	for i, s := range r.systems {
		for _, dep := range s.Dependencies() {
			j, ok := position[dep]
			if !ok {
				return &WiringError{System: s.Name(), Dependency: dep, Err: ErrNotRegistered}
			}
			if j >= i {
				return &WiringError{System: s.Name(), Dependency: dep, Err: ErrDependencyOrder}
			}
		}
	}
	return nil
}

// InitializeAll validates the dependency graph and initialises every system
// in registration order.
func (r *Registry) InitializeAll(ctx context.Context) error {
	if r.state != StateRegistering {
		return ErrRegistryStarted
	}
	r.state = StateInitializing
	if err := r.ValidateDependencies(); err != nil {
		r.state = StateFailed
		return err
	}
	for _, s := range r.systems {
		if err := s.Initialize(ctx, r.world); err != nil {
			r.state = StateFailed
			return fmt.Errorf("initialize %s: %w", s.Name(), err)
		}
		r.logger.Debug("system initialised", log.String("system", s.Name()))
	}
	r.state = StateRunning
	r.logger.Info("systems initialised", log.Int("count", len(r.systems)))
	return nil
}

// Tick runs Update on every system in registration order. The first failing
// system aborts the tick.
func (r *Registry) Tick(delta float64) error {
	if r.state != StateRunning {
		return ErrRegistryNotStarted
	}
	r.ticks++
	for _, s := range r.systems {
		start := time.Now()
		err := s.Update(delta, r.world)
		r.metrics[s.Name()].record(time.Since(start), err)
		if err != nil {
			return fmt.Errorf("tick %d: %s: %w", r.ticks, s.Name(), err)
		}
	}
	return nil
}

// ShutdownAll shuts systems down in reverse registration order.
func (r *Registry) ShutdownAll(ctx context.Context) error {
	var all error
	for i := len(r.systems) - 1; i >= 0; i-- {
		if sd, ok := r.systems[i].(Shutdowner); ok {
			if err := sd.Shutdown(ctx); err != nil {
				all = errors.Join(all, fmt.Errorf("shutdown %s: %w", r.systems[i].Name(), err))
			}
		}
	}
	r.state = StateShutdown
	return all
}

// ExecutionOrder lists system names in update order.
func (r *Registry) ExecutionOrder() []string {
	out := make([]string, len(r.systems))
	for i, s := range r.systems {
		out[i] = s.Name()
	}
	return out
}

func (r *Registry) Metrics(name string) (Metrics, bool) {
	m, ok := r.metrics[name]
	if !ok {
		return Metrics{}, false
	}
	return *m, true
}

func (r *Registry) State() StateIdentity { return r.state }

// Ticks returns how many ticks have been started.
func (r *Registry) Ticks() uint64 { return r.ticks }
