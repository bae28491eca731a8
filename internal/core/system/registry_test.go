package system

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/storage"
)

type recorder struct {
	events []string
}

type alpha struct {
	Base
	rec       *recorder
	initWorld *storage.World
}

func (a *alpha) Initialize(_ context.Context, w *storage.World) error {
	a.rec.events = append(a.rec.events, "init:"+a.Name())
	a.initWorld = w
	return nil
}

func (a *alpha) Update(_ float64, _ *storage.World) error {
	a.rec.events = append(a.rec.events, "update:"+a.Name())
	return nil
}

type beta struct {
	Base
	rec *recorder
	err error
}

func (b *beta) Initialize(context.Context, *storage.World) error {
	b.rec.events = append(b.rec.events, "init:"+b.Name())
	return nil
}

func (b *beta) Update(float64, *storage.World) error {
	b.rec.events = append(b.rec.events, "update:"+b.Name())
	return b.err
}

func (b *beta) Shutdown(context.Context) error {
	b.rec.events = append(b.rec.events, "shutdown:"+b.Name())
	return nil
}

type unregistered struct{ Base }

func (unregistered) Initialize(context.Context, *storage.World) error { return nil }
func (unregistered) Update(float64, *storage.World) error             { return nil }

func newPair(t *testing.T) (*Registry, *alpha, *beta, *recorder) {
	t.Helper()
	rec := &recorder{}
	r := NewRegistry(log.NewNop())
	a := &alpha{Base: NewBase("alpha"), rec: rec}
	b := &beta{Base: NewBase("beta", a), rec: rec}
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	return r, a, b, rec
}

func TestFindReturnsStableInstances(t *testing.T) {
	r, a, b, _ := newPair(t)
	require.NoError(t, r.InitializeAll(context.Background()))

	gotA, err := Find[*alpha](r)
	require.NoError(t, err)
	assert.Same(t, a, gotA)
	assert.Same(t, b, MustFind[*beta](r))
	assert.Same(t, gotA, MustFind[*alpha](r))
	assert.Same(t, r.World(), a.initWorld, "systems receive the registry world")
}

func TestFindUnregisteredIsWiringError(t *testing.T) {
	r, _, _, _ := newPair(t)

	_, err := Find[*unregistered](r)
	var wiring *WiringError
	require.ErrorAs(t, err, &wiring)
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.Panics(t, func() { MustFind[*unregistered](r) })
}

func TestInitializeAndTickOrder(t *testing.T) {
	r, _, _, rec := newPair(t)
	require.NoError(t, r.InitializeAll(context.Background()))
	require.NoError(t, r.Tick(0.1))
	require.NoError(t, r.Tick(0.1))

	assert.Equal(t, []string{
		"init:alpha", "init:beta",
		"update:alpha", "update:beta",
		"update:alpha", "update:beta",
	}, rec.events)
	assert.Equal(t, []string{"alpha", "beta"}, r.ExecutionOrder())

	m, ok := r.Metrics("beta")
	require.True(t, ok)
	assert.Equal(t, uint64(2), m.ExecutionCount)
	assert.Equal(t, uint64(2), r.Ticks())
}

func TestDependencyMustBeRegisteredEarlier(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry(log.NewNop())
	a := &alpha{Base: NewBase("alpha"), rec: rec}
	b := &beta{Base: NewBase("beta", a), rec: rec}
	require.NoError(t, r.Register(b))
	require.NoError(t, r.Register(a))

	err := r.InitializeAll(context.Background())
	var wiring *WiringError
	require.ErrorAs(t, err, &wiring)
	assert.ErrorIs(t, err, ErrDependencyOrder)
	assert.Equal(t, "beta", wiring.System)
	assert.Equal(t, "alpha", wiring.Dependency)
	assert.Empty(t, rec.events, "nothing initialises on wiring failure")
	assert.Equal(t, StateFailed, r.State())
}

func TestMissingDependency(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry(log.NewNop())
	a := &alpha{Base: NewBase("alpha"), rec: rec}
	require.NoError(t, r.Register(&beta{Base: NewBase("beta", a), rec: rec}))

	err := r.InitializeAll(context.Background())
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestRegisterRules(t *testing.T) {
	r, a, _, rec := newPair(t)
	assert.ErrorIs(t, r.Register(a), ErrAlreadyRegistered)
	assert.ErrorIs(t, r.Register(&alpha{Base: NewBase("beta"), rec: rec}), ErrAlreadyRegistered)
	assert.ErrorIs(t, r.Tick(1), ErrRegistryNotStarted)

	require.NoError(t, r.InitializeAll(context.Background()))
	assert.ErrorIs(t, r.Register(&unregistered{Base: NewBase("late")}), ErrRegistryStarted)
	assert.ErrorIs(t, r.InitializeAll(context.Background()), ErrRegistryStarted)
}

func TestTickErrorNamesSystem(t *testing.T) {
	r, _, b, rec := newPair(t)
	require.NoError(t, r.InitializeAll(context.Background()))
	boom := errors.New("boom")
	b.err = boom

	err := r.Tick(0.1)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "beta")

	require.NoError(t, r.ShutdownAll(context.Background()))
	assert.Equal(t, "shutdown:beta", rec.events[len(rec.events)-1])
}
