// Package system holds the System contract and the registry that owns the
// entity store and drives every system once per tick.
package system

import (
	"context"
	"time"

	"github.com/zeusync/escape/internal/core/storage"
)

// System is a stateful game logic processor with exactly one live instance
// per concrete type. Dependencies on other systems are passed to the
// constructor; Dependencies reports their names so the registry can check
// that each of them is registered, and initialised, earlier.
type System interface {
	Name() string
	Dependencies() []string

	// Initialize runs once, in registration order, before the first tick.
	Initialize(ctx context.Context, world *storage.World) error
	// Update runs once per tick, in registration order.
	Update(delta float64, world *storage.World) error
}

// Shutdowner is implemented by systems that hold resources past the run.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// StateIdentity is the lifecycle state of the registry.
type StateIdentity uint8

const (
	StateRegistering StateIdentity = iota
	StateInitializing
	StateRunning
	StateShutdown
	StateFailed
)

// Metrics provides runtime metrics for a system.
type Metrics struct {
	ExecutionCount       uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	LastExecutionTime    time.Duration
	ErrorCount           uint64
	LastError            error
}

func (m *Metrics) record(d time.Duration, err error) {
	m.ExecutionCount++
	m.TotalExecutionTime += d
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	m.LastExecutionTime = d
	if d > m.MaxExecutionTime {
		m.MaxExecutionTime = d
	}
	if err != nil {
		m.ErrorCount++
		m.LastError = err
	}
}

// Base carries the name and dependency list most systems need.
// Embed it and implement Initialize and Update.
type Base struct {
	name string
	deps []string
}

func NewBase(name string, deps ...System) Base {
	names := make([]string, 0, len(deps))
	for _, d := range deps {
		names = append(names, d.Name())
	}
	return Base{name: name, deps: names}
}

func (b Base) Name() string           { return b.name }
func (b Base) Dependencies() []string { return b.deps }
