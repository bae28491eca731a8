package system

import (
	"errors"
	"fmt"
)

var (
	ErrNotRegistered      = errors.New("system not registered")
	ErrAlreadyRegistered  = errors.New("system already registered")
	ErrDependencyOrder    = errors.New("dependency initialises after its dependent")
	ErrRegistryStarted    = errors.New("registry already initialised")
	ErrRegistryNotStarted = errors.New("registry not initialised")
)

// WiringError reports a broken system dependency. It is a startup failure,
// not something a running tick can recover from.
type WiringError struct {
	System     string
	Dependency string
	Err        error
}

func (e *WiringError) Error() string {
	if e.System == "" {
		return fmt.Sprintf("wiring: %s: %v", e.Dependency, e.Err)
	}
	return fmt.Sprintf("wiring: %s -> %s: %v", e.System, e.Dependency, e.Err)
}

func (e *WiringError) Unwrap() error { return e.Err }
