//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/escape/internal/core/config"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/simulation"
)

func InitializeSimulation(cfg config.Config, logger log.Log) (*simulation.Simulation, error) {
	wire.Build(simulation.ProviderSet)
	return nil, nil
}
