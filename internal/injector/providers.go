package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/simphys/internal/core/events/bus"
	"github.com/zeusync/simphys/internal/core/observability/log"
	"github.com/zeusync/simphys/internal/scenario"
)

// App bundles the long-lived services of the simphys command.
type App struct {
	Log    *log.Logger
	Bus    bus.EventBus
	Runner *scenario.Runner
	Events *scenario.EventLog
}

var AppSet = wire.NewSet(
	log.NewWithConfig,
	wire.Bind(new(log.Log), new(*log.Logger)),
	bus.New,
	scenario.NewRunner,
	scenario.NewEventLog,
	wire.Struct(new(App), "*"),
)
