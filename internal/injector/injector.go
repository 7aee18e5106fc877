//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/simphys/internal/core/observability/log"
)

func InitializeApp(cfg log.Config) *App {
	wire.Build(AppSet)
	return nil
}
