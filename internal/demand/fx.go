package demand

import (
	"github.com/voyara/voyara/internal/demand/repository"
	"github.com/voyara/voyara/internal/demand/service"
	"go.uber.org/fx"
)

var Module = fx.Module("demand.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideFunnelSource),
	fx.Provide(service.New),
)
