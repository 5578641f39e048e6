package pricingrule

import (
	"github.com/voyara/voyara/internal/pricingrule/repository"
	"github.com/voyara/voyara/internal/pricingrule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricingrule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
