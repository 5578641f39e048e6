package adjustment

import (
	"github.com/voyara/voyara/internal/adjustment/repository"
	"github.com/voyara/voyara/internal/adjustment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("adjustment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
