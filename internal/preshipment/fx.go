package preshipment

import (
	"github.com/smallbiznis/ftzflow/internal/preshipment/repository"
	"github.com/smallbiznis/ftzflow/internal/preshipment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("preshipment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
