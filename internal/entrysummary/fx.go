package entrysummary

import (
	"github.com/smallbiznis/ftzflow/internal/entrysummary/repository"
	"github.com/smallbiznis/ftzflow/internal/entrysummary/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entrysummary.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
