package part

import (
	"github.com/smallbiznis/ftzflow/internal/part/service"
	"go.uber.org/fx"
)

var Module = fx.Module("part.service",
	fx.Provide(service.New),
)
