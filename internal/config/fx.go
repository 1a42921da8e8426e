package config

import (
	"github.com/smallbiznis/ftzflow/pkg/db"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewFilingConfigHolder,
		func(cfg Config) db.Config { return cfg.Database },
	),
)
