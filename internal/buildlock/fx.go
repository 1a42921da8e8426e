package buildlock

import "go.uber.org/fx"

var Module = fx.Module("build.lock",
	fx.Provide(NewRedisClient),
	fx.Provide(NewLocker),
)
