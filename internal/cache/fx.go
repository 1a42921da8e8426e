package cache

import "go.uber.org/fx"

var Module = fx.Module("master.cache",
	fx.Provide(NewMasterDataCache),
)
