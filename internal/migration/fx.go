package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ftzflow/internal/config"
	"github.com/smallbiznis/ftzflow/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, log *zap.Logger) error {
		if !cfg.MigrateOnStart {
			log.Info("schema migrations skipped")
			return nil
		}
		if err := Apply(conn, cfg.Database.Type); err != nil {
			return err
		}
		log.Info("schema migrations applied", zap.String("type", cfg.Database.Type))

		if cfg.SeedDemoData {
			return seed.EnsureDemoMasterData(conn, node)
		}
		return nil
	}),
)
