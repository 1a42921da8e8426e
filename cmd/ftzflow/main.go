package main

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ftzflow/internal/audit"
	"github.com/smallbiznis/ftzflow/internal/buildlock"
	"github.com/smallbiznis/ftzflow/internal/cache"
	"github.com/smallbiznis/ftzflow/internal/clock"
	"github.com/smallbiznis/ftzflow/internal/config"
	"github.com/smallbiznis/ftzflow/internal/customer"
	"github.com/smallbiznis/ftzflow/internal/entrysummary"
	"github.com/smallbiznis/ftzflow/internal/inventory"
	"github.com/smallbiznis/ftzflow/internal/migration"
	"github.com/smallbiznis/ftzflow/internal/observability"
	"github.com/smallbiznis/ftzflow/internal/part"
	"github.com/smallbiznis/ftzflow/internal/preshipment"
	"github.com/smallbiznis/ftzflow/internal/server"
	"github.com/smallbiznis/ftzflow/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		buildlock.Module,
		cache.Module,

		// Master data and ledgers
		audit.Module,
		customer.Module,
		part.Module,
		inventory.Module,

		// Outbound workflow
		preshipment.Module,
		entrysummary.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.NodeID, err)
	}
	return node, nil
}
