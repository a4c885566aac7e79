package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/factorylicense/internal/changefeed"
	"github.com/smallbiznis/factorylicense/internal/clock"
	"github.com/smallbiznis/factorylicense/internal/config"
	"github.com/smallbiznis/factorylicense/internal/invoice"
	"github.com/smallbiznis/factorylicense/internal/license"
	"github.com/smallbiznis/factorylicense/internal/migration"
	"github.com/smallbiznis/factorylicense/internal/observability"
	"github.com/smallbiznis/factorylicense/internal/plan"
	"github.com/smallbiznis/factorylicense/internal/server"
	"github.com/smallbiznis/factorylicense/internal/storage"
	"github.com/smallbiznis/factorylicense/internal/sweep"
	"github.com/smallbiznis/factorylicense/internal/usage"
	"github.com/smallbiznis/factorylicense/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		// Schema must exist before the plan catalog reads overrides.
		migration.Module,
		changefeed.Module,

		// Functional Domains
		plan.Module,
		license.Module,
		usage.Module,
		storage.Module,
		invoice.Module,
		sweep.Module,

		server.Module,
		fx.Invoke(SyncLogger),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

func SyncLogger(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
}
