package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/lucanori/invoicerr/internal/clock"
	"github.com/lucanori/invoicerr/internal/config"
	"github.com/lucanori/invoicerr/internal/invoice"
	"github.com/lucanori/invoicerr/internal/logger"
	"github.com/lucanori/invoicerr/internal/observability"
	"github.com/lucanori/invoicerr/internal/providers/email"
	"github.com/lucanori/invoicerr/internal/scheduler"
	"github.com/lucanori/invoicerr/pkg/db"
	"go.uber.org/fx"
)

// Scheduler-only deployment. Migrations run from the monolith.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain services required by the generation run
		invoice.Module,
		email.Module,

		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
