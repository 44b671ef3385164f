package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/lucanori/invoicerr/internal/clock"
	"github.com/lucanori/invoicerr/internal/config"
	"github.com/lucanori/invoicerr/internal/logger"
	"github.com/lucanori/invoicerr/internal/migration"
	"github.com/lucanori/invoicerr/internal/observability"
	"github.com/lucanori/invoicerr/internal/server"
	"github.com/lucanori/invoicerr/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
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
