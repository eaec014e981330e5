package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/minrafi/invoicer/internal/config"
	"github.com/minrafi/invoicer/internal/invoice"
	"github.com/minrafi/invoicer/internal/logger"
	"github.com/minrafi/invoicer/internal/migration"
	"github.com/minrafi/invoicer/internal/server"
	"github.com/minrafi/invoicer/internal/storage"
	"github.com/minrafi/invoicer/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		storage.Module,
		invoice.Module,

		fx.Provide(server.NewHTTPMetrics),
		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(server.RunHTTP),
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
