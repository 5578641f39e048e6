package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/voyara/voyara/internal/adjustment"
	"github.com/voyara/voyara/internal/catalog"
	"github.com/voyara/voyara/internal/clock"
	"github.com/voyara/voyara/internal/config"
	"github.com/voyara/voyara/internal/demand"
	"github.com/voyara/voyara/internal/observability"
	"github.com/voyara/voyara/internal/pricing"
	"github.com/voyara/voyara/internal/pricingrule"
	"github.com/voyara/voyara/internal/scheduler"
	"github.com/voyara/voyara/internal/server"
	"github.com/voyara/voyara/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain services behind the API surface
		pricingrule.Module,
		demand.Module,
		adjustment.Module,
		catalog.Module,
		pricing.Module,
		scheduler.Module,

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
