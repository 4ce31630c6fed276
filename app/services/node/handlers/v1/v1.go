// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/agentchain/app/services/node/handlers/v1/agentgrp"
	"github.com/ardanlabs/agentchain/foundation/blockchain/registry"
	"github.com/ardanlabs/agentchain/foundation/events"
	"github.com/ardanlabs/agentchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log      *zap.SugaredLogger
	Registry *registry.Registry
	Evts     *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	agh := agentgrp.Handlers{
		Log:      cfg.Log,
		Registry: cfg.Registry,
		WS:       websocket.Upgrader{},
		Evts:     cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/agent", agh.Query)
	app.Handle(http.MethodPost, version, "/agent", agh.Create)
	app.Handle(http.MethodDelete, version, "/agent", agh.Delete)
	app.Handle(http.MethodGet, version, "/agent/all", agh.QueryAll)
	app.Handle(http.MethodDelete, version, "/agent/all", agh.DeleteAll)
	app.Handle(http.MethodPost, version, "/agent/mine", agh.Mine)
	app.Handle(http.MethodGet, version, "/agent/blocks", agh.Blocks)
	app.Handle(http.MethodGet, version, "/events", agh.Events)
}
