// Package agentgrp maintains the group of handlers for managing nodes.
package agentgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/agentchain/business/web/errs"
	"github.com/ardanlabs/agentchain/foundation/blockchain/registry"
	"github.com/ardanlabs/agentchain/foundation/blockchain/state"
	"github.com/ardanlabs/agentchain/foundation/events"
	"github.com/ardanlabs/agentchain/foundation/validate"
	"github.com/ardanlabs/agentchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log      *zap.SugaredLogger
	Registry *registry.Registry
	WS       websocket.Upgrader
	Evts     *events.Events
}

// Query returns the node with the specified name.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	node, err := h.Registry.Lookup(web.Query(r, "name"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, toAgent(node), http.StatusOK)
}

// Create starts a new node.
func (h Handlers) Create(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var na NewAgent
	if err := web.Decode(r, &na); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(na); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	h.Log.Infow("create agent", "traceid", v.TraceID, "name", na.Name, "port", na.Port)

	node, err := h.Registry.Create(na.Name, na.Port)
	if err != nil {
		if errors.Is(err, registry.ErrNodeExists) {
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, toAgent(node), http.StatusCreated)
}

// Delete stops the node with the specified name.
func (h Handlers) Delete(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.Registry.Destroy(web.Query(r, "name")); err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// QueryAll returns every node and the chain of the first one.
func (h Handlers) QueryAll(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	nodes := h.Registry.List()

	all := AllAgents{
		Agents: toAgents(nodes),
	}
	if len(nodes) > 0 {
		blocks, err := nodes[0].ChainSnapshot()
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", nodes[0].Name(), err)
		}
		all.Blocks = blocks
	}

	return web.Respond(ctx, w, all, http.StatusOK)
}

// DeleteAll stops every node.
func (h Handlers) DeleteAll(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.Registry.DestroyAll()

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// Mine asks the named node for one block outside of its mining loop.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.Registry.MineOnce(ctx, web.Query(r, "agent"))
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNodeNotFound):
			return errs.NewTrusted(err, http.StatusNotFound)
		case errors.Is(err, state.ErrInvalidBlock):
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return err
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Blocks returns the chain held by the named node.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	node, err := h.Registry.Lookup(web.Query(r, "name"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	blocks, err := node.ChainSnapshot()
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", node.Name(), err)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
