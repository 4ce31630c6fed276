package agentgrp

import (
	"github.com/ardanlabs/agentchain/foundation/blockchain/database"
	"github.com/ardanlabs/agentchain/foundation/blockchain/registry"
)

// Agent is the presentation of a running node.
type Agent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Port      int    `json:"port"`
	Listening bool   `json:"listening"`
	Mining    bool   `json:"mining"`
}

// NewAgent contains the information needed to start a node.
type NewAgent struct {
	Name string `json:"name" validate:"required"`
	Port int    `json:"port" validate:"gte=0,lte=65535"`
}

// AllAgents is the response for the list of nodes. Blocks is the chain of
// the first node, or null when there are no nodes.
type AllAgents struct {
	Agents []Agent          `json:"agents"`
	Blocks []database.Block `json:"blocks"`
}

func toAgent(node *registry.Node) Agent {
	return Agent{
		ID:        node.ID(),
		Name:      node.Name(),
		Address:   node.Address(),
		Port:      node.Port(),
		Listening: node.Listening(),
		Mining:    node.Mining(),
	}
}

func toAgents(nodes []*registry.Node) []Agent {
	agents := make([]Agent, len(nodes))
	for i, node := range nodes {
		agents[i] = toAgent(node)
	}
	return agents
}
