package cmd

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	agentName string
	agentPort int
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Start a new node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := struct {
			Name string `json:"name"`
			Port int    `json:"port"`
		}{
			Name: agentName,
			Port: agentPort,
		}
		return call(cmd.OutOrStdout(), http.MethodPost, "/v1/agent", nil, body)
	},
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Show a node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.OutOrStdout(), http.MethodGet, "/v1/agent", url.Values{"name": {agentName}}, nil)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every node and the chain of the first one.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.OutOrStdout(), http.MethodGet, "/v1/agent/all", nil, nil)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Stop a node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.OutOrStdout(), http.MethodDelete, "/v1/agent", url.Values{"name": {agentName}}, nil)
	},
}

var deleteAllCmd = &cobra.Command{
	Use:   "delete-all",
	Short: "Stop every node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.OutOrStdout(), http.MethodDelete, "/v1/agent/all", nil, nil)
	},
}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine one block on a node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.OutOrStdout(), http.MethodPost, "/v1/agent/mine", url.Values{"agent": {agentName}}, nil)
	},
}

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Show the chain held by a node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.OutOrStdout(), http.MethodGet, "/v1/agent/blocks", url.Values{"name": {agentName}}, nil)
	},
}

func init() {
	for _, c := range []*cobra.Command{addCmd, getCmd, deleteCmd, mineCmd, blocksCmd} {
		c.Flags().StringVarP(&agentName, "name", "n", "", "Name of the node.")
		c.MarkFlagRequired("name")
		rootCmd.AddCommand(c)
	}
	addCmd.Flags().IntVarP(&agentPort, "port", "p", 0, "Port the node listens on, 0 picks a free port.")

	rootCmd.AddCommand(listCmd, deleteAllCmd)
}
