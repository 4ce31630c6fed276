// This program performs administrative tasks for the agent chain node service.
package main

import "github.com/ardanlabs/agentchain/app/tooling/admin/cmd"

func main() {
	cmd.Execute()
}
