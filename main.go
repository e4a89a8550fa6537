package main

import "github.com/mcp-community/registry-stats/cmd"

func main() {
	cmd.Execute()
}
