package main

import "github.com/lomakinroman97/code-fixer-agent-mcp-service/cmd"

func main() {
	cmd.Execute()
}
