package main

import "github.com/agentic-research/proflow/cmd"

func main() {
	cmd.Execute()
}
