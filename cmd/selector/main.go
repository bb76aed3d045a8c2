package main

import (
	"os"

	"github.com/wonny/alphaselector/cmd/selector/commands"
)

// main is the entry point for the AlphaSelector CLI
// ⭐ 统一 CLI 入口: go run ./cmd/selector [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
