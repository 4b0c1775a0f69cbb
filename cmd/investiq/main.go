package main

import (
	"os"

	"github.com/wonny/investiq/cmd/investiq/commands"
)

// main is the entry point for the InvestIQ CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/investiq [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
