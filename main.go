package main

import (
	"os"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
