package main

import (
	"os"

	"github.com/safepost/safepost/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
