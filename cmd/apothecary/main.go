// Package main provides the apothecary CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/apothecary/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
