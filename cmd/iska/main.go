// Package main provides the entry point for the iska CLI.
package main

import (
	"os"

	"github.com/iska-scrum/iska/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
