// Package main provides the entry point for the agira-context CLI.
package main

import (
	"os"

	"github.com/agira-hq/agira-context/cmd/agira-context/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
