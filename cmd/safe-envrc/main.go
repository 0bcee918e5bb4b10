// Package main provides the entry point for the safe-envrc command-line
// tool. All command handling lives in internal/cli.
package main

import (
	"os"

	"github.com/isseis/go-safe-envrc/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
