// Package main provides the entry point for the placeforge CLI tool.
package main

import "github.com/placeforge/placeforge/cmd/placeforge/cmd"

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
