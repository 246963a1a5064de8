// Package main is the entry point for the filedeck CLI and servers.
package main

import (
	"embed"
	"os"
)

//go:embed web/*
var webFS embed.FS

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
