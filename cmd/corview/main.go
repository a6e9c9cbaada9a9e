package main

import (
	"fmt"
	"os"

	"corview/internal/catalog"
	"corview/internal/cli"
	"corview/internal/config"
	"corview/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	cat, err := catalog.New(cfg.Paths.CatalogPath)
	if err != nil {
		// The catalog is history, not state; run without it.
		log.Warn("catalog unavailable, continuing without render history",
			"path", cfg.Paths.CatalogPath, "error", err)
		cat = nil
	} else {
		defer cat.Close()
	}

	rootCmd := cli.NewRootCmd(cfg, log, cat)
	if err := rootCmd.Execute(); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}
