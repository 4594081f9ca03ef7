package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"opsboard/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// A missing .env file is fine; env vars may come from anywhere.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if warning := configureLogger(cfg.LogLevel); warning != "" {
		fmt.Fprintln(os.Stderr, warning)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
