package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"sensorpanorama/internal/config"
	"sensorpanorama/internal/db"
	"sensorpanorama/internal/logging"
	"sensorpanorama/internal/migrate"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <command>\n  migrate  apply pending preference store migrations\n", os.Args[0])
		os.Exit(1)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg, version, "sensorpanorama-migrate", os.Stderr)

	switch os.Args[1] {
	case "migrate":
		if err := runMigrations(cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func runMigrations(cfg config.Config, logger *slog.Logger) error {
	conn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	n, err := migrate.Run(context.Background(), conn, logger)
	if err != nil {
		return err
	}
	fmt.Printf("%d migrations applied\n", n)
	return nil
}
