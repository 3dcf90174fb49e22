// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/carterperez-dev/barbermaster/internal/config"
	"github.com/carterperez-dev/barbermaster/internal/core"
)

const usage = `usage: migrate [-config config.yaml] <command> [args]

commands:
  up          apply all pending migrations
  up-to V     apply migrations up to version V
  down        roll back the latest migration
  down-to V   roll back to version V
  redo        roll back and re-apply the latest migration
  status      print the status of every migration
  version     print the current schema version
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, flag.Arg(0), flag.Args()[1:]); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, command string, args []string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("database close error", "error", closeErr)
		}
	}()

	if err := core.Migrate(ctx, db.DB.DB, command, args...); err != nil {
		return err
	}

	slog.Info("migration command finished", "command", command)
	return nil
}
