// Command migrate applies or inspects the database schema.
//
//	migrate -command up
//	migrate -command status
//	migrate -command down -version 1
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/otp-auth-service/internal/config"
	"github.com/baechuer/otp-auth-service/internal/infrastructure/db/migrate"
	"github.com/baechuer/otp-auth-service/internal/logger"
)

func main() {
	command := flag.String("command", "up", "up | status | down | version")
	version := flag.Int64("version", 0, "target version for down")
	flag.Parse()

	logger.Init()
	_ = godotenv.Load()

	if err := run(*command, *version); err != nil {
		zlog.Error().Err(err).Str("command", *command).Msg("migrate failed")
		os.Exit(1)
	}
}

func run(command string, version int64) error {
	dsn := os.Getenv("DB_ADDR")
	if dsn == "" {
		return fmt.Errorf("missing required env var: DB_ADDR")
	}

	db, err := config.NewDB(dsn, false)
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := migrate.New(db, logger.Logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "up":
		return r.Up(ctx)
	case "status":
		return r.Status(ctx)
	case "down":
		return r.Down(ctx, version)
	case "version":
		v, err := r.Version(ctx)
		if err != nil {
			return err
		}
		zlog.Info().Int64("version", v).Msg("current schema version")
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
