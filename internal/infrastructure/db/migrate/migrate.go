// Package migrate applies the embedded goose migrations for the users and
// email_verification tables.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedded embed.FS

const dir = "migrations"

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

// Runner wraps goose for a single database handle.
type Runner struct {
	db  *sql.DB
	log zerolog.Logger
}

func New(db *sql.DB, log zerolog.Logger) (Runner, error) {
	if db == nil {
		return Runner{}, errors.New("nil db provided")
	}
	return Runner{db: db, log: log}, nil
}

// Up applies pending migrations.
func (r Runner) Up(ctx context.Context) error {
	return r.with(func() error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		r.log.Info().Msg("applying migrations")
		if err := goose.UpContext(runCtx, r.db, dir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		v, _ := goose.GetDBVersionContext(runCtx, r.db)
		r.log.Info().Int64("version", v).Msg("migrations applied")
		return nil
	})
}

// Status logs applied and pending migrations.
func (r Runner) Status(ctx context.Context) error {
	return r.with(func() error {
		if err := goose.StatusContext(ctx, r.db, dir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// Down rolls back the latest migration, or down to targetVersion when > 0.
func (r Runner) Down(ctx context.Context, targetVersion int64) error {
	return r.with(func() error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		if targetVersion > 0 {
			r.log.Info().Int64("target", targetVersion).Msg("rolling back migrations")
			if err := goose.DownToContext(runCtx, r.db, dir, targetVersion); err != nil {
				return fmt.Errorf("rollback to version %d: %w", targetVersion, err)
			}
		} else {
			r.log.Info().Msg("rolling back latest migration")
			if err := goose.DownContext(runCtx, r.db, dir); err != nil {
				return fmt.Errorf("rollback latest migration: %w", err)
			}
		}
		r.log.Info().Msg("rollback complete")
		return nil
	})
}

// Version returns the current schema version.
func (r Runner) Version(ctx context.Context) (int64, error) {
	var v int64
	err := r.with(func() error {
		var err error
		v, err = goose.GetDBVersionContext(ctx, r.db)
		return err
	})
	return v, err
}

func (r Runner) with(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedded)
	goose.SetLogger(gooseLogger{l: r.log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	return fn()
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct {
	l zerolog.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Info().Msgf(format, v...)
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Fatal().Msgf(format, v...)
}
