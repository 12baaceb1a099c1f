// Package migrate applies the embedded Postgres schema with goose.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Runner wraps goose over the embedded migrations.
type Runner struct {
	dsn string
	log *logrus.Logger
}

func New(dsn string, log *logrus.Logger) (Runner, error) {
	if dsn == "" {
		return Runner{}, errors.New("empty database dsn")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return Runner{dsn: dsn, log: log}, nil
}

// Up applies pending migrations.
func (r Runner) Up(ctx context.Context) error {
	return r.withDB(func(db *sql.DB) error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		r.log.Info("applying migrations")
		if err := goose.UpContext(runCtx, db, migrationsDir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// Status logs applied and pending migrations.
func (r Runner) Status(ctx context.Context) error {
	return r.withDB(func(db *sql.DB) error {
		if err := goose.StatusContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// Down rolls back the latest migration, or down to target when it is positive.
func (r Runner) Down(ctx context.Context, target int64) error {
	return r.withDB(func(db *sql.DB) error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		if target > 0 {
			r.log.WithField("target", target).Info("rolling back migrations")
			if err := goose.DownToContext(runCtx, db, migrationsDir, target); err != nil {
				return fmt.Errorf("rollback to version %d: %w", target, err)
			}
			return nil
		}
		r.log.Info("rolling back latest migration")
		if err := goose.DownContext(runCtx, db, migrationsDir); err != nil {
			return fmt.Errorf("rollback latest migration: %w", err)
		}
		return nil
	})
}

func (r Runner) withDB(fn func(*sql.DB) error) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(r.log)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}

	db, err := sql.Open("pgx", r.dsn)
	if err != nil {
		return fmt.Errorf("open sql connection: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping sql connection: %w", err)
	}
	return fn(db)
}
