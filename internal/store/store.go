// Package store keeps the command history in sqlite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// MigrationAction selects the schema direction.
type MigrationAction int

const (
	MigrateUp MigrationAction = iota
	MigrateDn
)

const pingTimeout = 5 * time.Second

var (
	//go:embed migrations
	migrations embed.FS

	ErrDBConnect = errors.New("db connect error")
	ErrMigrate   = errors.New("failed to migrate db schema")
)

// Open connects to the history database at path, creating it when missing. An empty path
// opens a private in-memory database.
func Open(ctx context.Context, path string, autoMigrate bool) (*sql.DB, error) {
	if path == "" {
		path = ":memory:"
	}

	connection, errOpen := sql.Open("sqlite", path+"?cache=private")
	if errOpen != nil {
		return nil, errors.Join(errOpen, ErrDBConnect)
	}

	// The ui records one command at a time; a single connection also keeps an in-memory
	// database shared between calls.
	connection.SetMaxOpenConns(1)

	if errSetup := setup(ctx, connection, path); errSetup != nil {
		connection.Close()

		return nil, errSetup
	}

	if autoMigrate {
		if errMigrate := Migrate(connection, MigrateUp); errMigrate != nil {
			connection.Close()

			return nil, errors.Join(errMigrate, ErrDBConnect)
		}
	}

	return connection, nil
}

func setup(ctx context.Context, connection *sql.DB, path string) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := connection.PingContext(pingCtx); err != nil {
		return errors.Join(err, ErrDBConnect)
	}

	if path == ":memory:" {
		return nil
	}

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode=WAL"} {
		if _, err := connection.ExecContext(ctx, pragma); err != nil {
			return errors.Join(err, ErrDBConnect)
		}
	}

	return nil
}

// Migrate applies the embedded history schema in the given direction.
func Migrate(conn *sql.DB, action MigrationAction) error {
	driver, errDriver := sqlite.WithInstance(conn, &sqlite.Config{})
	if errDriver != nil {
		return errors.Join(errDriver, ErrMigrate)
	}

	source, errSource := iofs.New(migrations, "migrations")
	if errSource != nil {
		return errors.Join(errSource, ErrMigrate)
	}

	migrator, errMigrator := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if errMigrator != nil {
		return errors.Join(errMigrator, ErrMigrate)
	}

	var errMigration error
	if action == MigrateDn {
		errMigration = migrator.Down()
	} else {
		errMigration = migrator.Up()
	}

	if errMigration != nil && !errors.Is(errMigration, migrate.ErrNoChange) {
		return errors.Join(errMigration, ErrMigrate)
	}

	return nil
}
