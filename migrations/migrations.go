// Package migrations embeds the SQL schema and applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var files embed.FS

type Result struct {
	Version  uint
	Dirty    bool
	NoChange bool
}

func newMigrator(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// Run applies migrations against dsn. direction is "up" or "down";
// steps == 0 means all the way.
func Run(dsn, direction string, steps int) (Result, error) {
	m, err := newMigrator(dsn)
	if err != nil {
		return Result{}, err
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return Result{}, fmt.Errorf("invalid direction %q: must be 'up' or 'down'", direction)
	}

	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		return Result{}, fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return Result{}, fmt.Errorf("reading version: %w", verr)
	}
	return Result{Version: version, Dirty: dirty, NoChange: noChange}, nil
}

func Up(dsn string) error {
	_, err := Run(dsn, "up", 0)
	return err
}
