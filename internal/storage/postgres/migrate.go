package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration directions.
const (
	Up   = "up"
	Down = "down"
)

// MigrationResult reports the schema version after Migrate.
type MigrationResult struct {
	Version  uint
	Dirty    bool
	NoChange bool
}

// Migrate applies the migrations in dir to the database at dsn. steps of 0
// migrates all the way in direction.
//
// Postcondition: an already up-to-date schema is not an error; NoChange is set.
func Migrate(dsn, dir, direction string, steps int) (MigrationResult, error) {
	if direction != Up && direction != Down {
		return MigrationResult{}, fmt.Errorf("invalid direction %q: must be 'up' or 'down'", direction)
	}
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case steps > 0 && direction == Up:
		err = m.Steps(steps)
	case steps > 0:
		err = m.Steps(-steps)
	case direction == Up:
		err = m.Up()
	default:
		err = m.Down()
	}
	res := MigrationResult{NoChange: errors.Is(err, migrate.ErrNoChange)}
	if err != nil && !res.NoChange {
		return res, fmt.Errorf("migration failed: %w", err)
	}
	res.Version, res.Dirty, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return res, fmt.Errorf("reading schema version: %w", err)
	}
	return res, nil
}
