package db

import (
	"github.com/pkg/errors"

	"github.com/chaosweasl/cognify/internal/profile"
	"github.com/chaosweasl/cognify/store"
	"github.com/chaosweasl/cognify/store/db/postgres"
	"github.com/chaosweasl/cognify/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
//
// PostgreSQL is the primary backend for synced installations; SQLite backs
// single-machine installations and tests.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
