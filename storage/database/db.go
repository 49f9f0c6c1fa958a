package database

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/fs"
)

const MigrationsDir = "migrations"

var ErrUnknownDriver = errors.New("unknown storage driver")

// Open connects to the slot database described by conf.Storage (sqlite3 or postgres).
func Open(conf *core.Config) (*sqlx.DB, error) {
	dsn := conf.Storage.DSN
	switch conf.Storage.Driver {
	case "sqlite3":
		dsn = conf.Path(dsn)
	case "postgres":
	default:
		return nil, errors.Wrapf(ErrUnknownDriver, "%q", conf.Storage.Driver)
	}

	db, err := sqlx.Open(conf.Storage.Driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if conf.Storage.Driver == "sqlite3" {
		db.SetMaxOpenConns(1) // one writer at a time
	}
	if err := ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 5
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// SetDialect tells the migration tool which SQL dialect driver speaks.
func SetDialect(driver string) error {
	if err := goose.SetDialect(driver); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	return nil
}

// Migrate applies every pending migration.
func Migrate(db *sqlx.DB) error {
	if err := SetDialect(db.DriverName()); err != nil {
		return err
	}
	if err := goose.RunFS("up", db.DB, appfs.FS, MigrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
