package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Supported values of Options.Driver.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Options selects and addresses the relational store.  MySQL is the
// production store; SQLite is used for local runs and tests.
type Options struct {
	Driver string
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
	Path   string // SQLite file path or DSN
}

// Open connects to the configured store and verifies the connection.
func Open(o Options) (*sqlx.DB, error) {
	switch o.Driver {
	case DriverSQLite:
		return OpenSQLite(o.Path)
	case DriverMySQL, "":
		return OpenMySQL(o.User, o.Pass, o.Host, o.Port, o.Name)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", o.Driver)
	}
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(user, pass, host, port, name string) (*sqlx.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sqlx.Open(DriverMySQL, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens a SQLite database.  path may be a plain file name or a
// full "file:" DSN.  SQLite allows a single writer, so the pool is pinned
// to one connection and transactions queue behind each other.
func OpenSQLite(path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if len(dsn) < 5 || dsn[:5] != "file:" {
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	}
	db, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping checks the connection with a timeout.
func ping(db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
