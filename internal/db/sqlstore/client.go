package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/iamwavecut/ngmod/internal/config"
	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/errors"
	"github.com/iamwavecut/ngmod/resources"
)

type dialect struct {
	driver  string
	migrate string
	root    string
}

var dialects = map[string]dialect{
	config.DBDriverSQLite:   {driver: "sqlite", migrate: "sqlite3", root: "migrations/sqlite"},
	config.DBDriverPostgres: {driver: "pgx", migrate: "postgres", root: "migrations/postgres"},
}

// Client is a db.Client over sqlx. Writes are serialized for sqlite.
type Client struct {
	db      *sqlx.DB
	dialect dialect
	mutex   sync.RWMutex
}

var _ db.Client = (*Client)(nil)

func NewSQLiteClient(ctx context.Context, dir, file string) (*Client, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Persistence("create db dir", err)
	}
	dsn := filepath.Join(dir, file) + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	return Open(ctx, config.DBDriverSQLite, dsn)
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (*Client, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: unknown db driver %q", errors.ErrValidation, driver)
	}

	dbx, err := sqlx.Open(d.driver, dsn)
	if err != nil {
		return nil, errors.Persistence("open db", err)
	}
	if d.driver == "sqlite" {
		dbx.SetMaxOpenConns(1)
	} else {
		dbx.SetMaxOpenConns(16)
	}
	if err := dbx.PingContext(ctx); err != nil {
		_ = dbx.Close()
		return nil, errors.Persistence("ping db", err)
	}

	c := &Client{db: dbx, dialect: d}
	if err := c.Migrate(); err != nil {
		_ = dbx.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) Migrate() error {
	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       c.dialect.root,
	}
	if _, _, err := migrate.PlanMigration(c.db.DB, c.dialect.migrate, source, migrate.Up, 0); err != nil {
		return errors.Persistence("plan migrations", err)
	}
	n, err := migrate.Exec(c.db.DB, c.dialect.migrate, source, migrate.Up)
	if err != nil {
		return errors.Persistence("apply migrations", err)
	}
	if n > 0 {
		log.WithField("driver", c.dialect.driver).Infof("applied %d migrations", n)
	}
	return nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) rebind(query string) string {
	return c.db.Rebind(query)
}
