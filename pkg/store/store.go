package store

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Stores bundles the per-aggregate stores behind a single open handle.
type Stores struct {
	Nodes         NodeStore
	Bindings      BindingStore
	LinkTokens    LinkTokenStore
	Windows       WindowStore
	Notifications NotificationStore

	db *sqlx.DB
}

// Open connects to postgres, applies pending migrations and wires up the
// aggregate stores.
func Open(databaseURL string) (*Stores, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}
	return &Stores{
		Nodes:         NewNodes(db),
		Bindings:      NewBindings(db),
		LinkTokens:    NewLinkTokens(db),
		Windows:       NewWindows(db),
		Notifications: NewNotifications(db),
		db:            db,
	}, nil
}

func (s *Stores) Close() error {
	return s.db.Close()
}

func migrateUp(db *sqlx.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
