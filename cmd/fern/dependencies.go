package main

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/kafka"
)

// databaseDependency connects to postgres and runs migrations on start.
type databaseDependency struct {
	cfg config.Config
	log ectologger.Logger
	db  *sqlx.DB
}

func newDatabaseDependency(cfg config.Config, log ectologger.Logger) *databaseDependency {
	return &databaseDependency{cfg: cfg, log: log}
}

func (d *databaseDependency) GetName() string     { return "database" }
func (d *databaseDependency) DependsOn() []string { return nil }

func (d *databaseDependency) Start(ctx context.Context) error {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.cfg.DatabaseHost, d.cfg.DatabasePort, d.cfg.DatabaseUserName,
		d.cfg.DatabasePassword, d.cfg.DatabaseName, d.cfg.DatabaseSSLMode,
	)

	db, err := sqlx.ConnectContext(ctx, d.cfg.DatabaseDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(d.cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(d.cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(d.cfg.DatabaseConnMaxLifetime)

	if err := d.migrate(db); err != nil {
		db.Close()
		return err
	}

	d.db = db
	return nil
}

func (d *databaseDependency) migrate(db *sqlx.DB) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	ms := database.NewMigrationService(d.log, &database.MigrationConfig{
		MigrationFolderPath: d.cfg.DatabaseMigrationFolderPath,
		Version:             uint(d.cfg.DatabaseMigrationVersion),
		Force:               d.cfg.DatabaseMigrationForce,
		AutoRollback:        d.cfg.DatabaseMigrationAutoRollback,
	})
	return ms.Migrate(d.cfg.DatabaseName, driver)
}

func (d *databaseDependency) Stop(ctx context.Context) error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// DB returns the live connection. Only valid after Start succeeds.
func (d *databaseDependency) DB() *sqlx.DB { return d.db }

// consumerDependency runs the import consumer once the database is up.
type consumerDependency struct {
	consumer *kafka.Consumer
}

func (d *consumerDependency) GetName() string     { return "consumer" }
func (d *consumerDependency) DependsOn() []string { return []string{"database"} }

func (d *consumerDependency) Start(ctx context.Context) error { return d.consumer.Start(ctx) }
func (d *consumerDependency) Stop(ctx context.Context) error  { return d.consumer.Stop() }
