package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DriverName maps a configured driver onto the database/sql driver name.
func DriverName(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "pgx", "postgres", "postgresql", "postgis":
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite-nogeo":
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// dataSourceName adjusts dsn for the driver. MySQL connections always parse
// DATETIME columns into time.Time in UTC.
func dataSourceName(name, dsn string) (string, error) {
	if name != "mysql" {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return cfg.FormatDSN(), nil
}

// Open opens and pings a database for the configured driver.
func Open(driver, dsn string) (*sql.DB, error) {
	name, err := DriverName(driver)
	if err != nil {
		return nil, err
	}
	dsn, err = dataSourceName(name, dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if name == "sqlite" {
		// an in-memory database lives on a single connection
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting sqlite pragma: %w", err)
		}
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}
