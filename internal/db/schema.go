package db

import (
	"database/sql"
	"fmt"
)

var postgisSchema = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS materials (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		verified BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		price NUMERIC(12,2),
		quantity INTEGER NOT NULL DEFAULT 1,
		location geography(Point, 4326),
		material_id TEXT REFERENCES materials(id),
		organization_id TEXT REFERENCES organizations(id),
		creator_id TEXT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS items_location_gix ON items USING GIST (location)`,
	`CREATE INDEX IF NOT EXISTS items_status_idx ON items (status)`,
	`CREATE TABLE IF NOT EXISTS item_images (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		alt_text TEXT,
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS item_images_item_idx ON item_images (item_id)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS materials (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		category VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		verified TINYINT(1) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id VARCHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		status VARCHAR(32) NOT NULL DEFAULT 'ACTIVE',
		price DECIMAL(12,2),
		quantity INT NOT NULL DEFAULT 1,
		location POINT SRID 4326 NULL,
		material_id VARCHAR(36),
		organization_id VARCHAR(36),
		creator_id VARCHAR(36) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX items_status_idx (status),
		FOREIGN KEY (material_id) REFERENCES materials(id),
		FOREIGN KEY (organization_id) REFERENCES organizations(id),
		FOREIGN KEY (creator_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS item_images (
		id VARCHAR(36) PRIMARY KEY,
		item_id VARCHAR(36) NOT NULL,
		url VARCHAR(1024) NOT NULL,
		alt_text VARCHAR(255),
		is_primary TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		INDEX item_images_item_idx (item_id),
		FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS materials (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		verified INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		price REAL,
		quantity INTEGER NOT NULL DEFAULT 1,
		latitude REAL,
		longitude REAL,
		material_id TEXT REFERENCES materials(id),
		organization_id TEXT REFERENCES organizations(id),
		creator_id TEXT NOT NULL REFERENCES users(id),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS items_status_idx ON items (status)`,
	`CREATE TABLE IF NOT EXISTS item_images (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		alt_text TEXT,
		is_primary INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
}

// EnsureSchema creates the marketplace tables for the given driver.
func EnsureSchema(db *sql.DB, driver string) error {
	name, err := DriverName(driver)
	if err != nil {
		return err
	}
	var stmts []string
	switch name {
	case "pgx":
		stmts = postgisSchema
	case "mysql":
		stmts = mysqlSchema
	default:
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
