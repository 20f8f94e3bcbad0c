package catalog

import (
	"database/sql"
	"fmt"

	"gocatalog_api/pkg/dbconnect/migration"
)

type MigrationsSchema struct{}

func (m *MigrationsSchema) UpMigration(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE SCHEMA IF NOT EXISTS migrations;
		CREATE TABLE IF NOT EXISTS migrations.migrations (
			id SERIAL PRIMARY KEY,
			time TIMESTAMP NOT NULL,
			name VARCHAR(255) UNIQUE NOT NULL
		);`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

type CreateCatalogSchema struct{}

func (m *CreateCatalogSchema) UpMigration(db *sql.DB) error {
	if _, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS catalog;`); err != nil {
		return fmt.Errorf("failed to create schema catalog: %w", err)
	}
	return nil
}

type CreateProductsTable struct{}

func (m *CreateProductsTable) UpMigration(db *sql.DB) error {
	return migrateOnce(db, "catalog.products", `
	CREATE TABLE IF NOT EXISTS catalog.products (
		local_id UUID PRIMARY KEY,
		connection_id VARCHAR(255) NOT NULL,
		remote_id VARCHAR(255) NOT NULL,
		sku VARCHAR(255) NOT NULL,
		model_number VARCHAR(255) NOT NULL DEFAULT '',
		gtin VARCHAR(64) NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		brand VARCHAR(255) NOT NULL DEFAULT '',
		price NUMERIC(14, 4) NOT NULL DEFAULT 0,
		cost NUMERIC(14, 4) NOT NULL DEFAULT 0,
		price_multiplier NUMERIC(10, 4) NOT NULL DEFAULT 1,
		parent_local_id UUID REFERENCES catalog.products(local_id) ON DELETE SET NULL,
		parent_remote_id VARCHAR(255),
		attributes JSONB NOT NULL DEFAULT '[]',
		sync_status VARCHAR(16) NOT NULL DEFAULT 'pending',
		last_synced_at TIMESTAMP WITH TIME ZONE,
		UNIQUE (connection_id, remote_id),
		CHECK (parent_local_id IS NULL OR parent_local_id <> local_id)
	);
	CREATE INDEX IF NOT EXISTS products_unresolved_parent_idx
		ON catalog.products(connection_id)
		WHERE parent_remote_id IS NOT NULL AND parent_local_id IS NULL;`)
}

type CreateDescriptionsTable struct{}

func (m *CreateDescriptionsTable) UpMigration(db *sql.DB) error {
	return migrateOnce(db, "catalog.product_descriptions", `
	CREATE TABLE IF NOT EXISTS catalog.product_descriptions (
		product_local_id UUID NOT NULL REFERENCES catalog.products(local_id) ON DELETE CASCADE,
		language_code VARCHAR(16) NOT NULL,
		remote_description_id VARCHAR(255) NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		meta_title TEXT NOT NULL DEFAULT '',
		meta_description TEXT NOT NULL DEFAULT '',
		meta_keywords TEXT NOT NULL DEFAULT '',
		short_description TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (product_local_id, language_code)
	);`)
}

type CreateImagesTable struct{}

func (m *CreateImagesTable) UpMigration(db *sql.DB) error {
	return migrateOnce(db, "catalog.product_images", `
	CREATE TABLE IF NOT EXISTS catalog.product_images (
		product_local_id UUID NOT NULL REFERENCES catalog.products(local_id) ON DELETE CASCADE,
		remote_path TEXT NOT NULL,
		url TEXT NOT NULL,
		sort_order INT NOT NULL DEFAULT 0,
		is_main BOOLEAN NOT NULL DEFAULT FALSE,
		alt_text TEXT,
		alt_text_status VARCHAR(16) NOT NULL DEFAULT 'pending',
		PRIMARY KEY (product_local_id, remote_path)
	);`)
}

type CreateCategoriesTable struct{}

func (m *CreateCategoriesTable) UpMigration(db *sql.DB) error {
	return migrateOnce(db, "catalog.categories", `
	CREATE TABLE IF NOT EXISTS catalog.categories (
		local_id UUID PRIMARY KEY,
		connection_id VARCHAR(255) NOT NULL,
		remote_id VARCHAR(255) NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		UNIQUE (connection_id, remote_id)
	);`)
}

type CreateCategoryRelationsTable struct{}

func (m *CreateCategoryRelationsTable) UpMigration(db *sql.DB) error {
	return migrateOnce(db, "catalog.product_category_relations", `
	CREATE TABLE IF NOT EXISTS catalog.product_category_relations (
		relation_key VARCHAR(255) PRIMARY KEY,
		product_local_id UUID NOT NULL REFERENCES catalog.products(local_id) ON DELETE CASCADE,
		category_local_id UUID NOT NULL REFERENCES catalog.categories(local_id) ON DELETE CASCADE,
		remote_relation_id VARCHAR(255),
		deleted_at TIMESTAMP WITH TIME ZONE,
		UNIQUE (product_local_id, category_local_id)
	);`)
}

// All returns the catalog migrations in apply order.
func All() []migration.MigrationInterface {
	return []migration.MigrationInterface{
		&MigrationsSchema{},
		&CreateCatalogSchema{},
		&CreateProductsTable{},
		&CreateDescriptionsTable{},
		&CreateImagesTable{},
		&CreateCategoriesTable{},
		&CreateCategoryRelationsTable{},
	}
}

func migrateOnce(db *sql.DB, name, query string) error {
	if ok, err := checkAndSkipMigration(db, name); err != nil {
		return err
	} else if ok {
		return nil
	}
	return executeAndMarkMigration(db, query, name)
}

func checkAndSkipMigration(db *sql.DB, migrationName string) (bool, error) {
	var migrationExists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = $1)", migrationName).Scan(&migrationExists)
	if err != nil {
		return migrationExists, fmt.Errorf("failed to check migration status: %w", err)
	}
	return migrationExists, nil
}

func executeAndMarkMigration(db *sql.DB, query string, migrationName string) error {
	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to execute migration '%s': %w", migrationName, err)
	}
	_, err = db.Exec("INSERT INTO migrations.migrations (name, time) VALUES ($1, current_timestamp)", migrationName)
	if err != nil {
		return fmt.Errorf("failed to mark migration '%s' as complete: %w", migrationName, err)
	}
	return nil
}
