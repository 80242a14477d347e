package postgres

import (
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/rs/zerolog"
)

const migrationsTable = "schema_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationSource returns the schema migrations compiled into the binary.
func MigrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{FileSystem: migrationsFS, Root: "migrations"}
}

// MigrationSet tracks applied migrations in schema_migrations.
func MigrationSet() *migrate.MigrationSet {
	return &migrate.MigrationSet{TableName: migrationsTable}
}

// Migrate applies pending up migrations through a database/sql handle
// borrowed from pool.
func Migrate(pool *pgxpool.Pool, log zerolog.Logger) (int, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	n, err := MigrationSet().Exec(db, "postgres", MigrationSource(), migrate.Up)
	if err != nil {
		return n, fmt.Errorf("applying migrations: %w", err)
	}
	log.Info().Int("applied", n).Msg("database migrations up to date")
	return n, nil
}
