// Package appfs embeds the files shipped with the binaries: database migrations and templates.
package appfs

import "embed"

//go:embed migrations all:templates
var FS embed.FS

// MigrationsDir returns the goose migrations directory for a database dialect.
func MigrationsDir(dialect string) string {
	if dialect == "postgres" {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}
