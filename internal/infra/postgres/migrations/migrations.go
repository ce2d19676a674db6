package migrations

import (
	_ "embed"

	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_state_tables.sql
var createStateTablesSQL string

var Migrations = migrate.NewMigrations()
