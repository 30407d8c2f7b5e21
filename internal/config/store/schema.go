package store

import (
	"context"
	"database/sql"
	"fmt"
)

// No foreign keys between wiring tables and instances: deleting an instance
// deliberately leaves edges referencing it in place (orphaned, repairable)
// instead of cascading configuration intent away.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS instances (
		id TEXT PRIMARY KEY,
		template_id TEXT NOT NULL,
		name TEXT NOT NULL,
		field_values TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS instances_name ON instances(name)`,
	`CREATE TABLE IF NOT EXISTS wiring_edges (
		consumer_id TEXT NOT NULL,
		capability TEXT NOT NULL,
		provider_kind TEXT NOT NULL CHECK (provider_kind IN ('template', 'instance')),
		provider_id TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (consumer_id, capability)
	)`,
	`CREATE TABLE IF NOT EXISTS output_wires (
		id TEXT PRIMARY KEY,
		source_instance_id TEXT NOT NULL,
		source_output_key TEXT NOT NULL,
		target_instance_id TEXT NOT NULL,
		target_env_var TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (target_instance_id, target_env_var)
	)`,
	`CREATE INDEX IF NOT EXISTS output_wires_target ON output_wires(target_instance_id)`,
	`CREATE INDEX IF NOT EXISTS output_wires_source ON output_wires(source_instance_id)`,
	`CREATE TABLE IF NOT EXISTS settings (
		path TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		secret INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

func applySchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("config: apply schema: %w", err)
		}
	}
	return nil
}
