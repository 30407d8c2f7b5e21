package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Output wires ---------------------------------------------------------------

// InsertOutputWire stores a new output wire. Source and target instances are
// existence-checked in the transaction; a wire targeting an env var that is
// already wired on the same instance is a ValidationError.
func (s *Store) InsertOutputWire(ctx context.Context, wire OutputWire) error {
	if strings.TrimSpace(wire.ID) == "" {
		return fmt.Errorf("config: insert output wire: id is required")
	}

	return s.withWriteTx(ctx, "insert output wire", func(tx *sql.Tx) error {
		if err := instanceExistsTx(ctx, tx, wire.SourceInstanceID, "source instance"); err != nil {
			return err
		}
		if err := instanceExistsTx(ctx, tx, wire.TargetInstanceID, "target instance"); err != nil {
			return err
		}

		var count int
		if err := tx.QueryRowContext(ctx, `
            SELECT COUNT(1) FROM output_wires WHERE target_instance_id = ? AND target_env_var = ?
        `, wire.TargetInstanceID, wire.TargetEnvVar).Scan(&count); err != nil {
			return fmt.Errorf("config: check output wire target: %w", err)
		}
		if count > 0 {
			return Validationf("env var %s of instance %s is already wired", wire.TargetEnvVar, wire.TargetInstanceID)
		}

		if _, err := tx.ExecContext(ctx, `
            INSERT INTO output_wires (id, source_instance_id, source_output_key, target_instance_id, target_env_var, created_at)
            VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
        `, wire.ID, wire.SourceInstanceID, wire.SourceOutputKey, wire.TargetInstanceID, wire.TargetEnvVar); err != nil {
			return fmt.Errorf("config: insert output wire %q: %w", wire.ID, err)
		}
		return nil
	})
}

// DeleteOutputWire removes the wire with the given id.
func (s *Store) DeleteOutputWire(ctx context.Context, id string) error {
	return s.withWriteTx(ctx, "delete output wire", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM output_wires WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("config: delete output wire %q: %w", id, err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return NotFoundError{Entity: "output wire", Key: id}
		}
		return nil
	})
}

// GetOutputWire retrieves a wire by id.
func (s *Store) GetOutputWire(ctx context.Context, id string) (OutputWire, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, source_instance_id, source_output_key, target_instance_id, target_env_var, created_at
        FROM output_wires
        WHERE id = ?
    `, id)

	wire, err := scanOutputWire(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return OutputWire{}, NotFoundError{Entity: "output wire", Key: id}
		}
		return OutputWire{}, fmt.Errorf("config: get output wire %q: %w", id, err)
	}
	return wire, nil
}

// ListOutputWires returns all wires ordered by creation.
func (s *Store) ListOutputWires(ctx context.Context) ([]OutputWire, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, source_instance_id, source_output_key, target_instance_id, target_env_var, created_at
        FROM output_wires
        ORDER BY created_at, id
    `)
	if err != nil {
		return nil, fmt.Errorf("config: list output wires: %w", err)
	}
	return scanList(rows, scanOutputWire, "config: scan output wire", "config: iterate output wires")
}

// ListOutputWiresForTarget returns the inbound wires of one instance,
// ordered by env var for deterministic resolution.
func (s *Store) ListOutputWiresForTarget(ctx context.Context, targetInstanceID string) ([]OutputWire, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, source_instance_id, source_output_key, target_instance_id, target_env_var, created_at
        FROM output_wires
        WHERE target_instance_id = ?
        ORDER BY target_env_var
    `, targetInstanceID)
	if err != nil {
		return nil, fmt.Errorf("config: list output wires for target %s: %w", targetInstanceID, err)
	}
	return scanList(rows, scanOutputWire, "config: scan output wire", "config: iterate output wires")
}
