package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Instance persistence -------------------------------------------------------

// InsertInstance stores a new instance. Any settings writes (promoted
// secrets) commit in the same transaction: if either half fails, neither is
// persisted.
func (s *Store) InsertInstance(ctx context.Context, inst Instance, settings []SettingWrite) error {
	if strings.TrimSpace(inst.ID) == "" {
		return fmt.Errorf("config: insert instance: id is required")
	}

	return s.withWriteTx(ctx, "insert instance", func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM instances WHERE name = ?`, inst.Name,
		).Scan(&count); err != nil {
			return fmt.Errorf("config: check instance name: %w", err)
		}
		if count > 0 {
			return Validationf("instance name %q already in use", inst.Name)
		}

		if err := s.saveSettingsTx(ctx, tx, settings); err != nil {
			return err
		}

		payload, err := encodeJSON(inst.FieldValues, nullWhenEmptyMap[string, FieldValue])
		if err != nil {
			return fmt.Errorf("config: marshal field values: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
            INSERT INTO instances (id, template_id, name, field_values, created_at, updated_at)
            VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
        `, inst.ID, inst.TemplateID, inst.Name, payload); err != nil {
			return fmt.Errorf("config: insert instance %q: %w", inst.ID, err)
		}
		return nil
	})
}

// UpdateInstance replaces the stored field values (and optionally the name)
// of an existing instance. As with InsertInstance, settings writes share the
// transaction.
func (s *Store) UpdateInstance(ctx context.Context, id string, name *string, fieldValues map[string]FieldValue, settings []SettingWrite) error {
	return s.withWriteTx(ctx, "update instance", func(tx *sql.Tx) error {
		if name != nil {
			var count int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(1) FROM instances WHERE name = ? AND id != ?`, *name, id,
			).Scan(&count); err != nil {
				return fmt.Errorf("config: check instance name: %w", err)
			}
			if count > 0 {
				return Validationf("instance name %q already in use", *name)
			}
		}

		if err := s.saveSettingsTx(ctx, tx, settings); err != nil {
			return err
		}

		payload, err := encodeJSON(fieldValues, nullWhenEmptyMap[string, FieldValue])
		if err != nil {
			return fmt.Errorf("config: marshal field values: %w", err)
		}

		var res sql.Result
		if name != nil {
			res, err = tx.ExecContext(ctx, `
                UPDATE instances
                SET name = ?, field_values = ?, updated_at = CURRENT_TIMESTAMP
                WHERE id = ?
            `, *name, payload, id)
		} else {
			res, err = tx.ExecContext(ctx, `
                UPDATE instances
                SET field_values = ?, updated_at = CURRENT_TIMESTAMP
                WHERE id = ?
            `, payload, id)
		}
		if err != nil {
			return fmt.Errorf("config: update instance %q: %w", id, err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return NotFoundError{Entity: "instance", Key: id}
		}
		return nil
	})
}

// DeleteInstance removes the instance row. Wiring edges and output wires
// referencing it are left untouched; they surface as orphans until the
// operator repairs or clears them.
func (s *Store) DeleteInstance(ctx context.Context, id string) error {
	return s.withWriteTx(ctx, "delete instance", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM instances WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("config: delete instance %q: %w", id, err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return NotFoundError{Entity: "instance", Key: id}
		}
		return nil
	})
}

// GetInstance retrieves an instance by id.
func (s *Store) GetInstance(ctx context.Context, id string) (Instance, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, template_id, name, field_values, created_at, updated_at
        FROM instances
        WHERE id = ?
    `, id)

	inst, err := scanInstance(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Instance{}, NotFoundError{Entity: "instance", Key: id}
		}
		return Instance{}, fmt.Errorf("config: get instance %q: %w", id, err)
	}
	return inst, nil
}

// GetInstanceByName retrieves an instance by its unique user-given name.
func (s *Store) GetInstanceByName(ctx context.Context, name string) (Instance, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, template_id, name, field_values, created_at, updated_at
        FROM instances
        WHERE name = ?
    `, name)

	inst, err := scanInstance(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Instance{}, NotFoundError{Entity: "instance", Key: name}
		}
		return Instance{}, fmt.Errorf("config: get instance by name %q: %w", name, err)
	}
	return inst, nil
}

// ListInstances returns all instances ordered by name.
func (s *Store) ListInstances(ctx context.Context) ([]Instance, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, template_id, name, field_values, created_at, updated_at
        FROM instances
        ORDER BY name
    `)
	if err != nil {
		return nil, fmt.Errorf("config: list instances: %w", err)
	}
	return scanList(rows, scanInstance, "config: scan instance", "config: iterate instances")
}

// InstanceExists reports whether an instance with the given id is stored.
func (s *Store) InstanceExists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM instances WHERE id = ?`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("config: check instance exists: %w", err)
	}
	return count > 0, nil
}
