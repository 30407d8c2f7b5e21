package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Wiring edges ---------------------------------------------------------------

// UpsertWiringEdge writes the provider assignment for one (consumer,
// capability) slot, overwriting any previous assignment. The consumer and an
// instance provider are existence-checked inside the transaction: a connect
// racing an instance delete either sees the row and commits, or fails with
// NotFoundError, never a torn edge.
func (s *Store) UpsertWiringEdge(ctx context.Context, edge WiringEdge) error {
	if strings.TrimSpace(edge.ConsumerID) == "" || strings.TrimSpace(edge.Capability) == "" {
		return fmt.Errorf("config: upsert wiring edge: consumer and capability are required")
	}
	if err := edge.Provider.Validate(); err != nil {
		return fmt.Errorf("config: upsert wiring edge: %w", err)
	}

	return s.withWriteTx(ctx, "upsert wiring edge", func(tx *sql.Tx) error {
		if err := instanceExistsTx(ctx, tx, edge.ConsumerID, "consumer"); err != nil {
			return err
		}
		if edge.Provider.Kind == ProviderInstance {
			if err := instanceExistsTx(ctx, tx, edge.Provider.ID, "provider instance"); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `
            INSERT INTO wiring_edges (consumer_id, capability, provider_kind, provider_id, updated_at)
            VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
            ON CONFLICT(consumer_id, capability) DO UPDATE SET
                provider_kind = excluded.provider_kind,
                provider_id = excluded.provider_id,
                updated_at = CURRENT_TIMESTAMP
        `, edge.ConsumerID, edge.Capability, string(edge.Provider.Kind), edge.Provider.ID); err != nil {
			return fmt.Errorf("config: upsert wiring edge %s/%s: %w", edge.ConsumerID, edge.Capability, err)
		}
		return nil
	})
}

// DeleteWiringEdge removes the edge for a slot. Returns true when an edge
// existed; deleting an absent edge is a no-op, not an error.
func (s *Store) DeleteWiringEdge(ctx context.Context, consumerID, capability string) (bool, error) {
	var deleted bool
	err := s.withWriteTx(ctx, "delete wiring edge", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            DELETE FROM wiring_edges WHERE consumer_id = ? AND capability = ?
        `, consumerID, capability)
		if err != nil {
			return fmt.Errorf("config: delete wiring edge %s/%s: %w", consumerID, capability, err)
		}
		rows, _ := res.RowsAffected()
		deleted = rows > 0
		return nil
	})
	return deleted, err
}

// GetWiringEdge retrieves the edge for one slot.
func (s *Store) GetWiringEdge(ctx context.Context, consumerID, capability string) (WiringEdge, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT consumer_id, capability, provider_kind, provider_id, updated_at
        FROM wiring_edges
        WHERE consumer_id = ? AND capability = ?
    `, consumerID, capability)

	edge, err := scanWiringEdge(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return WiringEdge{}, NotFoundError{Entity: "wiring edge", Key: consumerID + "/" + capability}
		}
		return WiringEdge{}, fmt.Errorf("config: get wiring edge %s/%s: %w", consumerID, capability, err)
	}
	return edge, nil
}

// ListWiringEdges returns all edges ordered by consumer then capability.
func (s *Store) ListWiringEdges(ctx context.Context) ([]WiringEdge, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT consumer_id, capability, provider_kind, provider_id, updated_at
        FROM wiring_edges
        ORDER BY consumer_id, capability
    `)
	if err != nil {
		return nil, fmt.Errorf("config: list wiring edges: %w", err)
	}
	return scanList(rows, scanWiringEdge, "config: scan wiring edge", "config: iterate wiring edges")
}

// ListWiringEdgesForConsumer returns the consumer's edges ordered by
// capability.
func (s *Store) ListWiringEdgesForConsumer(ctx context.Context, consumerID string) ([]WiringEdge, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT consumer_id, capability, provider_kind, provider_id, updated_at
        FROM wiring_edges
        WHERE consumer_id = ?
        ORDER BY capability
    `, consumerID)
	if err != nil {
		return nil, fmt.Errorf("config: list wiring edges for %s: %w", consumerID, err)
	}
	return scanList(rows, scanWiringEdge, "config: scan wiring edge", "config: iterate wiring edges")
}

func instanceExistsTx(ctx context.Context, tx *sql.Tx, id, entity string) error {
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM instances WHERE id = ?`, id).Scan(&count); err != nil {
		return fmt.Errorf("config: check %s: %w", entity, err)
	}
	if count == 0 {
		return NotFoundError{Entity: entity, Key: id}
	}
	return nil
}
