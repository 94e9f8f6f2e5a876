package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"minkyc/pkg/domain"
	audit "minkyc/pkg/platform/audit"
	txcontext "minkyc/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. Appends join the
// caller's transaction when one is present in ctx.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an event. The category is always derived from the action.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := audit.AuditEvent(event.Action).Category()

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, owner, identity, action,
			actor_id, reason, request_id, client_ip, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		string(event.Owner),
		event.Identity,
		event.Action,
		event.ActorID,
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByOwner returns an owner's events, oldest first.
func (s *Store) ListByOwner(ctx context.Context, owner domain.OwnerID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, owner, identity, action,
			   actor_id, reason, request_id, client_ip, device
		FROM audit_events
		WHERE owner = $1
		ORDER BY timestamp ASC, seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(owner))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			category string
			ownerStr string
			event    audit.Event
		)
		if err := rows.Scan(
			&category,
			&event.Timestamp,
			&ownerStr,
			&event.Identity,
			&event.Action,
			&event.ActorID,
			&event.Reason,
			&event.RequestID,
			&event.ClientIP,
			&event.Device,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Owner = domain.OwnerID(ownerStr)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
