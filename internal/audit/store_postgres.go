package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/tx"
)

// PostgresStore persists audit events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	if event.Metadata == nil {
		metadata = []byte("{}")
	}

	query := `
		INSERT INTO audit_events (id, org_id, actor_id, action, subject, request_id, ip, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var actor any
	if !event.ActorID.IsZero() {
		actor = uuid.UUID(event.ActorID)
	}
	_, err = tx.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(event.ID), uuid.UUID(event.OrgID), actor, string(event.Action),
		event.Subject, event.RequestID, event.IP, metadata, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOrg(ctx context.Context, orgID id.OrgID, limit int) ([]Event, error) {
	query := `
		SELECT id, org_id, actor_id, action, subject, request_id, ip, metadata, occurred_at
		FROM audit_events
		WHERE org_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, query, uuid.UUID(orgID), limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var eventID, eventOrgID uuid.UUID
		var actorID uuid.NullUUID
		var action string
		var metadata []byte
		if err := rows.Scan(&eventID, &eventOrgID, &actorID, &action, &event.Subject, &event.RequestID, &event.IP, &metadata, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = id.AuditEventID(eventID)
		event.OrgID = id.OrgID(eventOrgID)
		if actorID.Valid {
			event.ActorID = id.UserID(actorID.UUID)
		}
		event.Action = Action(action)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
