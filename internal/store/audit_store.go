package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/strayfire/scrimhub/internal/tournament"
)

type AuditStore struct {
	db *sqlx.DB
}

func NewAuditStore(db *sqlx.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Append writes an audit entry inside the caller's transaction so a mutation
// and its record land all-or-nothing.
func (s *AuditStore) Append(ctx context.Context, tx *sqlx.Tx, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, payload any) error {
	data := []byte("{}")
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	entry := tournament.AuditLogEntry{
		ID:          uuid.New(),
		ActorUserID: actorID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Payload:     string(data),
		CreatedAt:   time.Now().UTC(),
	}

	_, err := tx.NamedExecContext(ctx, `INSERT INTO audit_log (id, actor_user_id, action, entity_type, entity_id, payload, created_at)
        VALUES (:id, :actor_user_id, :action, :entity_type, :entity_id, :payload, :created_at)`, entry)
	return err
}

func (s *AuditStore) GetEntries(ctx context.Context, entityType string, entityID uuid.UUID) ([]tournament.AuditLogEntry, error) {
	var entries []tournament.AuditLogEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM audit_log WHERE entity_type = ? AND entity_id = ? ORDER BY created_at ASC", entityType, entityID)
	return entries, err
}
