package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"loklagbe/internal/domain"
)

// Event types written by the engine.
const (
	WorkPosted      = "work.posted"
	WorkTransition  = "work.transition"
	WorkDeleted     = "work.deleted"
	UserCreated     = "user.created"
	UserUpdated     = "user.updated"
	UserVerified    = "user.verification"
	UserDeleted     = "user.deleted"
	ReviewSubmitted = "review.submitted"
	NotificationNew = "notification.created"
	NotificationRd  = "notification.read"
	APIKeyCreated   = "apikey.created"
	APIKeyRevoked   = "apikey.revoked"
)

type Writer struct {
	Now func() time.Time
}

type EventPayload map[string]any

// Append records an event inside the caller's transaction.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, entityKind, entityID, actorID string, payload EventPayload) error {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	ts := domain.FormatTime(now())
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?)`,
		ts, evtType, entityKind, nullable(entityID), actorID, string(data))
	if err != nil {
		return fmt.Errorf("append event %s: %w", evtType, err)
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
