package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"loklagbe/internal/domain"
	"loklagbe/internal/events"
	"loklagbe/internal/repo"
)

const apiKeyPrefix = "lk_"

// CreateAPIKey issues a key for actorID. The plain key is returned once; only
// its hash is stored.
func (e Engine) CreateAPIKey(ctx context.Context, actorID, name string) (domain.APIKey, string, error) {
	if err := requireActor(actorID); err != nil {
		return domain.APIKey{}, "", err
	}
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return domain.APIKey{}, "", err
	}
	secret := apiKeyPrefix + hex.EncodeToString(buf)
	key := domain.APIKey{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Name:      strings.TrimSpace(name),
		KeyHash:   repo.HashAPIKey(secret),
		CreatedAt: e.stamp(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.APIKey{}, "", err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAPIKey(ctx, tx, key); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := e.appendEvent(ctx, tx, events.APIKeyCreated, "api_key", key.ID, actorID, events.EventPayload{"name": key.Name}); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return domain.APIKey{}, "", err
	}
	return key, secret, nil
}

func (e Engine) ListAPIKeys(ctx context.Context, actorID string) ([]domain.APIKey, error) {
	return e.Repo.ListAPIKeys(ctx, actorID)
}

// RevokeAPIKey deletes a key. Owners may revoke their own keys, admins any.
func (e Engine) RevokeAPIKey(ctx context.Context, actorID, id string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	key, err := e.Repo.GetAPIKeyTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := e.Auth.RequireSelfOrAdmin(ctx, tx, actorID, key.ActorID, "revoke api key"); err != nil {
		return err
	}
	if err := e.Repo.DeleteAPIKey(ctx, tx, id); err != nil {
		return err
	}
	if err := e.appendEvent(ctx, tx, events.APIKeyRevoked, "api_key", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// LatestEvents pages backwards through the event log. Admin only.
func (e Engine) LatestEvents(ctx context.Context, actorID string, limit int, cursor int64, evtType, entityKind, entityID string) ([]domain.Event, error) {
	if err := e.RequireAdmin(ctx, actorID, "read events"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return e.Repo.LatestEventsFrom(ctx, limit, cursor, evtType, entityKind, entityID)
}
