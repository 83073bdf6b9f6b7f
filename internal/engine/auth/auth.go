package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"loklagbe/internal/domain"
	"loklagbe/internal/repo"
)

// ForbiddenError indicates the actor may not perform an action.
type ForbiddenError struct {
	Action string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("not allowed to %s", e.Action)
}

// Service answers role questions backed by the users table.
type Service struct {
	Repo repo.Repo
}

// ActorRole returns the stored role. Actors without a profile are plain users.
func (s Service) ActorRole(ctx context.Context, tx *sql.Tx, actorID string) (domain.Role, error) {
	if actorID == "" {
		return "", errors.New("actor_id required")
	}
	role, err := s.Repo.UserRoleTx(ctx, tx, actorID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.RoleUser, nil
	}
	return role, err
}

func (s Service) IsAdmin(ctx context.Context, tx *sql.Tx, actorID string) (bool, error) {
	role, err := s.ActorRole(ctx, tx, actorID)
	if err != nil {
		return false, err
	}
	return role == domain.RoleAdmin, nil
}

// RequireAdmin returns ForbiddenError{action} unless actorID is an admin.
func (s Service) RequireAdmin(ctx context.Context, tx *sql.Tx, actorID, action string) error {
	ok, err := s.IsAdmin(ctx, tx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ForbiddenError{Action: action}
	}
	return nil
}

// RequireSelfOrAdmin allows actors acting on their own record, and admins.
func (s Service) RequireSelfOrAdmin(ctx context.Context, tx *sql.Tx, actorID, subjectID, action string) error {
	if actorID != "" && actorID == subjectID {
		return nil
	}
	return s.RequireAdmin(ctx, tx, actorID, action)
}
