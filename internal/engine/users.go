package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"loklagbe/internal/domain"
	"loklagbe/internal/events"
	"loklagbe/internal/repo"
)

// ProfileInput creates a profile. ID is the authenticated subject.
type ProfileInput struct {
	ID         string
	FullName   string
	Phone      string
	NationalID string
	Bio        string
	ImageURL   string
}

// ProfilePatch edits a profile; nil fields are left alone.
type ProfilePatch struct {
	FullName   *string
	Phone      *string
	NationalID *string
	Bio        *string
	ImageURL   *string
}

func (e Engine) CreateProfile(ctx context.Context, in ProfileInput) (domain.UserProfile, error) {
	if err := requireActor(in.ID); err != nil {
		return domain.UserProfile{}, err
	}
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return domain.UserProfile{}, invalidInput("full_name is required")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.UserProfile{}, err
	}
	defer tx.Rollback()
	if _, err := e.Repo.GetUserTx(ctx, tx, in.ID); err == nil {
		return domain.UserProfile{}, fmt.Errorf("%w: profile %s", ErrAlreadyExists, in.ID)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.UserProfile{}, err
	}
	now := e.stamp()
	u := domain.UserProfile{
		ID:            in.ID,
		FullName:      in.FullName,
		Phone:         strings.TrimSpace(in.Phone),
		NationalID:    strings.TrimSpace(in.NationalID),
		Bio:           strings.TrimSpace(in.Bio),
		ImageURL:      strings.TrimSpace(in.ImageURL),
		Role:          domain.RoleUser,
		PostedWorks:   []string{},
		AcceptedWorks: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.Repo.InsertUser(ctx, tx, u); err != nil {
		return domain.UserProfile{}, fmt.Errorf("insert user: %w", err)
	}
	if err := e.appendEvent(ctx, tx, events.UserCreated, "user", u.ID, u.ID, events.EventPayload{"full_name": u.FullName}); err != nil {
		return domain.UserProfile{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.UserProfile{}, err
	}
	return u, nil
}

func (e Engine) GetProfile(ctx context.Context, id string) (domain.UserProfile, error) {
	return e.Repo.GetUser(ctx, id)
}

// UpdateProfile applies a patch to the actor's own profile.
func (e Engine) UpdateProfile(ctx context.Context, actorID string, p ProfilePatch) (domain.UserProfile, error) {
	if err := requireActor(actorID); err != nil {
		return domain.UserProfile{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.UserProfile{}, err
	}
	defer tx.Rollback()
	u, err := e.Repo.GetUserTx(ctx, tx, actorID)
	if err != nil {
		return u, err
	}
	var changed []string
	set := func(name string, dst *string, v *string) {
		if v == nil {
			return
		}
		*dst = strings.TrimSpace(*v)
		changed = append(changed, name)
	}
	set("full_name", &u.FullName, p.FullName)
	set("phone", &u.Phone, p.Phone)
	set("national_id", &u.NationalID, p.NationalID)
	set("bio", &u.Bio, p.Bio)
	set("image_url", &u.ImageURL, p.ImageURL)
	if u.FullName == "" {
		return u, invalidInput("full_name cannot be empty")
	}
	if len(changed) == 0 {
		return e.Repo.GetUser(ctx, actorID)
	}
	u.UpdatedAt = e.stamp()
	if err := e.Repo.UpdateUserProfile(ctx, tx, u); err != nil {
		return u, err
	}
	if err := e.appendEvent(ctx, tx, events.UserUpdated, "user", u.ID, actorID, events.EventPayload{"fields": changed}); err != nil {
		return u, err
	}
	if err := tx.Commit(); err != nil {
		return u, err
	}
	return e.Repo.GetUser(ctx, actorID)
}

// SetVerified toggles a user's verification flag. Admin only.
func (e Engine) SetVerified(ctx context.Context, actorID, userID string, verified bool) (domain.UserProfile, error) {
	if err := requireActor(actorID); err != nil {
		return domain.UserProfile{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.UserProfile{}, err
	}
	defer tx.Rollback()
	if err := e.Auth.RequireAdmin(ctx, tx, actorID, "verify users"); err != nil {
		return domain.UserProfile{}, err
	}
	if err := e.Repo.SetUserVerified(ctx, tx, userID, verified, e.stamp()); err != nil {
		return domain.UserProfile{}, err
	}
	if err := e.appendEvent(ctx, tx, events.UserVerified, "user", userID, actorID, events.EventPayload{"verified": verified}); err != nil {
		return domain.UserProfile{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.UserProfile{}, err
	}
	return e.Repo.GetUser(ctx, userID)
}

// DeleteUser removes a user with their postings and notifications. Admin only.
func (e Engine) DeleteUser(ctx context.Context, actorID, userID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Auth.RequireAdmin(ctx, tx, actorID, "delete users"); err != nil {
		return err
	}
	if err := e.releaseClaims(ctx, tx, actorID, userID); err != nil {
		return err
	}
	if err := e.Repo.DeleteUser(ctx, tx, userID); err != nil {
		return err
	}
	if err := e.appendEvent(ctx, tx, events.UserDeleted, "user", userID, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// releaseClaims puts every in-flight posting held by workerID back to active
// so that no posting is left with a claim status and no claimant.
func (e Engine) releaseClaims(ctx context.Context, tx *sql.Tx, actorID, workerID string) error {
	claims, err := e.Repo.InFlightClaimsTx(ctx, tx, workerID)
	if err != nil {
		return err
	}
	now := e.stamp()
	for _, w := range claims {
		next := w
		next.Status = domain.StatusActive
		next.AcceptedBy = nil
		next.AcceptedAt = nil
		next.CompletedAt = nil
		next.UpdatedAt = now
		next.Version = w.Version + 1
		if err := e.Repo.UpdateWorkState(ctx, tx, next, w.Status, w.Version); err != nil {
			if errors.Is(err, repo.ErrVersionConflict) {
				return fmt.Errorf("%w: work %s changed concurrently", ErrStaleWrite, w.ID)
			}
			return err
		}
		if err := e.Repo.UnlinkUserWork(ctx, tx, workerID, w.ID, domain.RelationAccepted); err != nil {
			return err
		}
		if err := e.appendEvent(ctx, tx, events.WorkTransition, "work", w.ID, actorID, events.EventPayload{
			"action": "release", "from": w.Status, "to": next.Status, "version": next.Version, "worker": workerID,
		}); err != nil {
			return err
		}
		e.log().Info("claim released",
			zap.String("work_id", w.ID),
			zap.String("from", string(w.Status)),
			zap.String("worker", workerID))
	}
	return nil
}

// ListUsers returns every user with their posting count. Admin only.
func (e Engine) ListUsers(ctx context.Context, actorID string) ([]domain.UserSummary, error) {
	if err := e.RequireAdmin(ctx, actorID, "list users"); err != nil {
		return nil, err
	}
	return e.Repo.ListUserSummaries(ctx)
}

// Stats returns the admin dashboard counts. Admin only.
func (e Engine) Stats(ctx context.Context, actorID string) (domain.Stats, error) {
	if err := e.RequireAdmin(ctx, actorID, "view stats"); err != nil {
		return domain.Stats{}, err
	}
	s, err := e.Repo.Stats(ctx)
	if err != nil {
		return s, err
	}
	s.ByStatus, err = e.Repo.CountWorksByStatus(ctx)
	return s, err
}

// RequireAdmin fails with auth.ForbiddenError unless actorID is an admin.
func (e Engine) RequireAdmin(ctx context.Context, actorID, action string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	return e.Auth.RequireAdmin(ctx, nil, actorID, action)
}

// EnsureAdmin creates a verified admin profile for id, or promotes an
// existing one. It is idempotent.
func (e Engine) EnsureAdmin(ctx context.Context, id, fullName string) (domain.UserProfile, error) {
	if err := requireActor(id); err != nil {
		return domain.UserProfile{}, err
	}
	if strings.TrimSpace(fullName) == "" {
		fullName = id
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.UserProfile{}, err
	}
	defer tx.Rollback()
	now := e.stamp()
	u, err := e.Repo.GetUserTx(ctx, tx, id)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		u = domain.UserProfile{ID: id, FullName: fullName, Verified: true, Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now}
		if err := e.Repo.InsertUser(ctx, tx, u); err != nil {
			return u, err
		}
		if err := e.appendEvent(ctx, tx, events.UserCreated, "user", id, id, events.EventPayload{"role": domain.RoleAdmin}); err != nil {
			return u, err
		}
	case err != nil:
		return u, err
	case u.Role == domain.RoleAdmin:
		return e.Repo.GetUser(ctx, id)
	default:
		if err := e.Repo.SetUserRole(ctx, tx, id, domain.RoleAdmin, now); err != nil {
			return u, err
		}
		if err := e.appendEvent(ctx, tx, events.UserUpdated, "user", id, id, events.EventPayload{"role": domain.RoleAdmin}); err != nil {
			return u, err
		}
	}
	if err := tx.Commit(); err != nil {
		return u, err
	}
	return e.Repo.GetUser(ctx, id)
}
