package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loklagbe/internal/domain"
	"loklagbe/internal/events"
	"loklagbe/internal/repo"
)

// PostWorkOptions are parameters for creating a posting.
type PostWorkOptions struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Category    string
	Price       int64
	Location    string
	StartAt     string
	EndAt       string
}

// PostWork creates a posting owned by opts.UserID. It starts active, or
// pending when moderation is on.
func (e Engine) PostWork(ctx context.Context, opts PostWorkOptions) (domain.WorkPosting, error) {
	cfg, err := e.config()
	if err != nil {
		return domain.WorkPosting{}, err
	}
	if err := requireActor(opts.UserID); err != nil {
		return domain.WorkPosting{}, err
	}
	opts.Title = strings.TrimSpace(opts.Title)
	opts.Description = strings.TrimSpace(opts.Description)
	opts.Location = strings.TrimSpace(opts.Location)
	switch {
	case opts.Title == "":
		return domain.WorkPosting{}, invalidInput("title is required")
	case opts.Description == "":
		return domain.WorkPosting{}, invalidInput("description is required")
	case opts.Location == "":
		return domain.WorkPosting{}, invalidInput("location is required")
	case opts.Price <= 0:
		return domain.WorkPosting{}, invalidInput("price must be positive")
	}
	category, err := e.ParseCategory(opts.Category)
	if err != nil {
		return domain.WorkPosting{}, err
	}
	start, end, err := e.schedule(opts.StartAt, opts.EndAt)
	if err != nil {
		return domain.WorkPosting{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkPosting{}, err
	}
	defer tx.Rollback()

	poster, err := e.Repo.GetUserTx(ctx, tx, opts.UserID)
	if err != nil {
		return domain.WorkPosting{}, fmt.Errorf("poster profile %s: %w", opts.UserID, err)
	}
	if cfg.Posting.RequireVerified && !poster.Verified {
		return domain.WorkPosting{}, ErrNotVerified
	}
	status := domain.StatusActive
	if cfg.Moderation.RequireApproval {
		status = domain.StatusPending
	}
	now := e.stamp()
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	w := domain.WorkPosting{
		ID:          id,
		UserID:      opts.UserID,
		Title:       opts.Title,
		Description: opts.Description,
		Category:    category,
		Price:       opts.Price,
		Location:    opts.Location,
		StartAt:     start,
		EndAt:       end,
		Status:      status,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.Repo.InsertWork(ctx, tx, w); err != nil {
		return domain.WorkPosting{}, fmt.Errorf("insert work: %w", err)
	}
	if err := e.Repo.LinkUserWork(ctx, tx, w.UserID, w.ID, domain.RelationPosted, now); err != nil {
		return domain.WorkPosting{}, err
	}
	if err := e.appendEvent(ctx, tx, events.WorkPosted, "work", w.ID, w.UserID, events.EventPayload{
		"status": w.Status, "category": w.Category, "price": w.Price,
	}); err != nil {
		return domain.WorkPosting{}, err
	}
	var queued []domain.Notification
	if w.Status == domain.StatusPending {
		queued, err = e.notifyModerators(ctx, tx, w, poster.FullName, now)
		if err != nil {
			return domain.WorkPosting{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkPosting{}, err
	}
	e.publish(queued...)
	return w, nil
}

// notifyModerators tells every admin other than the poster that w is waiting
// in the moderation queue.
func (e Engine) notifyModerators(ctx context.Context, tx *sql.Tx, w domain.WorkPosting, posterName, now string) ([]domain.Notification, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	admins, err := e.Repo.ListAdmins(ctx, tx)
	if err != nil {
		return nil, err
	}
	msg, err := cfg.Message("submit", messageData{Title: w.Title, Actor: posterName})
	if err != nil {
		return nil, err
	}
	var out []domain.Notification
	for _, adminID := range admins {
		if adminID == w.UserID {
			continue
		}
		n := domain.Notification{
			ID:         uuid.NewString(),
			ToUserID:   adminID,
			FromUserID: w.UserID,
			WorkID:     w.ID,
			Type:       domain.NotificationGeneral,
			Message:    msg,
			CreatedAt:  now,
		}
		if err := e.Repo.InsertNotificationTx(ctx, tx, n); err != nil {
			return nil, fmt.Errorf("insert notification: %w", err)
		}
		if err := e.appendEvent(ctx, tx, events.NotificationNew, "notification", n.ID, w.UserID, events.EventPayload{
			"to_user_id": n.ToUserID, "work_id": n.WorkID, "type": n.Type,
		}); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// schedule normalizes the start/end pair. An empty start means now and an
// empty end means the start.
func (e Engine) schedule(startIn, endIn string) (string, string, error) {
	start := e.now()
	if strings.TrimSpace(startIn) != "" {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(startIn))
		if err != nil {
			return "", "", invalidInput("start_at must be RFC3339")
		}
		start = t
	}
	end := start
	if strings.TrimSpace(endIn) != "" {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(endIn))
		if err != nil {
			return "", "", invalidInput("end_at must be RFC3339")
		}
		end = t
	}
	if end.Before(start) {
		return "", "", invalidInput("end_at is before start_at")
	}
	return domain.FormatTime(start), domain.FormatTime(end), nil
}

func (e Engine) GetWork(ctx context.Context, id string) (domain.WorkPosting, error) {
	return e.Repo.GetWork(ctx, id)
}

// WorkQuery selects postings. Category, Status and PosterID are matched in
// SQL; Location goes through FilterWorks.
type WorkQuery struct {
	Category        string
	Status          string
	Location        string
	PosterID        string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (e Engine) ListWorks(ctx context.Context, q WorkQuery) ([]domain.WorkPosting, error) {
	f := repo.WorkFilters{
		UserID:          q.PosterID,
		CursorCreatedAt: q.CursorCreatedAt,
		CursorID:        q.CursorID,
	}
	if q.Status != "" {
		if !domain.Status(q.Status).Valid() {
			return nil, invalidInput("unknown status %q", q.Status)
		}
		f.Status = q.Status
	}
	if q.Category != "" {
		category, err := e.ParseCategory(q.Category)
		if err != nil {
			return nil, err
		}
		f.Category = category
	}
	if q.Location == "" {
		f.Limit = q.Limit
	}
	works, err := e.Repo.ListWorks(ctx, f)
	if err != nil {
		return nil, err
	}
	works = FilterWorks(works, Filter{Location: q.Location})
	if q.Limit > 0 && len(works) > q.Limit {
		works = works[:q.Limit]
	}
	return works, nil
}

// WorkLocations returns the distinct locations of active postings.
func (e Engine) WorkLocations(ctx context.Context) ([]string, error) {
	works, err := e.Repo.ListWorks(ctx, repo.WorkFilters{Status: string(domain.StatusActive)})
	if err != nil {
		return nil, err
	}
	return Locations(works), nil
}

// History lists the postings a user posted or claimed.
func (e Engine) History(ctx context.Context, userID, relation, status string) ([]domain.WorkPosting, error) {
	if err := requireActor(userID); err != nil {
		return nil, err
	}
	switch relation {
	case "", domain.RelationPosted, domain.RelationAccepted:
	default:
		return nil, invalidInput("relation must be posted or accepted")
	}
	if status != "" && !domain.Status(status).Valid() {
		return nil, invalidInput("unknown status %q", status)
	}
	return e.Repo.ListUserWorks(ctx, userID, relation, status)
}

// DeleteWork removes a posting. Posters may delete their own, admins any.
func (e Engine) DeleteWork(ctx context.Context, id, actorID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	w, err := e.Repo.GetWorkTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := e.Auth.RequireSelfOrAdmin(ctx, tx, actorID, w.UserID, "delete work"); err != nil {
		return err
	}
	if err := e.Repo.DeleteWork(ctx, tx, id); err != nil {
		return err
	}
	if err := e.appendEvent(ctx, tx, events.WorkDeleted, "work", id, actorID, events.EventPayload{"status": w.Status}); err != nil {
		return err
	}
	return tx.Commit()
}
