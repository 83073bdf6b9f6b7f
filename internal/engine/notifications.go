package engine

import (
	"context"
	"errors"

	"loklagbe/internal/domain"
	"loklagbe/internal/engine/auth"
	"loklagbe/internal/events"
	"loklagbe/internal/notify"
	"loklagbe/internal/repo"
)

// NotificationQuery selects a recipient's notifications.
type NotificationQuery struct {
	UserID          string
	UnreadOnly      bool
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (e Engine) ListNotifications(ctx context.Context, q NotificationQuery) ([]domain.Notification, error) {
	if err := requireActor(q.UserID); err != nil {
		return nil, err
	}
	return e.Repo.ListNotifications(ctx, repo.NotificationFilters{
		ToUserID:        q.UserID,
		UnreadOnly:      q.UnreadOnly,
		Limit:           q.Limit,
		CursorCreatedAt: q.CursorCreatedAt,
		CursorID:        q.CursorID,
	})
}

func (e Engine) UnreadCount(ctx context.Context, userID string) (int, error) {
	if err := requireActor(userID); err != nil {
		return 0, err
	}
	return e.Repo.CountUnread(ctx, userID)
}

// MarkRead flags a notification as read. Only its recipient may do so.
func (e Engine) MarkRead(ctx context.Context, actorID, id string) (domain.Notification, error) {
	n, err := e.Repo.GetNotification(ctx, id)
	if err != nil {
		return n, err
	}
	if n.ToUserID != actorID {
		return n, auth.ForbiddenError{Action: "read notification"}
	}
	if n.Read {
		return n, nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return n, err
	}
	defer tx.Rollback()
	if err := e.Repo.MarkNotificationRead(ctx, tx, id); err != nil {
		return n, err
	}
	if err := e.appendEvent(ctx, tx, events.NotificationRd, "notification", id, actorID, nil); err != nil {
		return n, err
	}
	if err := tx.Commit(); err != nil {
		return n, err
	}
	n.Read = true
	return n, nil
}

// NotificationDetail is what a notification opens: its routed view, the
// posting as it is now, and the actions the viewer can take on it.
type NotificationDetail struct {
	View         notify.View         `json:"view"`
	Notification domain.Notification `json:"notification"`
	Work         *domain.WorkPosting `json:"work,omitempty"`
	Actions      []Action            `json:"actions"`
}

func (e Engine) NotificationDetail(ctx context.Context, actorID, id string) (NotificationDetail, error) {
	n, err := e.Repo.GetNotification(ctx, id)
	if err != nil {
		return NotificationDetail{}, err
	}
	isAdmin, err := e.Auth.IsAdmin(ctx, nil, actorID)
	if err != nil {
		return NotificationDetail{}, err
	}
	if n.ToUserID != actorID && !isAdmin {
		return NotificationDetail{}, auth.ForbiddenError{Action: "view notification"}
	}
	d := NotificationDetail{View: notify.Route(n.Type), Notification: n, Actions: []Action{}}
	w, err := e.Repo.GetWork(ctx, n.WorkID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return d, nil
	case err != nil:
		return d, err
	}
	d.Work = &w
	if acts := AllowedActions(w, actorID, isAdmin); acts != nil {
		d.Actions = acts
	}
	return d, nil
}
