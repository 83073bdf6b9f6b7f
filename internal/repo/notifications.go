package repo

import (
	"context"
	"database/sql"

	"loklagbe/internal/domain"
)

const notificationColumns = `id,to_user_id,from_user_id,work_id,type,message,is_read,created_at`

func scanNotification(s rowScanner) (domain.Notification, error) {
	var n domain.Notification
	var read int
	err := s.Scan(&n.ID, &n.ToUserID, &n.FromUserID, &n.WorkID, &n.Type, &n.Message, &read, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return n, ErrNotFound
	}
	n.Read = read != 0
	return n, err
}

func (r Repo) InsertNotificationTx(ctx context.Context, tx *sql.Tx, n domain.Notification) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO notifications(`+notificationColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		n.ID, n.ToUserID, n.FromUserID, n.WorkID, n.Type, n.Message, boolInt(n.Read), n.CreatedAt)
	return err
}

func (r Repo) GetNotification(ctx context.Context, id string) (domain.Notification, error) {
	return scanNotification(r.DB.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id=?`, id))
}

type NotificationFilters struct {
	ToUserID        string
	UnreadOnly      bool
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

// ListNotifications returns a recipient's notifications newest first.
func (r Repo) ListNotifications(ctx context.Context, f NotificationFilters) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE to_user_id=?`
	args := []any{f.ToUserID}
	if f.UnreadOnly {
		query += ` AND is_read=0`
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r Repo) CountUnread(ctx context.Context, toUserID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE to_user_id=? AND is_read=0`, toUserID).Scan(&n)
	return n, err
}

func (r Repo) MarkNotificationRead(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE notifications SET is_read=1 WHERE id=?`, id)
	return affectedOrNotFound(res, err)
}
