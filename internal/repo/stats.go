package repo

import (
	"context"

	"loklagbe/internal/domain"
)

// Stats counts rows for the admin dashboard in a single query.
func (r Repo) Stats(ctx context.Context) (domain.Stats, error) {
	var s domain.Stats
	err := r.DB.QueryRowContext(ctx, `SELECT
(SELECT COUNT(*) FROM users),
(SELECT COUNT(*) FROM works),
(SELECT COUNT(*) FROM works WHERE status='active'),
(SELECT COUNT(*) FROM works WHERE status='pending'),
(SELECT COUNT(*) FROM works WHERE status='completed'),
(SELECT COUNT(*) FROM notifications)`).
		Scan(&s.Users, &s.Works, &s.Active, &s.Pending, &s.Completed, &s.Notifications)
	return s, err
}

// CountWorksByStatus returns posting counts keyed by status.
func (r Repo) CountWorksByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM works GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
