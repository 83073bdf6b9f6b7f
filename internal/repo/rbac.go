package repo

import (
	"context"
	"database/sql"

	"loklagbe/internal/domain"
)

// UserRoleTx returns the role stored for a user.
func (r Repo) UserRoleTx(ctx context.Context, tx *sql.Tx, userID string) (domain.Role, error) {
	var role domain.Role
	err := r.q(tx).QueryRowContext(ctx, `SELECT role FROM users WHERE id=?`, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return role, err
}

func (r Repo) SetUserRole(ctx context.Context, tx *sql.Tx, id string, role domain.Role, updatedAt string) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE users SET role=?, updated_at=? WHERE id=?`, role, updatedAt, id)
	return affectedOrNotFound(res, err)
}

// ListAdmins returns the ids of all admin users.
func (r Repo) ListAdmins(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := r.q(tx).QueryContext(ctx, `SELECT id FROM users WHERE role='admin' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
