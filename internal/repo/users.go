package repo

import (
	"context"
	"database/sql"

	"loklagbe/internal/domain"
)

const userColumns = `id,full_name,COALESCE(phone,''),COALESCE(national_id,''),COALESCE(bio,''),COALESCE(image_url,''),verified,role,rating_total,rating_count,created_at,updated_at`

func scanUser(s rowScanner, u *domain.UserProfile) error {
	var verified int
	err := s.Scan(&u.ID, &u.FullName, &u.Phone, &u.NationalID, &u.Bio, &u.ImageURL, &verified, &u.Role,
		&u.RatingTotal, &u.RatingCount, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	u.Verified = verified != 0
	u.Rating = domain.AverageRating(u.RatingTotal, u.RatingCount)
	return nil
}

func (r Repo) InsertUser(ctx context.Context, tx *sql.Tx, u domain.UserProfile) error {
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO users(id,full_name,phone,national_id,bio,image_url,verified,role,rating_total,rating_count,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.ID, u.FullName, nullable(u.Phone), nullable(u.NationalID), nullable(u.Bio), nullable(u.ImageURL), boolInt(u.Verified), u.Role,
		u.RatingTotal, u.RatingCount, u.CreatedAt, u.UpdatedAt)
	return err
}

// GetUser loads a profile together with its posted and accepted work ids.
func (r Repo) GetUser(ctx context.Context, id string) (domain.UserProfile, error) {
	u, err := r.GetUserTx(ctx, nil, id)
	if err != nil {
		return u, err
	}
	if u.PostedWorks, err = r.UserWorkIDs(ctx, id, domain.RelationPosted); err != nil {
		return u, err
	}
	if u.AcceptedWorks, err = r.UserWorkIDs(ctx, id, domain.RelationAccepted); err != nil {
		return u, err
	}
	return u, nil
}

func (r Repo) GetUserTx(ctx context.Context, tx *sql.Tx, id string) (domain.UserProfile, error) {
	var u domain.UserProfile
	err := scanUser(r.q(tx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id), &u)
	return u, err
}

func (r Repo) UpdateUserProfile(ctx context.Context, tx *sql.Tx, u domain.UserProfile) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE users SET full_name=?, phone=?, national_id=?, bio=?, image_url=?, updated_at=? WHERE id=?`,
		u.FullName, nullable(u.Phone), nullable(u.NationalID), nullable(u.Bio), nullable(u.ImageURL), u.UpdatedAt, u.ID)
	return affectedOrNotFound(res, err)
}

func (r Repo) SetUserVerified(ctx context.Context, tx *sql.Tx, id string, verified bool, updatedAt string) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE users SET verified=?, updated_at=? WHERE id=?`, boolInt(verified), updatedAt, id)
	return affectedOrNotFound(res, err)
}

// AddRating folds one score into the stored total and count.
func (r Repo) AddRating(ctx context.Context, tx *sql.Tx, id string, score int, updatedAt string) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE users SET rating_total=rating_total+?, rating_count=rating_count+1, updated_at=? WHERE id=?`,
		score, updatedAt, id)
	return affectedOrNotFound(res, err)
}

func (r Repo) DeleteUser(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := r.q(tx).ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	return affectedOrNotFound(res, err)
}

// ListUserSummaries returns every user with the number of postings they own.
func (r Repo) ListUserSummaries(ctx context.Context) ([]domain.UserSummary, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+`,
(SELECT COUNT(*) FROM works w WHERE w.user_id=users.id) AS post_count
FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.UserSummary
	for rows.Next() {
		var s domain.UserSummary
		var verified int
		if err := rows.Scan(&s.ID, &s.FullName, &s.Phone, &s.NationalID, &s.Bio, &s.ImageURL, &verified, &s.Role,
			&s.RatingTotal, &s.RatingCount, &s.CreatedAt, &s.UpdatedAt, &s.PostCount); err != nil {
			return nil, err
		}
		s.Verified = verified != 0
		s.Rating = domain.AverageRating(s.RatingTotal, s.RatingCount)
		res = append(res, s)
	}
	return res, rows.Err()
}

// UserName returns the full name of a user.
func (r Repo) UserName(ctx context.Context, id string) (string, error) {
	var name string
	err := r.DB.QueryRowContext(ctx, `SELECT full_name FROM users WHERE id=?`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return name, err
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
