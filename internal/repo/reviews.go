package repo

import (
	"context"
	"database/sql"

	"loklagbe/internal/domain"
)

// InsertReviewTx stores a review. A second review of the same work by the
// same reviewer fails with ErrDuplicate.
func (r Repo) InsertReviewTx(ctx context.Context, tx *sql.Tx, rv domain.Review) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO reviews(id, rated_user_id, reviewer_id, work_id, rating, comment, created_at)
VALUES (?,?,?,?,?,?,?)`,
		rv.ID, rv.RatedUserID, rv.ReviewerID, nullable(rv.WorkID), rv.Rating, nullable(rv.Comment), rv.CreatedAt)
	return classifyInsert(err)
}

// HasReviewTx reports whether reviewer already rated anyone for workID.
func (r Repo) HasReviewTx(ctx context.Context, tx *sql.Tx, workID, reviewerID string) (bool, error) {
	row := r.q(tx).QueryRowContext(ctx, `SELECT 1 FROM reviews WHERE work_id=? AND reviewer_id=? LIMIT 1`, workID, reviewerID)
	var n int
	err := row.Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// ListReviewsFor returns the reviews a user received, newest first.
func (r Repo) ListReviewsFor(ctx context.Context, ratedUserID string) ([]domain.Review, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, rated_user_id, reviewer_id, COALESCE(work_id,''), rating, COALESCE(comment,''), created_at
FROM reviews WHERE rated_user_id=? ORDER BY created_at DESC, id DESC`, ratedUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.RatedUserID, &rv.ReviewerID, &rv.WorkID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, rv)
	}
	return res, rows.Err()
}
