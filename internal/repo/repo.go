package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"loklagbe/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var (
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict means a conditional write matched no row: the posting
	// moved to another status or version since it was read.
	ErrVersionConflict = errors.New("version conflict")
	// ErrDuplicate means an insert hit a unique or primary key constraint.
	ErrDuplicate = errors.New("duplicate row")
)

// classifyInsert maps sqlite key constraint failures to ErrDuplicate.
func classifyInsert(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
	}
	return err
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q picks the transaction when present, the pool otherwise.
func (r Repo) q(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.DB
}

const workColumns = `id,user_id,title,description,category,price,location,start_at,end_at,status,accepted_by,accepted_at,completed_at,version,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWork(s rowScanner) (domain.WorkPosting, error) {
	var w domain.WorkPosting
	var acceptedBy, acceptedAt, completedAt sql.NullString
	err := s.Scan(&w.ID, &w.UserID, &w.Title, &w.Description, &w.Category, &w.Price, &w.Location, &w.StartAt, &w.EndAt,
		&w.Status, &acceptedBy, &acceptedAt, &completedAt, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return w, ErrNotFound
	}
	if err != nil {
		return w, err
	}
	if acceptedBy.Valid {
		w.AcceptedBy = &acceptedBy.String
	}
	if acceptedAt.Valid {
		w.AcceptedAt = &acceptedAt.String
	}
	if completedAt.Valid {
		w.CompletedAt = &completedAt.String
	}
	return w, nil
}

func (r Repo) InsertWork(ctx context.Context, tx *sql.Tx, w domain.WorkPosting) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO works(`+workColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		w.ID, w.UserID, w.Title, w.Description, w.Category, w.Price, w.Location, w.StartAt, w.EndAt, w.Status,
		nullableStringPtr(w.AcceptedBy), nullableStringPtr(w.AcceptedAt), nullableStringPtr(w.CompletedAt), w.Version, w.CreatedAt, w.UpdatedAt)
	return err
}

func (r Repo) GetWork(ctx context.Context, id string) (domain.WorkPosting, error) {
	return r.GetWorkTx(ctx, nil, id)
}

func (r Repo) GetWorkTx(ctx context.Context, tx *sql.Tx, id string) (domain.WorkPosting, error) {
	return scanWork(r.q(tx).QueryRowContext(ctx, `SELECT `+workColumns+` FROM works WHERE id=?`, id))
}

// UpdateWorkState writes the lifecycle columns of w only if the stored row is
// still at fromStatus and fromVersion. The stored version is incremented.
func (r Repo) UpdateWorkState(ctx context.Context, tx *sql.Tx, w domain.WorkPosting, fromStatus domain.Status, fromVersion int64) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE works SET status=?, accepted_by=?, accepted_at=?, completed_at=?, updated_at=?, version=version+1
WHERE id=? AND status=? AND version=?`,
		w.Status, nullableStringPtr(w.AcceptedBy), nullableStringPtr(w.AcceptedAt), nullableStringPtr(w.CompletedAt), w.UpdatedAt,
		w.ID, fromStatus, fromVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r Repo) DeleteWork(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := r.q(tx).ExecContext(ctx, `DELETE FROM works WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type WorkFilters struct {
	Status          string
	Category        string
	UserID          string
	AcceptedBy      string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

// ListWorks returns postings newest first.
func (r Repo) ListWorks(ctx context.Context, f WorkFilters) ([]domain.WorkPosting, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Category != "" {
		clauses = append(clauses, "category=?")
		args = append(args, f.Category)
	}
	if f.UserID != "" {
		clauses = append(clauses, "user_id=?")
		args = append(args, f.UserID)
	}
	if f.AcceptedBy != "" {
		clauses = append(clauses, "accepted_by=?")
		args = append(args, f.AcceptedBy)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + workColumns + ` FROM works ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkPosting
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

// InFlightClaimsTx returns the postings workerID has claimed that are not yet
// completed.
func (r Repo) InFlightClaimsTx(ctx context.Context, tx *sql.Tx, workerID string) ([]domain.WorkPosting, error) {
	rows, err := r.q(tx).QueryContext(ctx, `SELECT `+workColumns+` FROM works
WHERE accepted_by=? AND status IN ('accepted_sent','accepted','completed_sent') ORDER BY created_at, id`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkPosting
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

// ListUserWorks returns the postings linked to a user through the user_works
// projection, optionally narrowed by relation and status.
func (r Repo) ListUserWorks(ctx context.Context, userID, relation, status string) ([]domain.WorkPosting, error) {
	clauses := []string{"uw.user_id=?"}
	args := []any{userID}
	if relation != "" {
		clauses = append(clauses, "uw.relation=?")
		args = append(args, relation)
	}
	if status != "" {
		clauses = append(clauses, "w.status=?")
		args = append(args, status)
	}
	cols := "w." + strings.ReplaceAll(workColumns, ",", ",w.")
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM user_works uw JOIN works w ON w.id=uw.work_id WHERE %s ORDER BY w.created_at DESC, w.id DESC`,
		cols, strings.Join(clauses, " AND "))
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkPosting
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

func (r Repo) LinkUserWork(ctx context.Context, tx *sql.Tx, userID, workID, relation, createdAt string) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO user_works(user_id,work_id,relation,created_at) VALUES (?,?,?,?)
ON CONFLICT(user_id,work_id,relation) DO NOTHING`, userID, workID, relation, createdAt)
	return err
}

func (r Repo) UnlinkUserWork(ctx context.Context, tx *sql.Tx, userID, workID, relation string) error {
	_, err := r.q(tx).ExecContext(ctx, `DELETE FROM user_works WHERE user_id=? AND work_id=? AND relation=?`, userID, workID, relation)
	return err
}

// UserWorkIDs returns the work ids a user is linked to under relation.
func (r Repo) UserWorkIDs(ctx context.Context, userID, relation string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT work_id FROM user_works WHERE user_id=? AND relation=? ORDER BY created_at ASC, work_id ASC`, userID, relation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r Repo) LatestEvents(ctx context.Context, limit int, evtType, entityKind, entityID string) ([]domain.Event, error) {
	return r.LatestEventsFrom(ctx, limit, 0, evtType, entityKind, entityID)
}

// LatestEventsFrom pages backwards through the event log from cursor.
func (r Repo) LatestEventsFrom(ctx context.Context, limit int, cursor int64, evtType, entityKind, entityID string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	if entityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, entityID)
	}
	if cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, cursor)
	}
	query := `SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	return r.queryEvents(ctx, query, args...)
}

// EventsAfter returns events with id greater than cursor, oldest first.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.queryEvents(ctx, `SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events WHERE id>? ORDER BY id ASC LIMIT ?`, cursor, limit)
}

func (r Repo) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// LatestEventID returns the most recent event id, 0 on an empty log.
func (r Repo) LatestEventID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM events`).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}
