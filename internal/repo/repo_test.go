package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loklagbe/internal/db"
	"loklagbe/internal/domain"
	"loklagbe/internal/migrate"
	"loklagbe/internal/repo"
)

const ts = "2024-01-01T00:00:00.000000Z"

func newRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))
	r := repo.Repo{DB: conn}
	ctx := context.Background()
	for _, id := range []string{"poster", "worker"} {
		require.NoError(t, r.InsertUser(ctx, nil, domain.UserProfile{ID: id, FullName: id, CreatedAt: ts, UpdatedAt: ts}))
	}
	return r
}

func work(id string) domain.WorkPosting {
	return domain.WorkPosting{
		ID: id, UserID: "poster", Title: "t", Description: "d", Category: "Other", Price: 10, Location: "Dhaka",
		StartAt: ts, EndAt: ts, Status: domain.StatusActive, Version: 1, CreatedAt: ts, UpdatedAt: ts,
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()
	v1, err := migrate.MigrateContext(context.Background(), conn)
	require.NoError(t, err)
	v2, err := migrate.MigrateContext(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Positive(t, v1)
}

func TestUpdateWorkStateIsConditional(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	w := work("w1")
	require.NoError(t, r.InsertWork(ctx, nil, w))

	next := w
	worker := "worker"
	next.Status = domain.StatusAcceptedSent
	next.AcceptedBy = &worker
	require.NoError(t, r.UpdateWorkState(ctx, nil, next, domain.StatusActive, 1))

	// Same precondition again no longer matches.
	assert.ErrorIs(t, r.UpdateWorkState(ctx, nil, next, domain.StatusActive, 1), repo.ErrVersionConflict)
	assert.ErrorIs(t, r.UpdateWorkState(ctx, nil, next, domain.StatusAcceptedSent, 1), repo.ErrVersionConflict)

	got, err := r.GetWork(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAcceptedSent, got.Status)
	assert.EqualValues(t, 2, got.Version)
	assert.Equal(t, "worker", got.Worker())

	_, err = r.GetWork(ctx, "missing")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestUserWorksProjectionIsUnique(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	require.NoError(t, r.InsertWork(ctx, nil, work("w1")))
	for i := 0; i < 3; i++ {
		require.NoError(t, r.LinkUserWork(ctx, nil, "worker", "w1", domain.RelationAccepted, ts))
	}
	u, err := r.GetUser(ctx, "worker")
	require.NoError(t, err)
	assert.Equal(t, []string{"w1"}, u.AcceptedWorks)
	assert.Empty(t, u.PostedWorks)

	require.NoError(t, r.UnlinkUserWork(ctx, nil, "worker", "w1", domain.RelationAccepted))
	ids, err := r.UserWorkIDs(ctx, "worker", domain.RelationAccepted)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNotificationsUnreadAndOrder(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	for i, id := range []string{"n1", "n2", "n3"} {
		n := domain.Notification{
			ID: id, ToUserID: "poster", FromUserID: "worker", WorkID: "w1", Type: domain.NotificationAcceptedSent,
			Message: "m", CreatedAt: "2024-01-01T00:00:0" + string(rune('1'+i)) + ".000000Z",
		}
		require.NoError(t, r.InsertNotificationTx(ctx, nil, n))
	}
	require.NoError(t, r.MarkNotificationRead(ctx, nil, "n2"))
	assert.ErrorIs(t, r.MarkNotificationRead(ctx, nil, "nope"), repo.ErrNotFound)

	all, err := r.ListNotifications(ctx, repo.NotificationFilters{ToUserID: "poster"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "n3", all[0].ID)
	assert.True(t, all[1].Read)

	unread, err := r.ListNotifications(ctx, repo.NotificationFilters{ToUserID: "poster", UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread, 2)
	count, err := r.CountUnread(ctx, "poster")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	page, err := r.ListNotifications(ctx, repo.NotificationFilters{ToUserID: "poster", Limit: 1, CursorCreatedAt: all[0].CreatedAt, CursorID: all[0].ID})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "n2", page[0].ID)
}

func TestReviewUniquePerWorkAndReviewer(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	rv := domain.Review{ID: "r1", RatedUserID: "worker", ReviewerID: "poster", WorkID: "w1", Rating: 5, CreatedAt: ts}
	require.NoError(t, r.InsertReviewTx(ctx, nil, rv))
	rv.ID = "r2"
	assert.ErrorIs(t, r.InsertReviewTx(ctx, nil, rv), repo.ErrDuplicate)
	// Reusing an id is a duplicate too.
	assert.ErrorIs(t, r.InsertReviewTx(ctx, nil, domain.Review{ID: "r1", RatedUserID: "worker", ReviewerID: "poster", Rating: 4, CreatedAt: ts}), repo.ErrDuplicate)

	// Reviews without a work are not constrained.
	for _, id := range []string{"r3", "r4"} {
		require.NoError(t, r.InsertReviewTx(ctx, nil, domain.Review{ID: id, RatedUserID: "worker", ReviewerID: "poster", Rating: 3, CreatedAt: ts}))
	}
	has, err := r.HasReviewTx(ctx, nil, "w1", "poster")
	require.NoError(t, err)
	assert.True(t, has)
	list, err := r.ListReviewsFor(ctx, "worker")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestStatsAndRoles(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	require.NoError(t, r.InsertWork(ctx, nil, work("w1")))
	pending := work("w2")
	pending.Status = domain.StatusPending
	require.NoError(t, r.InsertWork(ctx, nil, pending))

	s, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Users: 2, Works: 2, Active: 1, Pending: 1}, s)
	counts, err := r.CountWorksByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"active": 1, "pending": 1}, counts)

	role, err := r.UserRoleTx(ctx, nil, "poster")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, role)
	require.NoError(t, r.SetUserRole(ctx, nil, "poster", domain.RoleAdmin, ts))
	admins, err := r.ListAdmins(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"poster"}, admins)

	require.NoError(t, r.AddRating(ctx, nil, "worker", 4, ts))
	require.NoError(t, r.AddRating(ctx, nil, "worker", 5, ts))
	u, err := r.GetUser(ctx, "worker")
	require.NoError(t, err)
	assert.Equal(t, 4.5, u.Rating)

	users, err := r.ListUserSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, 2, users[0].PostCount+users[1].PostCount)
}

func TestAPIKeys(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	key := domain.APIKey{ID: "k1", ActorID: "poster", Name: "ci", KeyHash: repo.HashAPIKey(" secret "), CreatedAt: ts}
	require.NoError(t, r.InsertAPIKey(ctx, nil, key))
	got, err := r.GetAPIKeyByHash(ctx, repo.HashAPIKey("secret"))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	other := domain.APIKey{ID: "k2", ActorID: "worker", KeyHash: repo.HashAPIKey("other"), CreatedAt: ts}
	require.NoError(t, r.InsertAPIKey(ctx, nil, other))
	reused := other
	reused.ID = "k3"
	assert.ErrorIs(t, r.InsertAPIKey(ctx, nil, reused), repo.ErrDuplicate)

	mine, err := r.ListAPIKeys(ctx, "poster")
	require.NoError(t, err)
	assert.Equal(t, []domain.APIKey{key}, mine)
	_, err = r.GetAPIKeyByHash(ctx, repo.HashAPIKey("missing"))
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, r.DeleteAPIKey(ctx, nil, "k1"))
	assert.ErrorIs(t, r.DeleteAPIKey(ctx, nil, "k1"), repo.ErrNotFound)
}
