package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"loklagbe/internal/config"
	"loklagbe/internal/db"
	"loklagbe/internal/domain"
	"loklagbe/internal/engine"
	"loklagbe/internal/engine/auth"
	"loklagbe/internal/migrate"
	"loklagbe/internal/repo"
)

const (
	adminID  = "admin-1"
	posterID = "poster-1"
	workerID = "worker-1"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	eng.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	ctx := context.Background()
	if _, err := eng.EnsureAdmin(ctx, adminID, "Admin"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	env := testEnv{Engine: eng, Ctx: ctx}
	env.user(t, posterID, "Rahim Uddin")
	env.user(t, workerID, "Karim Mia")
	return env
}

// user creates a verified profile.
func (env testEnv) user(t *testing.T, id, name string) domain.UserProfile {
	t.Helper()
	if _, err := env.Engine.CreateProfile(env.Ctx, engine.ProfileInput{ID: id, FullName: name}); err != nil {
		t.Fatalf("create profile %s: %v", id, err)
	}
	u, err := env.Engine.SetVerified(env.Ctx, adminID, id, true)
	if err != nil {
		t.Fatalf("verify %s: %v", id, err)
	}
	return u
}

func (env testEnv) post(t *testing.T) domain.WorkPosting {
	t.Helper()
	w, err := env.Engine.PostWork(env.Ctx, engine.PostWorkOptions{
		UserID:      posterID,
		Title:       "Fix kitchen sink",
		Description: "Leaking pipe under the sink",
		Category:    "Plumbing",
		Price:       1500,
		Location:    "Dhaka",
		StartAt:     "2024-02-01T09:00:00Z",
		EndAt:       "2024-02-01T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("post work: %v", err)
	}
	return w
}

func TestLifecycleEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.Ctx
	w := env.post(t)
	require.Equal(t, domain.StatusActive, w.Status)
	require.EqualValues(t, 1500, w.Price)

	res, err := env.Engine.Claim(ctx, w.ID, workerID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAcceptedSent, res.Work.Status)
	assert.Equal(t, domain.StatusActive, res.From)
	assert.Equal(t, workerID, res.Work.Worker())
	require.NotNil(t, res.Notification)
	assert.Equal(t, posterID, res.Notification.ToUserID)
	assert.Equal(t, domain.NotificationAcceptedSent, res.Notification.Type)
	assert.Contains(t, res.Notification.Message, "Karim Mia")

	res, err = env.Engine.Grant(ctx, w.ID, posterID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, res.Work.Status)
	require.NotNil(t, res.Notification)
	assert.Equal(t, workerID, res.Notification.ToUserID)
	assert.Equal(t, domain.NotificationAccepted, res.Notification.Type)

	res, err = env.Engine.MarkDone(ctx, w.ID, workerID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompletedSent, res.Work.Status)
	require.NotNil(t, res.Notification)
	assert.Equal(t, posterID, res.Notification.ToUserID)

	res, err = env.Engine.Confirm(ctx, w.ID, posterID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, res.Work.Status)
	require.NotNil(t, res.Work.CompletedAt)
	require.NotNil(t, res.RatingPrompt)
	assert.Equal(t, workerID, res.RatingPrompt.RatedUserID)
	assert.EqualValues(t, 5, res.Work.Version)

	stored, err := env.Engine.GetWork(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Work, stored)

	posterNotes, err := env.Engine.ListNotifications(ctx, engine.NotificationQuery{UserID: posterID})
	require.NoError(t, err)
	assert.Len(t, posterNotes, 2)
	workerNotes, err := env.Engine.ListNotifications(ctx, engine.NotificationQuery{UserID: workerID})
	require.NoError(t, err)
	assert.Len(t, workerNotes, 2)

	worker, err := env.Engine.GetProfile(ctx, workerID)
	require.NoError(t, err)
	assert.Equal(t, []string{w.ID}, worker.AcceptedWorks)
	poster, err := env.Engine.GetProfile(ctx, posterID)
	require.NoError(t, err)
	assert.Equal(t, []string{w.ID}, poster.PostedWorks)

	evts, err := env.Engine.Repo.LatestEvents(ctx, 100, "work.transition", "work", w.ID)
	require.NoError(t, err)
	assert.Len(t, evts, 4)
}

func TestRejectClearsClaimWithoutNotification(t *testing.T) {
	env := newTestEnv(t)
	w := env.post(t)
	_, err := env.Engine.Claim(env.Ctx, w.ID, workerID)
	require.NoError(t, err)

	res, err := env.Engine.Reject(env.Ctx, w.ID, posterID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, res.Work.Status)
	assert.Nil(t, res.Work.AcceptedBy)
	assert.Nil(t, res.Work.AcceptedAt)
	assert.Nil(t, res.Notification)

	stored, err := env.Engine.GetWork(env.Ctx, w.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AcceptedBy)

	workerNotes, err := env.Engine.ListNotifications(env.Ctx, engine.NotificationQuery{UserID: workerID})
	require.NoError(t, err)
	assert.Empty(t, workerNotes)
	worker, err := env.Engine.GetProfile(env.Ctx, workerID)
	require.NoError(t, err)
	assert.Empty(t, worker.AcceptedWorks)

	// The posting is open again.
	_, err = env.Engine.Claim(env.Ctx, w.ID, workerID)
	require.NoError(t, err)
}

func TestTransitionTableIsClosed(t *testing.T) {
	defined := 0
	for _, s := range domain.Statuses() {
		for _, a := range engine.Actions() {
			rule, err := engine.Transition(s, a)
			if err != nil {
				assert.ErrorIs(t, err, engine.ErrInvalidTransition, "%s/%s", s, a)
				continue
			}
			defined++
			assert.True(t, rule.To.Valid(), "%s/%s", s, a)
		}
	}
	assert.Equal(t, 8, defined)
	for _, terminal := range []domain.Status{domain.StatusCompleted, domain.StatusRejected} {
		for _, a := range engine.Actions() {
			_, err := engine.Transition(terminal, a)
			assert.ErrorIs(t, err, engine.ErrInvalidTransition)
		}
	}
}

func TestInvalidTransitionLeavesPostingUntouched(t *testing.T) {
	env := newTestEnv(t)
	w := env.post(t)

	_, err := env.Engine.Grant(env.Ctx, w.ID, posterID)
	require.ErrorIs(t, err, engine.ErrInvalidTransition)
	_, err = env.Engine.Confirm(env.Ctx, w.ID, posterID)
	require.ErrorIs(t, err, engine.ErrInvalidTransition)

	stored, err := env.Engine.GetWork(env.Ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w, stored)
	notes, err := env.Engine.ListNotifications(env.Ctx, engine.NotificationQuery{UserID: workerID})
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestTransitionRequiresTheRightParty(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "stranger", "Someone Else")
	w := env.post(t)

	var fe auth.ForbiddenError
	_, err := env.Engine.Claim(env.Ctx, w.ID, posterID)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "claim", fe.Action)

	_, err = env.Engine.Claim(env.Ctx, w.ID, workerID)
	require.NoError(t, err)
	_, err = env.Engine.Grant(env.Ctx, w.ID, "stranger")
	require.ErrorAs(t, err, &fe)
	_, err = env.Engine.Grant(env.Ctx, w.ID, posterID)
	require.NoError(t, err)
	_, err = env.Engine.MarkDone(env.Ctx, w.ID, "stranger")
	require.ErrorAs(t, err, &fe)
}

func TestExpectedVersionMismatchIsStale(t *testing.T) {
	env := newTestEnv(t)
	w := env.post(t)
	_, err := env.Engine.ApplyTransition(env.Ctx, engine.TransitionRequest{
		WorkID: w.ID, Action: engine.ActionClaim, ActorID: workerID, ExpectedVersion: w.Version + 1,
	})
	require.ErrorIs(t, err, engine.ErrStaleWrite)

	res, err := env.Engine.ApplyTransition(env.Ctx, engine.TransitionRequest{
		WorkID: w.ID, Action: engine.ActionClaim, ActorID: workerID, ExpectedVersion: w.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, w.Version+1, res.Work.Version)
}

func TestTransitionChangesOnlyLifecycleFields(t *testing.T) {
	env := newTestEnv(t)
	w := env.post(t)
	steps := []struct {
		action engine.Action
		actor  string
	}{
		{engine.ActionClaim, workerID},
		{engine.ActionGrant, posterID},
		{engine.ActionMarkDone, workerID},
		{engine.ActionDeny, posterID},
		{engine.ActionMarkDone, workerID},
		{engine.ActionConfirm, posterID},
	}
	prev := w
	for _, step := range steps {
		res, err := env.Engine.ApplyTransition(env.Ctx, engine.TransitionRequest{WorkID: w.ID, Action: step.action, ActorID: step.actor})
		require.NoError(t, err, step.action)
		got := res.Work
		assert.Equal(t, prev.ID, got.ID)
		assert.Equal(t, prev.UserID, got.UserID)
		assert.Equal(t, prev.Title, got.Title)
		assert.Equal(t, prev.Description, got.Description)
		assert.Equal(t, prev.Category, got.Category)
		assert.Equal(t, prev.Price, got.Price)
		assert.Equal(t, prev.Location, got.Location)
		assert.Equal(t, prev.StartAt, got.StartAt)
		assert.Equal(t, prev.EndAt, got.EndAt)
		assert.Equal(t, prev.CreatedAt, got.CreatedAt)
		assert.Equal(t, prev.Version+1, got.Version)
		prev = got
	}
	assert.Equal(t, domain.StatusCompleted, prev.Status)
}

func TestConcurrentClaimsHaveOneWinner(t *testing.T) {
	env := newTestEnv(t)
	w := env.post(t)
	workers := []string{"w-a", "w-b", "w-c", "w-d", "w-e"}
	for _, id := range workers {
		env.user(t, id, "Worker "+id)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(workers))
	for i, id := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.Engine.Claim(env.Ctx, w.ID, id)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(err, engine.ErrInvalidTransition) || errors.Is(err, engine.ErrStaleWrite), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins)

	stored, err := env.Engine.GetWork(env.Ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAcceptedSent, stored.Status)
	notes, err := env.Engine.ListNotifications(env.Ctx, engine.NotificationQuery{UserID: posterID})
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestTransitionSpans(t *testing.T) {
	env := newTestEnv(t)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	env.Engine.Tracer = tp.Tracer("test")

	w := env.post(t)
	_, err := env.Engine.Claim(env.Ctx, w.ID, workerID)
	require.NoError(t, err)
	_, err = env.Engine.Confirm(env.Ctx, w.ID, posterID)
	require.ErrorIs(t, err, engine.ErrInvalidTransition)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "engine.transition", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("work.to", string(domain.StatusAcceptedSent)))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestModerationQueue(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Config.Moderation.RequireApproval = true
	w := env.post(t)
	require.Equal(t, domain.StatusPending, w.Status)

	_, err := env.Engine.Claim(env.Ctx, w.ID, workerID)
	require.ErrorIs(t, err, engine.ErrInvalidTransition)
	var fe auth.ForbiddenError
	_, err = env.Engine.Approve(env.Ctx, w.ID, posterID)
	require.ErrorAs(t, err, &fe)

	res, err := env.Engine.Approve(env.Ctx, w.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, res.Work.Status)
	require.NotNil(t, res.Notification)
	assert.Equal(t, domain.NotificationGeneral, res.Notification.Type)
	assert.Equal(t, posterID, res.Notification.ToUserID)

	other := env.post(t)
	res, err = env.Engine.Decline(env.Ctx, other.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, res.Work.Status)

	stats, err := env.Engine.Stats(env.Ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{
		Users: 3, Works: 2, Active: 1, Notifications: 4,
		ByStatus: map[string]int{"active": 1, "rejected": 1},
	}, stats)

	queue, err := env.Engine.ListNotifications(env.Ctx, engine.NotificationQuery{UserID: adminID})
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, domain.NotificationGeneral, queue[0].Type)
	assert.Contains(t, queue[0].Message, "waiting for approval")
}

func TestPostWorkValidation(t *testing.T) {
	env := newTestEnv(t)
	base := engine.PostWorkOptions{
		UserID: posterID, Title: "Paint room", Description: "Two walls", Category: "painting", Price: 800, Location: "Sylhet",
	}

	w, err := env.Engine.PostWork(env.Ctx, base)
	require.NoError(t, err)
	assert.Equal(t, "Painting", w.Category)

	slug := base
	slug.Category = "ac-repair"
	w, err = env.Engine.PostWork(env.Ctx, slug)
	require.NoError(t, err)
	assert.Equal(t, "AC Repair", w.Category)

	bad := base
	bad.Category = "Astrology"
	_, err = env.Engine.PostWork(env.Ctx, bad)
	assert.ErrorIs(t, err, engine.ErrInvalidCategory)

	bad = base
	bad.Price = 0
	_, err = env.Engine.PostWork(env.Ctx, bad)
	assert.ErrorIs(t, err, engine.ErrInvalidInput)

	bad = base
	bad.StartAt, bad.EndAt = "2024-02-02T00:00:00Z", "2024-02-01T00:00:00Z"
	_, err = env.Engine.PostWork(env.Ctx, bad)
	assert.ErrorIs(t, err, engine.ErrInvalidInput)

	_, err = env.Engine.CreateProfile(env.Ctx, engine.ProfileInput{ID: "new-user", FullName: "New User"})
	require.NoError(t, err)
	unverified := base
	unverified.UserID = "new-user"
	_, err = env.Engine.PostWork(env.Ctx, unverified)
	assert.ErrorIs(t, err, engine.ErrNotVerified)

	missing := base
	missing.UserID = "ghost"
	_, err = env.Engine.PostWork(env.Ctx, missing)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestHistoryByRelationAndStatus(t *testing.T) {
	env := newTestEnv(t)
	first := env.post(t)
	second := env.post(t)
	_, err := env.Engine.Claim(env.Ctx, first.ID, workerID)
	require.NoError(t, err)

	posted, err := env.Engine.History(env.Ctx, posterID, domain.RelationPosted, "")
	require.NoError(t, err)
	assert.Len(t, posted, 2)

	active, err := env.Engine.History(env.Ctx, posterID, domain.RelationPosted, string(domain.StatusActive))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	accepted, err := env.Engine.History(env.Ctx, workerID, domain.RelationAccepted, "")
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, first.ID, accepted[0].ID)

	_, err = env.Engine.History(env.Ctx, workerID, "watched", "")
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}

func TestNotificationDetailRoutesAndOffersActions(t *testing.T) {
	env := newTestEnv(t)
	w := env.post(t)
	res, err := env.Engine.Claim(env.Ctx, w.ID, workerID)
	require.NoError(t, err)

	d, err := env.Engine.NotificationDetail(env.Ctx, posterID, res.Notification.ID)
	require.NoError(t, err)
	assert.EqualValues(t, "accepted_sent", d.View)
	require.NotNil(t, d.Work)
	assert.Equal(t, []engine.Action{engine.ActionGrant, engine.ActionReject}, d.Actions)

	_, err = env.Engine.NotificationDetail(env.Ctx, workerID, res.Notification.ID)
	var fe auth.ForbiddenError
	assert.ErrorAs(t, err, &fe)

	count, err := env.Engine.UnreadCount(env.Ctx, posterID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	n, err := env.Engine.MarkRead(env.Ctx, posterID, res.Notification.ID)
	require.NoError(t, err)
	assert.True(t, n.Read)
	count, err = env.Engine.UnreadCount(env.Ctx, posterID)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, env.Engine.DeleteWork(env.Ctx, w.ID, adminID))
	d, err = env.Engine.NotificationDetail(env.Ctx, posterID, res.Notification.ID)
	require.NoError(t, err)
	assert.Nil(t, d.Work)
	assert.Empty(t, d.Actions)
}

func TestCommittedNotificationsReachSubscribers(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(env.Ctx)
	defer cancel()
	ch, unsubscribe := env.Engine.Hub.Subscribe(ctx, posterID)
	defer unsubscribe()

	w := env.post(t)
	res, err := env.Engine.Claim(env.Ctx, w.ID, workerID)
	require.NoError(t, err)

	select {
	case n := <-ch:
		assert.Equal(t, res.Notification.ID, n.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification delivered")
	}

	// A failed transition publishes nothing.
	_, err = env.Engine.Claim(env.Ctx, w.ID, workerID)
	require.Error(t, err)
	select {
	case n := <-ch:
		t.Fatalf("unexpected notification %s", n.ID)
	default:
	}
}

func TestAdminOperationsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	var fe auth.ForbiddenError
	_, err := env.Engine.ListUsers(env.Ctx, posterID)
	require.ErrorAs(t, err, &fe)
	_, err = env.Engine.SetVerified(env.Ctx, posterID, workerID, false)
	require.ErrorAs(t, err, &fe)
	require.ErrorAs(t, env.Engine.DeleteUser(env.Ctx, workerID, posterID), &fe)

	w := env.post(t)
	users, err := env.Engine.ListUsers(env.Ctx, adminID)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, u := range users {
		counts[u.ID] = u.PostCount
	}
	assert.Equal(t, map[string]int{adminID: 0, posterID: 1, workerID: 0}, counts)

	require.NoError(t, env.Engine.DeleteUser(env.Ctx, adminID, posterID))
	_, err = env.Engine.GetWork(env.Ctx, w.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestDeletingWorkerReleasesInFlightClaims(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.Ctx
	e := env.Engine

	claimed := env.post(t)
	_, err := e.Claim(ctx, claimed.ID, workerID)
	require.NoError(t, err)

	granted := env.post(t)
	_, err = e.Claim(ctx, granted.ID, workerID)
	require.NoError(t, err)
	_, err = e.Grant(ctx, granted.ID, posterID)
	require.NoError(t, err)

	done := env.post(t)
	_, err = e.Claim(ctx, done.ID, workerID)
	require.NoError(t, err)
	_, err = e.Grant(ctx, done.ID, posterID)
	require.NoError(t, err)
	_, err = e.MarkDone(ctx, done.ID, workerID)
	require.NoError(t, err)

	finished := env.post(t)
	_, err = e.Claim(ctx, finished.ID, workerID)
	require.NoError(t, err)
	_, err = e.Grant(ctx, finished.ID, posterID)
	require.NoError(t, err)
	_, err = e.MarkDone(ctx, finished.ID, workerID)
	require.NoError(t, err)
	_, err = e.Confirm(ctx, finished.ID, posterID)
	require.NoError(t, err)

	require.NoError(t, e.DeleteUser(ctx, adminID, workerID))

	for _, id := range []string{claimed.ID, granted.ID, done.ID} {
		w, err := e.GetWork(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusActive, w.Status, id)
		assert.Nil(t, w.AcceptedBy, id)
		assert.Nil(t, w.AcceptedAt, id)
		assert.Nil(t, w.CompletedAt, id)

		evts, err := e.Repo.LatestEvents(ctx, 1, "work.transition", "work", id)
		require.NoError(t, err)
		require.Len(t, evts, 1)
		assert.Contains(t, evts[0].Payload, `"action":"release"`)
		assert.Equal(t, adminID, evts[0].ActorID)
	}

	kept, err := e.GetWork(ctx, finished.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, kept.Status)

	// A released posting runs the full lifecycle with a new worker.
	env.user(t, "worker-2", "Jamal Hossain")
	_, err = e.Claim(ctx, granted.ID, "worker-2")
	require.NoError(t, err)
	res, err := e.Grant(ctx, granted.ID, posterID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, res.Work.Status)
	assert.Equal(t, "worker-2", res.Work.Worker())
}

func TestProfileCreateAndEdit(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateProfile(env.Ctx, engine.ProfileInput{ID: posterID, FullName: "Again"})
	require.ErrorIs(t, err, engine.ErrAlreadyExists)

	bio := "Licensed plumber"
	phone := "+8801700000000"
	u, err := env.Engine.UpdateProfile(env.Ctx, posterID, engine.ProfilePatch{Bio: &bio, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, bio, u.Bio)
	assert.Equal(t, phone, u.Phone)
	assert.Equal(t, "Rahim Uddin", u.FullName)

	empty := " "
	_, err = env.Engine.UpdateProfile(env.Ctx, posterID, engine.ProfilePatch{FullName: &empty})
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}
