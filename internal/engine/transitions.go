package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"loklagbe/internal/domain"
	"loklagbe/internal/engine/auth"
	"loklagbe/internal/events"
	"loklagbe/internal/repo"
)

// Action is a lifecycle step requested by a poster, worker or admin.
type Action string

const (
	ActionClaim    Action = "claim"
	ActionGrant    Action = "grant"
	ActionReject   Action = "reject"
	ActionMarkDone Action = "mark_done"
	ActionConfirm  Action = "confirm"
	ActionDeny     Action = "deny"
	ActionApprove  Action = "approve"
	ActionDecline  Action = "decline"
)

var actions = []Action{ActionClaim, ActionGrant, ActionReject, ActionMarkDone, ActionConfirm, ActionDeny, ActionApprove, ActionDecline}

// Actions lists every action in table order.
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// ParseAction accepts an action name. "done" and "mark-done" mean mark_done.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "done", "mark-done":
		return ActionMarkDone, nil
	}
	for _, a := range actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", invalidInput("unknown action %q", s)
}

// Party is who may perform, or receives the outcome of, a transition.
type Party string

const (
	PartyNone   Party = ""
	PartyPoster Party = "poster"
	PartyWorker Party = "worker"
	PartyAdmin  Party = "admin"
)

// Rule is one row of the lifecycle table.
type Rule struct {
	To       domain.Status
	Actor    Party
	NotifyTo Party
	Notify   domain.NotificationType
}

type ruleKey struct {
	from   domain.Status
	action Action
}

var rules = map[ruleKey]Rule{
	{domain.StatusActive, ActionClaim}:          {To: domain.StatusAcceptedSent, Actor: PartyWorker, NotifyTo: PartyPoster, Notify: domain.NotificationAcceptedSent},
	{domain.StatusAcceptedSent, ActionGrant}:    {To: domain.StatusAccepted, Actor: PartyPoster, NotifyTo: PartyWorker, Notify: domain.NotificationAccepted},
	{domain.StatusAcceptedSent, ActionReject}:   {To: domain.StatusActive, Actor: PartyPoster},
	{domain.StatusAccepted, ActionMarkDone}:     {To: domain.StatusCompletedSent, Actor: PartyWorker, NotifyTo: PartyPoster, Notify: domain.NotificationCompletedSent},
	{domain.StatusCompletedSent, ActionConfirm}: {To: domain.StatusCompleted, Actor: PartyPoster, NotifyTo: PartyWorker, Notify: domain.NotificationCompleted},
	{domain.StatusCompletedSent, ActionDeny}:    {To: domain.StatusAccepted, Actor: PartyPoster},
	{domain.StatusPending, ActionApprove}:       {To: domain.StatusActive, Actor: PartyAdmin, NotifyTo: PartyPoster, Notify: domain.NotificationGeneral},
	{domain.StatusPending, ActionDecline}:       {To: domain.StatusRejected, Actor: PartyAdmin, NotifyTo: PartyPoster, Notify: domain.NotificationGeneral},
}

// Transition looks up the rule for applying action at status from. Every pair
// missing from the table is ErrInvalidTransition.
func Transition(from domain.Status, action Action) (Rule, error) {
	r, ok := rules[ruleKey{from, action}]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %s cannot %s", ErrInvalidTransition, from, action)
	}
	return r, nil
}

// mayAct reports whether actorID plays the party a rule requires on w.
func mayAct(p Party, w domain.WorkPosting, actorID string, isAdmin bool) bool {
	switch p {
	case PartyPoster:
		return actorID == w.UserID
	case PartyWorker:
		if w.Status == domain.StatusActive {
			return actorID != w.UserID
		}
		return actorID != "" && actorID == w.Worker()
	case PartyAdmin:
		return isAdmin
	}
	return false
}

// AllowedActions returns the actions actorID may take on w in its current status.
func AllowedActions(w domain.WorkPosting, actorID string, isAdmin bool) []Action {
	var out []Action
	for _, a := range actions {
		r, err := Transition(w.Status, a)
		if err != nil {
			continue
		}
		if mayAct(r.Actor, w, actorID, isAdmin) {
			out = append(out, a)
		}
	}
	return out
}

func recipient(p Party, w domain.WorkPosting) string {
	switch p {
	case PartyPoster:
		return w.UserID
	case PartyWorker:
		return w.Worker()
	}
	return ""
}

// TransitionRequest asks the engine to apply Action to a posting.
// ExpectedVersion, when non-zero, must equal the stored version.
type TransitionRequest struct {
	WorkID          string
	Action          Action
	ActorID         string
	ExpectedVersion int64
}

// RatingPrompt tells the poster whom to rate after confirming completion.
type RatingPrompt struct {
	WorkID      string `json:"work_id"`
	RatedUserID string `json:"rated_user_id"`
}

type TransitionResult struct {
	Work         domain.WorkPosting   `json:"work"`
	From         domain.Status        `json:"from"`
	Notification *domain.Notification `json:"notification,omitempty"`
	RatingPrompt *RatingPrompt        `json:"rating_prompt,omitempty"`
}

type messageData struct {
	Title string
	Actor string
}

// ApplyTransition runs one lifecycle step in a single transaction: the guarded
// status write, the user_works projection, the notification and the event
// all commit together or not at all.
func (e Engine) ApplyTransition(ctx context.Context, req TransitionRequest) (res TransitionResult, err error) {
	ctx, span := e.tracer().Start(ctx, "engine.transition", trace.WithAttributes(
		attribute.String("work.id", req.WorkID),
		attribute.String("work.action", string(req.Action)),
		attribute.String("actor.id", req.ActorID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	cfg, err := e.config()
	if err != nil {
		return res, err
	}
	if err := requireActor(req.ActorID); err != nil {
		return res, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	w, err := e.Repo.GetWorkTx(ctx, tx, req.WorkID)
	if err != nil {
		return res, err
	}
	if req.ExpectedVersion != 0 && req.ExpectedVersion != w.Version {
		return res, fmt.Errorf("%w: work %s is at version %d, expected %d", ErrStaleWrite, w.ID, w.Version, req.ExpectedVersion)
	}
	rule, err := Transition(w.Status, req.Action)
	if err != nil {
		return res, err
	}
	isAdmin := false
	if rule.Actor == PartyAdmin {
		if isAdmin, err = e.Auth.IsAdmin(ctx, tx, req.ActorID); err != nil {
			return res, err
		}
	}
	if !mayAct(rule.Actor, w, req.ActorID, isAdmin) {
		return res, auth.ForbiddenError{Action: string(req.Action)}
	}
	actor, err := e.Repo.GetUserTx(ctx, tx, req.ActorID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return res, err
	}
	if errors.Is(err, repo.ErrNotFound) && rule.Actor == PartyWorker {
		return res, fmt.Errorf("worker profile %s: %w", req.ActorID, repo.ErrNotFound)
	}
	actorName := actor.FullName
	if actorName == "" {
		actorName = req.ActorID
	}

	now := e.stamp()
	next := w
	next.Status = rule.To
	next.UpdatedAt = now
	switch req.Action {
	case ActionClaim:
		worker := req.ActorID
		next.AcceptedBy = &worker
		next.AcceptedAt = &now
	case ActionReject:
		next.AcceptedBy = nil
		next.AcceptedAt = nil
	case ActionConfirm:
		next.CompletedAt = &now
	}
	if err := e.Repo.UpdateWorkState(ctx, tx, next, w.Status, w.Version); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			return res, fmt.Errorf("%w: work %s changed concurrently", ErrStaleWrite, w.ID)
		}
		return res, err
	}
	next.Version = w.Version + 1

	switch req.Action {
	case ActionClaim:
		if err := e.Repo.LinkUserWork(ctx, tx, req.ActorID, w.ID, domain.RelationAccepted, now); err != nil {
			return res, err
		}
	case ActionReject:
		if err := e.Repo.UnlinkUserWork(ctx, tx, w.Worker(), w.ID, domain.RelationAccepted); err != nil {
			return res, err
		}
	}

	var note *domain.Notification
	if rule.Notify != "" {
		msg, err := cfg.Message(string(req.Action), messageData{Title: w.Title, Actor: actorName})
		if err != nil {
			return res, err
		}
		n := domain.Notification{
			ID:         uuid.NewString(),
			ToUserID:   recipient(rule.NotifyTo, next),
			FromUserID: req.ActorID,
			WorkID:     w.ID,
			Type:       rule.Notify,
			Message:    msg,
			CreatedAt:  now,
		}
		if err := e.Repo.InsertNotificationTx(ctx, tx, n); err != nil {
			return res, fmt.Errorf("insert notification: %w", err)
		}
		if err := e.appendEvent(ctx, tx, events.NotificationNew, "notification", n.ID, req.ActorID, events.EventPayload{
			"to_user_id": n.ToUserID, "work_id": n.WorkID, "type": n.Type,
		}); err != nil {
			return res, err
		}
		note = &n
	}
	if err := e.appendEvent(ctx, tx, events.WorkTransition, "work", w.ID, req.ActorID, events.EventPayload{
		"action": req.Action, "from": w.Status, "to": next.Status, "version": next.Version,
	}); err != nil {
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}

	if note != nil {
		e.publish(*note)
	}
	e.log().Info("work transition",
		zap.String("work_id", w.ID),
		zap.String("action", string(req.Action)),
		zap.String("from", string(w.Status)),
		zap.String("to", string(next.Status)),
		zap.String("actor", req.ActorID))
	span.SetAttributes(attribute.String("work.from", string(w.Status)), attribute.String("work.to", string(next.Status)))

	res = TransitionResult{Work: next, From: w.Status, Notification: note}
	if req.Action == ActionConfirm {
		res.RatingPrompt = &RatingPrompt{WorkID: w.ID, RatedUserID: next.Worker()}
	}
	return res, nil
}

func (e Engine) act(ctx context.Context, a Action, workID, actorID string) (TransitionResult, error) {
	return e.ApplyTransition(ctx, TransitionRequest{WorkID: workID, Action: a, ActorID: actorID})
}

// Claim asks the poster to let workerID take the job.
func (e Engine) Claim(ctx context.Context, workID, workerID string) (TransitionResult, error) {
	return e.act(ctx, ActionClaim, workID, workerID)
}

func (e Engine) Grant(ctx context.Context, workID, posterID string) (TransitionResult, error) {
	return e.act(ctx, ActionGrant, workID, posterID)
}

func (e Engine) Reject(ctx context.Context, workID, posterID string) (TransitionResult, error) {
	return e.act(ctx, ActionReject, workID, posterID)
}

func (e Engine) MarkDone(ctx context.Context, workID, workerID string) (TransitionResult, error) {
	return e.act(ctx, ActionMarkDone, workID, workerID)
}

// Confirm completes the work; the result carries the rating prompt.
func (e Engine) Confirm(ctx context.Context, workID, posterID string) (TransitionResult, error) {
	return e.act(ctx, ActionConfirm, workID, posterID)
}

func (e Engine) Deny(ctx context.Context, workID, posterID string) (TransitionResult, error) {
	return e.act(ctx, ActionDeny, workID, posterID)
}

func (e Engine) Approve(ctx context.Context, workID, adminID string) (TransitionResult, error) {
	return e.act(ctx, ActionApprove, workID, adminID)
}

func (e Engine) Decline(ctx context.Context, workID, adminID string) (TransitionResult, error) {
	return e.act(ctx, ActionDecline, workID, adminID)
}
