package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"loklagbe/internal/config"
	"loklagbe/internal/domain"
	"loklagbe/internal/engine/auth"
	"loklagbe/internal/events"
	"loklagbe/internal/notify"
	"loklagbe/internal/repo"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrStaleWrite        = errors.New("stale write")
	ErrNotVerified       = errors.New("profile not verified")
	ErrInvalidRating     = errors.New("invalid rating")
	ErrSelfRating        = errors.New("cannot rate yourself")
	ErrAlreadyRated      = errors.New("already rated")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyExists     = errors.New("already exists")
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Auth   auth.Service
	Config *config.Config
	Hub    *notify.Hub
	Logger *zap.Logger
	Tracer trace.Tracer
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	r := repo.Repo{DB: db}
	return Engine{
		DB:     db,
		Repo:   r,
		Events: events.Writer{},
		Auth:   auth.Service{Repo: r},
		Config: cfg,
		Hub:    notify.NewHub(0, nil),
		Logger: zap.NewNop(),
		Tracer: otel.Tracer("loklagbe/internal/engine"),
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) stamp() string {
	return domain.FormatTime(e.now())
}

func (e Engine) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e Engine) tracer() trace.Tracer {
	if e.Tracer == nil {
		return otel.Tracer("loklagbe/internal/engine")
	}
	return e.Tracer
}

func (e Engine) config() (*config.Config, error) {
	if e.Config == nil {
		return nil, errors.New("config not loaded")
	}
	return e.Config, nil
}

// appendEvent writes to the event log using the engine clock.
func (e Engine) appendEvent(ctx context.Context, tx *sql.Tx, evtType, entityKind, entityID, actorID string, payload events.EventPayload) error {
	w := e.Events
	if w.Now == nil {
		w.Now = e.now
	}
	return w.Append(ctx, tx, evtType, entityKind, entityID, actorID, payload)
}

// publish hands committed notifications to live subscribers.
func (e Engine) publish(notes ...domain.Notification) {
	if e.Hub == nil {
		return
	}
	for _, n := range notes {
		e.Hub.Publish(n)
	}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func requireActor(actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return invalidInput("actor_id required")
	}
	return nil
}
