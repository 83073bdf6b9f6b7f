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

// RatingSummary is the stored aggregate of a user's scores. Keeping the
// integer total makes the average independent of submission order.
type RatingSummary struct {
	Total int64
	Count int64
}

func (r RatingSummary) Add(score int) RatingSummary {
	return RatingSummary{Total: r.Total + int64(score), Count: r.Count + 1}
}

func (r RatingSummary) Average() float64 {
	return domain.AverageRating(r.Total, r.Count)
}

// ReviewInput is one score given by ReviewerID to RatedUserID.
type ReviewInput struct {
	ReviewerID  string
	RatedUserID string
	WorkID      string
	Score       int
	Comment     string
}

// SubmitReview stores a review and folds its score into the rated user's
// aggregate. With a WorkID, the work must be completed and the two users must
// be its poster and worker.
func (e Engine) SubmitReview(ctx context.Context, in ReviewInput) (rv domain.Review, profile domain.UserProfile, err error) {
	ctx, span := e.tracer().Start(ctx, "engine.rating", trace.WithAttributes(
		attribute.String("user.rated", in.RatedUserID),
		attribute.String("actor.id", in.ReviewerID),
		attribute.Int("rating.score", in.Score),
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
		return rv, profile, err
	}
	if err := requireActor(in.ReviewerID); err != nil {
		return rv, profile, err
	}
	if in.Score < cfg.Rating.Min || in.Score > cfg.Rating.Max {
		return rv, profile, fmt.Errorf("%w: score must be between %d and %d", ErrInvalidRating, cfg.Rating.Min, cfg.Rating.Max)
	}
	if in.ReviewerID == in.RatedUserID {
		return rv, profile, ErrSelfRating
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return rv, profile, err
	}
	defer tx.Rollback()

	profile, err = e.Repo.GetUserTx(ctx, tx, in.RatedUserID)
	if err != nil {
		return rv, profile, err
	}
	if in.WorkID != "" {
		w, err := e.Repo.GetWorkTx(ctx, tx, in.WorkID)
		if err != nil {
			return rv, profile, err
		}
		if w.Status != domain.StatusCompleted {
			return rv, profile, fmt.Errorf("%w: work %s is %s, not completed", ErrInvalidRating, w.ID, w.Status)
		}
		pair := (in.ReviewerID == w.UserID && in.RatedUserID == w.Worker()) ||
			(in.ReviewerID == w.Worker() && in.RatedUserID == w.UserID)
		if !pair {
			return rv, profile, auth.ForbiddenError{Action: "rate"}
		}
		rated, err := e.Repo.HasReviewTx(ctx, tx, in.WorkID, in.ReviewerID)
		if err != nil {
			return rv, profile, err
		}
		if rated {
			return rv, profile, ErrAlreadyRated
		}
	}

	now := e.stamp()
	rv = domain.Review{
		ID:          uuid.NewString(),
		RatedUserID: in.RatedUserID,
		ReviewerID:  in.ReviewerID,
		WorkID:      in.WorkID,
		Rating:      in.Score,
		Comment:     strings.TrimSpace(in.Comment),
		CreatedAt:   now,
	}
	if err := e.Repo.InsertReviewTx(ctx, tx, rv); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return rv, profile, ErrAlreadyRated
		}
		return rv, profile, fmt.Errorf("insert review: %w", err)
	}
	if err := e.Repo.AddRating(ctx, tx, in.RatedUserID, in.Score, now); err != nil {
		return rv, profile, err
	}
	if err := e.appendEvent(ctx, tx, events.ReviewSubmitted, "user", in.RatedUserID, in.ReviewerID, events.EventPayload{
		"review_id": rv.ID, "work_id": in.WorkID, "rating": in.Score,
	}); err != nil {
		return rv, profile, err
	}
	if err := tx.Commit(); err != nil {
		return rv, profile, err
	}

	next := RatingSummary{Total: profile.RatingTotal, Count: profile.RatingCount}.Add(in.Score)
	profile.RatingTotal, profile.RatingCount = next.Total, next.Count
	profile.Rating = next.Average()
	profile.UpdatedAt = now
	e.log().Info("review submitted",
		zap.String("rated", in.RatedUserID),
		zap.String("reviewer", in.ReviewerID),
		zap.Int("score", in.Score),
		zap.Float64("average", profile.Rating))
	return rv, profile, nil
}

// Reviews lists the reviews a user received.
func (e Engine) Reviews(ctx context.Context, userID string) ([]domain.Review, error) {
	if _, err := e.Repo.GetUser(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, err)
		}
		return nil, err
	}
	return e.Repo.ListReviewsFor(ctx, userID)
}
