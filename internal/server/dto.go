package server

import (
	"encoding/json"

	"loklagbe/internal/domain"
	"loklagbe/internal/engine"
)

// Request payloads

type DevLoginRequest struct {
	ActorID string   `json:"actor_id"`
	Roles   []string `json:"roles,omitempty"`
}

type CreateProfileRequest struct {
	FullName   string `json:"full_name" minLength:"1"`
	Phone      string `json:"phone,omitempty"`
	NationalID string `json:"national_id,omitempty"`
	Bio        string `json:"bio,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

type UpdateProfileRequest struct {
	FullName   *string `json:"full_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	NationalID *string `json:"national_id,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	ImageURL   *string `json:"image_url,omitempty"`
}

type PostWorkRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Location    string `json:"location"`
	StartAt     string `json:"start_at,omitempty" doc:"RFC3339; defaults to now"`
	EndAt       string `json:"end_at,omitempty" doc:"RFC3339; defaults to start_at"`
}

type TransitionRequest struct {
	ExpectedVersion int64 `json:"expected_version,omitempty" doc:"Reject the action if the posting moved past this version"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	WorkID  string `json:"work_id,omitempty"`
	Comment string `json:"comment,omitempty"`
}

type VerificationRequest struct {
	Verified bool `json:"verified"`
}

type CreateAPIKeyRequest struct {
	Name string `json:"name,omitempty"`
}

// Responses

type DevLoginResponse struct {
	Token string `json:"token"`
}

type MeResponse struct {
	ActorID string              `json:"actor_id"`
	Source  string              `json:"source"`
	Roles   []string            `json:"roles"`
	Profile *domain.UserProfile `json:"profile,omitempty"`
}

// WorkResponse is a posting with its poster's display name when requested.
type WorkResponse struct {
	domain.WorkPosting
	PosterName string `json:"poster_name,omitempty"`
}

type paginatedWorks struct {
	Items      []WorkResponse `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type paginatedNotifications struct {
	Items      []domain.Notification `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type ReviewResponse struct {
	Review  domain.Review      `json:"review"`
	Profile domain.UserProfile `json:"profile"`
}

type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

type CreateAPIKeyResponse struct {
	Key    domain.APIKey `json:"key"`
	Secret string        `json:"secret" doc:"Shown once"`
}

// TransitionResponse mirrors engine.TransitionResult.
type TransitionResponse = engine.TransitionResult

// Conversion helpers

func workResponses(items []domain.WorkPosting, names map[string]string) []WorkResponse {
	out := make([]WorkResponse, 0, len(items))
	for _, w := range items {
		out = append(out, WorkResponse{WorkPosting: w, PosterName: names[w.UserID]})
	}
	return out
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func decodeJSONMap(raw string) map[string]any {
	out := map[string]any{}
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
