package domain

import "time"

// Status is the lifecycle state of a work posting.
type Status string

const (
	StatusPending       Status = "pending"
	StatusActive        Status = "active"
	StatusAcceptedSent  Status = "accepted_sent"
	StatusAccepted      Status = "accepted"
	StatusCompletedSent Status = "completed_sent"
	StatusCompleted     Status = "completed"
	StatusRejected      Status = "rejected"
)

var statuses = []Status{
	StatusPending,
	StatusActive,
	StatusAcceptedSent,
	StatusAccepted,
	StatusCompletedSent,
	StatusCompleted,
	StatusRejected,
}

// Statuses lists every known status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

// NotificationType discriminates notification detail views.
type NotificationType string

const (
	NotificationGeneral       NotificationType = "general"
	NotificationAccepted      NotificationType = "accepted"
	NotificationAcceptedSent  NotificationType = "accepted_sent"
	NotificationCompletedSent NotificationType = "completed_sent"
	NotificationCompleted     NotificationType = "completed"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Relation values for the user_works projection.
const (
	RelationPosted   = "posted"
	RelationAccepted = "accepted"
)

type WorkPosting struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       int64   `json:"price"`
	Location    string  `json:"location"`
	StartAt     string  `json:"start_at" format:"date-time"`
	EndAt       string  `json:"end_at" format:"date-time"`
	Status      Status  `json:"status"`
	AcceptedBy  *string `json:"accepted_by,omitempty"`
	AcceptedAt  *string `json:"accepted_at,omitempty" format:"date-time"`
	CompletedAt *string `json:"completed_at,omitempty" format:"date-time"`
	Version     int64   `json:"version"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
	UpdatedAt   string  `json:"updated_at" format:"date-time"`
}

// Worker returns the claiming user id or "".
func (w WorkPosting) Worker() string {
	if w.AcceptedBy == nil {
		return ""
	}
	return *w.AcceptedBy
}

type UserProfile struct {
	ID            string   `json:"id"`
	FullName      string   `json:"full_name"`
	Phone         string   `json:"phone,omitempty"`
	NationalID    string   `json:"national_id,omitempty"`
	Bio           string   `json:"bio,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Verified      bool     `json:"verified"`
	Role          Role     `json:"role"`
	Rating        float64  `json:"rating"`
	RatingTotal   int64    `json:"-"`
	RatingCount   int64    `json:"rating_count"`
	PostedWorks   []string `json:"posted_works"`
	AcceptedWorks []string `json:"accepted_works"`
	CreatedAt     string   `json:"created_at" format:"date-time"`
	UpdatedAt     string   `json:"updated_at" format:"date-time"`
}

// AverageRating is total/count, 0 when unrated.
func AverageRating(total, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

type Notification struct {
	ID         string           `json:"id"`
	ToUserID   string           `json:"to_user_id"`
	FromUserID string           `json:"from_user_id"`
	WorkID     string           `json:"work_id"`
	Type       NotificationType `json:"type"`
	Message    string           `json:"message"`
	Read       bool             `json:"read"`
	CreatedAt  string           `json:"created_at" format:"date-time"`
}

type Review struct {
	ID          string `json:"id"`
	RatedUserID string `json:"rated_user_id"`
	ReviewerID  string `json:"reviewer_id"`
	WorkID      string `json:"work_id,omitempty"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment,omitempty"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"-"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Stats are the admin dashboard aggregates.
type Stats struct {
	Users         int            `json:"users"`
	Works         int            `json:"works"`
	Active        int            `json:"active"`
	Pending       int            `json:"pending"`
	Completed     int            `json:"completed"`
	Notifications int            `json:"notifications"`
	ByStatus      map[string]int `json:"by_status,omitempty"`
}

// UserSummary is a user row with the number of postings they own.
type UserSummary struct {
	UserProfile
	PostCount int `json:"post_count"`
}

// TimeLayout is the fixed-width UTC layout used for stored timestamps so that
// lexical order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
