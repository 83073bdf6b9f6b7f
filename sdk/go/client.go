package loklagbesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a small Lok Lagbe HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	// ActorID is sent as X-Actor-Id when no credentials are set. Servers
	// accept it only with LOKLAGBE_ALLOW_ACTOR_HEADER.
	ActorID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client for a server root such as http://127.0.0.1:8080/v0.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, Timeout: 10 * time.Second}
}

// Work is a posting (partial).
type Work struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Price      int64  `json:"price"`
	Location   string `json:"location"`
	Status     string `json:"status"`
	AcceptedBy string `json:"accepted_by,omitempty"`
	Version    int64  `json:"version"`
	CreatedAt  string `json:"created_at"`
	PosterName string `json:"poster_name,omitempty"`
}

// NewWork is the body of PostWork.
type NewWork struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Location    string `json:"location"`
	StartAt     string `json:"start_at,omitempty"`
	EndAt       string `json:"end_at,omitempty"`
}

type Notification struct {
	ID         string `json:"id"`
	ToUserID   string `json:"to_user_id"`
	FromUserID string `json:"from_user_id"`
	WorkID     string `json:"work_id"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	Read       bool   `json:"read"`
	CreatedAt  string `json:"created_at"`
}

type Profile struct {
	ID          string  `json:"id"`
	FullName    string  `json:"full_name"`
	Verified    bool    `json:"verified"`
	Role        string  `json:"role"`
	Rating      float64 `json:"rating"`
	RatingCount int64   `json:"rating_count"`
}

// TransitionResult is returned by Act.
type TransitionResult struct {
	Work         Work          `json:"work"`
	From         string        `json:"from"`
	Notification *Notification `json:"notification,omitempty"`
	RatingPrompt *struct {
		WorkID      string `json:"work_id"`
		RatedUserID string `json:"rated_user_id"`
	} `json:"rating_prompt,omitempty"`
}

type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// Page is a cursor-paginated listing.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor"`
}

// WorkFilter selects postings in ListWorks.
type WorkFilter struct {
	Category        string
	Status          string
	Location        string
	Poster          string
	WithPosterNames bool
	Limit           int
	Cursor          string
}

// APIError wraps non-2xx responses. Code is the envelope code when the body
// carried one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

func (c *Client) PostWork(ctx context.Context, w NewWork) (Work, error) {
	var resp Work
	err := c.do(ctx, http.MethodPost, "works", w, &resp)
	return resp, err
}

func (c *Client) GetWork(ctx context.Context, id string) (Work, error) {
	var resp Work
	err := c.do(ctx, http.MethodGet, "works/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

func (c *Client) ListWorks(ctx context.Context, f WorkFilter) (Page[Work], error) {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("category", f.Category)
	set("status", f.Status)
	set("location", f.Location)
	set("poster", f.Poster)
	set("cursor", f.Cursor)
	if f.WithPosterNames {
		q.Set("with_poster_names", "true")
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var resp Page[Work]
	err := c.do(ctx, http.MethodGet, withQuery("works", q), nil, &resp)
	return resp, err
}

// Act applies a lifecycle action (claim, grant, reject, done, confirm, deny,
// approve, decline). expectedVersion 0 skips the version check.
func (c *Client) Act(ctx context.Context, workID, action string, expectedVersion int64) (TransitionResult, error) {
	var body any
	if expectedVersion > 0 {
		body = map[string]any{"expected_version": expectedVersion}
	}
	var resp TransitionResult
	err := c.do(ctx, http.MethodPost, "works/"+url.PathEscape(workID)+"/"+url.PathEscape(action), body, &resp)
	return resp, err
}

func (c *Client) Notifications(ctx context.Context, unreadOnly bool, limit int, cursor string) (Page[Notification], error) {
	q := url.Values{}
	if unreadOnly {
		q.Set("unread", "true")
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var resp Page[Notification]
	err := c.do(ctx, http.MethodGet, withQuery("me/notifications", q), nil, &resp)
	return resp, err
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		Unread int `json:"unread"`
	}
	err := c.do(ctx, http.MethodGet, "me/notifications/unread-count", nil, &resp)
	return resp.Unread, err
}

func (c *Client) MarkRead(ctx context.Context, id string) (Notification, error) {
	var resp Notification
	err := c.do(ctx, http.MethodPost, "notifications/"+url.PathEscape(id)+"/read", nil, &resp)
	return resp, err
}

// Rate scores userID, optionally for a completed work, and returns the
// rated user's updated profile.
func (c *Client) Rate(ctx context.Context, userID string, score int, workID, comment string) (Profile, error) {
	var resp struct {
		Profile Profile `json:"profile"`
	}
	body := map[string]any{"rating": score, "work_id": workID, "comment": comment}
	err := c.do(ctx, http.MethodPost, "users/"+url.PathEscape(userID)+"/reviews", body, &resp)
	return resp.Profile, err
}

// EventsPage returns a page of the event log, newest first. Admin only.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (Page[Event], error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var resp Page[Event]
	err := c.do(ctx, http.MethodGet, withQuery("events", q), nil, &resp)
	return resp, err
}

func withQuery(p string, q url.Values) string {
	if len(q) == 0 {
		return p
	}
	return p + "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	case c.ActorID != "":
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		return apiErr
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
