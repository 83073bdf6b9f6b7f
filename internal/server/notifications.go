package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"go.uber.org/zap"

	"loklagbe/internal/domain"
	"loklagbe/internal/engine"
)

const defaultStreamKeepalive = 25 * time.Second

// keepaliveEvent is sent on idle streams so proxies keep the connection open.
type keepaliveEvent struct {
	TS string `json:"ts" format:"date-time"`
}

type notificationPath struct {
	ID string `path:"id"`
}

func registerNotifications(api huma.API, e engine.Engine, keepalive time.Duration, logger *zap.Logger) {
	if keepalive <= 0 {
		keepalive = defaultStreamKeepalive
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/me/notifications",
		Summary:     "Caller's notifications, newest first",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Unread bool   `query:"unread"`
		Limit  int    `query:"limit" default:"50"`
		Cursor string `query:"cursor"`
	}) (*struct {
		Body paginatedNotifications `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		limit := normalizeLimit(input.Limit)
		ts, id, err := parseCompositeCursor(input.Cursor)
		if err != nil {
			return nil, badCursor(input.Cursor)
		}
		items, err := e.ListNotifications(ctx, engine.NotificationQuery{
			UserID:          actorID,
			UnreadOnly:      input.Unread,
			Limit:           limit + 1,
			CursorCreatedAt: ts,
			CursorID:        id,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedNotifications{}
		if len(items) > limit {
			items = items[:limit]
			last := items[len(items)-1]
			resp.NextCursor = composeCursor(last.CreatedAt, last.ID)
		}
		resp.Items = nonNilSlice(items)
		return &struct {
			Body paginatedNotifications `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unread-count",
		Method:      http.MethodGet,
		Path:        "/me/notifications/unread-count",
		Summary:     "Unread badge count",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body UnreadCountResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		n, err := e.UnreadCount(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UnreadCountResponse `json:"body"`
		}{Body: UnreadCountResponse{Unread: n}}, nil
	})

	stream := notificationStream{engine: e, keepalive: keepalive, logger: logger}
	sse.Register(api, huma.Operation{
		OperationID: "notification-stream",
		Method:      http.MethodGet,
		Path:        "/me/notifications/stream",
		Summary:     "Live notifications for the caller",
	}, map[string]any{
		"notification": domain.Notification{},
		"keepalive":    keepaliveEvent{},
		"error":        apiErrorBody{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		stream.serve(ctx, send)
	})

	huma.Register(api, huma.Operation{
		OperationID: "notification-detail",
		Method:      http.MethodGet,
		Path:        "/notifications/{id}",
		Summary:     "Open a notification",
		Description: "Returns the routed view, the posting as it is now and the actions the caller can take.",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *notificationPath) (*struct {
		Body engine.NotificationDetail `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		d, err := e.NotificationDetail(ctx, actorID, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.NotificationDetail `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-notification-read",
		Method:      http.MethodPost,
		Path:        "/notifications/{id}/read",
		Summary:     "Mark a notification read",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *notificationPath) (*struct {
		Body domain.Notification `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		n, err := e.MarkRead(ctx, actorID, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Notification `json:"body"`
		}{Body: n}, nil
	})
}

type notificationStream struct {
	engine    engine.Engine
	keepalive time.Duration
	logger    *zap.Logger
}

// serve relays the caller's notifications until ctx ends. Failures that stop
// the stream before it starts are logged and sent as a final error event.
func (s notificationStream) serve(ctx context.Context, send sse.Sender) {
	actorID, authErr := actorIDFromContext(ctx)
	if authErr != nil {
		s.logger.Warn("notification stream without principal", zap.Error(authErr))
		_ = send.Data(apiErrorBody{Code: "unauthorized", Message: authErr.Error()})
		return
	}
	if s.engine.Hub == nil {
		s.logger.Error("notification stream unavailable: no hub", zap.String("actor", actorID))
		_ = send.Data(apiErrorBody{Code: "unavailable", Message: "live notifications are not enabled"})
		return
	}
	ch, cancel := s.engine.Hub.Subscribe(ctx, actorID)
	defer cancel()
	// The first frame commits the response headers.
	if err := send.Data(keepaliveEvent{TS: domain.FormatTime(time.Now())}); err != nil {
		return
	}
	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := send.Data(n); err != nil {
				s.logger.Debug("notification stream closed", zap.String("actor", actorID), zap.Error(err))
				return
			}
		case t := <-ticker.C:
			if err := send.Data(keepaliveEvent{TS: domain.FormatTime(t)}); err != nil {
				return
			}
		}
	}
}
