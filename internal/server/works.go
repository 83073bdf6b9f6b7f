package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"loklagbe/internal/domain"
	"loklagbe/internal/engine"
)

type workPath struct {
	ID string `path:"id"`
}

func registerWorks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "post-work",
		Method:        http.MethodPost,
		Path:          "/works",
		Summary:       "Post a work",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body PostWorkRequest `json:"body"`
	}) (*struct {
		Body domain.WorkPosting `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		w, err := e.PostWork(ctx, engine.PostWorkOptions{
			UserID:      actorID,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Category:    input.Body.Category,
			Price:       input.Body.Price,
			Location:    input.Body.Location,
			StartAt:     input.Body.StartAt,
			EndAt:       input.Body.EndAt,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkPosting `json:"body"`
		}{Body: w}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-works",
		Method:      http.MethodGet,
		Path:        "/works",
		Summary:     "List postings, newest first",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Category        string `query:"category"`
		Status          string `query:"status"`
		Location        string `query:"location"`
		Poster          string `query:"poster"`
		WithPosterNames bool   `query:"with_poster_names"`
		Limit           int    `query:"limit" default:"50"`
		Cursor          string `query:"cursor"`
	}) (*struct {
		Body paginatedWorks `json:"body"`
	}, error) {
		limit := normalizeLimit(input.Limit)
		ts, id, err := parseCompositeCursor(input.Cursor)
		if err != nil {
			return nil, badCursor(input.Cursor)
		}
		items, err := e.ListWorks(ctx, engine.WorkQuery{
			Category:        input.Category,
			Status:          input.Status,
			Location:        input.Location,
			PosterID:        input.Poster,
			Limit:           limit + 1,
			CursorCreatedAt: ts,
			CursorID:        id,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedWorks{}
		if len(items) > limit {
			items = items[:limit]
			last := items[len(items)-1]
			resp.NextCursor = composeCursor(last.CreatedAt, last.ID)
		}
		var names map[string]string
		if input.WithPosterNames {
			names, err = e.ResolvePosterNames(ctx, items)
			if err != nil {
				return nil, handleError(err)
			}
		}
		resp.Items = workResponses(items, names)
		return &struct {
			Body paginatedWorks `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "work-locations",
		Method:      http.MethodGet,
		Path:        "/works/locations",
		Summary:     "Distinct locations of active postings",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []string `json:"body"`
	}, error) {
		locs, err := e.WorkLocations(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []string `json:"body"`
		}{Body: nonNilSlice(locs)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-work",
		Method:      http.MethodGet,
		Path:        "/works/{id}",
		Summary:     "Get a posting",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *workPath) (*struct {
		Body domain.WorkPosting `json:"body"`
	}, error) {
		w, err := e.GetWork(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkPosting `json:"body"`
		}{Body: w}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-work",
		Method:        http.MethodDelete,
		Path:          "/works/{id}",
		Summary:       "Delete an own posting",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *workPath) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteWork(ctx, input.ID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "work-transition",
		Method:      http.MethodPost,
		Path:        "/works/{id}/{action}",
		Summary:     "Apply a lifecycle action",
		Description: "Actions: claim, grant, reject, done, confirm, deny, approve, decline.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ID     string             `path:"id"`
		Action string             `path:"action"`
		Body   *TransitionRequest `json:"body,omitempty" required:"false"`
	}) (*struct {
		Body TransitionResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		action, err := engine.ParseAction(input.Action)
		if err != nil {
			return nil, handleError(err)
		}
		req := engine.TransitionRequest{WorkID: input.ID, Action: action, ActorID: actorID}
		if input.Body != nil {
			req.ExpectedVersion = input.Body.ExpectedVersion
		}
		res, err := e.ApplyTransition(ctx, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TransitionResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "my-works",
		Method:      http.MethodGet,
		Path:        "/me/works",
		Summary:     "Postings the caller posted or claimed",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Relation string `query:"relation" doc:"posted or accepted; empty for both"`
		Status   string `query:"status"`
	}) (*struct {
		Body []domain.WorkPosting `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.History(ctx, actorID, input.Relation, input.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.WorkPosting `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})
}
