package engine

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"loklagbe/internal/domain"
	"loklagbe/internal/repo"
)

const (
	nameLookupLimit = 8
	unknownPoster   = "Unknown"
)

// ResolvePosterNames looks up the display name of every distinct poster in
// works concurrently. Posters without a profile map to "Unknown"; any other
// lookup failure cancels the rest and is returned.
func (e Engine) ResolvePosterNames(ctx context.Context, works []domain.WorkPosting) (map[string]string, error) {
	names := make(map[string]string, len(works))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(nameLookupLimit)
	seen := map[string]bool{}
	for _, w := range works {
		id := w.UserID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		g.Go(func() error {
			name, err := e.Repo.UserName(ctx, id)
			if errors.Is(err, repo.ErrNotFound) {
				name, err = unknownPoster, nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			names[id] = name
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}
