package engine

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"loklagbe/internal/domain"
)

// Filter narrows a list of postings. Empty fields match everything.
type Filter struct {
	Category string
	Location string
}

// foldKey builds a fresh Caser per call; a Caser holds state and must not be
// shared between goroutines.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// FilterWorks keeps the postings whose category equals f.Category and whose
// location matches f.Location ignoring case. Order is preserved and the input
// is not modified, so applying the same filter twice gives the same list.
func FilterWorks(works []domain.WorkPosting, f Filter) []domain.WorkPosting {
	loc := foldKey(f.Location)
	out := make([]domain.WorkPosting, 0, len(works))
	for _, w := range works {
		if f.Category != "" && w.Category != f.Category {
			continue
		}
		if loc != "" && foldKey(w.Location) != loc {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Locations returns each distinct location once, in first-seen spelling and
// order. Locations differing only in case count as one.
func Locations(works []domain.WorkPosting) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range works {
		k := foldKey(w.Location)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, strings.TrimSpace(w.Location))
	}
	return out
}

// ParseCategory resolves a display name or slug against the configured catalog.
func (e Engine) ParseCategory(in string) (string, error) {
	cfg, err := e.config()
	if err != nil {
		return "", err
	}
	name, ok := cfg.LookupCategory(in)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, in)
	}
	return name, nil
}

// Categories returns the catalog names.
func (e Engine) Categories() []string {
	if e.Config == nil {
		return nil
	}
	return e.Config.CategoryNames()
}
