package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loklagbe/internal/domain"
	"loklagbe/internal/engine"
)

func sampleWorks() []domain.WorkPosting {
	return []domain.WorkPosting{
		{ID: "1", Category: "Plumbing", Location: "Dhaka"},
		{ID: "2", Category: "Cleaning", Location: "dhaka"},
		{ID: "3", Category: "Plumbing", Location: "Chittagong"},
		{ID: "4", Category: "Plumbing", Location: " DHAKA "},
		{ID: "5", Category: "AC Repair", Location: "Sylhet"},
	}
}

func ids(works []domain.WorkPosting) []string {
	out := []string{}
	for _, w := range works {
		out = append(out, w.ID)
	}
	return out
}

func TestFilterWorks(t *testing.T) {
	works := sampleWorks()
	cases := []struct {
		name string
		f    engine.Filter
		want []string
	}{
		{"empty filter keeps all", engine.Filter{}, []string{"1", "2", "3", "4", "5"}},
		{"category", engine.Filter{Category: "Plumbing"}, []string{"1", "3", "4"}},
		{"location ignores case", engine.Filter{Location: "dHaKa"}, []string{"1", "2", "4"}},
		{"both", engine.Filter{Category: "Plumbing", Location: "dhaka"}, []string{"1", "4"}},
		{"category is exact", engine.Filter{Category: "plumbing"}, []string{}},
		{"no match", engine.Filter{Location: "Khulna"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(engine.FilterWorks(works, tc.f)))
		})
	}
	assert.Equal(t, sampleWorks(), works, "input must not be modified")
}

func TestFilterWorksIsIdempotent(t *testing.T) {
	works := sampleWorks()
	for _, f := range []engine.Filter{
		{Category: "Plumbing"},
		{Location: "dhaka"},
		{Category: "Cleaning", Location: "DHAKA"},
	} {
		once := engine.FilterWorks(works, f)
		twice := engine.FilterWorks(once, f)
		assert.Equal(t, once, twice)
	}
}

func TestLocationsAreDistinct(t *testing.T) {
	assert.Equal(t, []string{"Dhaka", "Chittagong", "Sylhet"}, engine.Locations(sampleWorks()))
	assert.Empty(t, engine.Locations(nil))
}

func TestListWorksFilters(t *testing.T) {
	env := newTestEnv(t)
	a := env.post(t)
	b, err := env.Engine.PostWork(env.Ctx, engine.PostWorkOptions{
		UserID: posterID, Title: "Clean flat", Description: "Three rooms", Category: "cleaning", Price: 700, Location: "DHAKA",
	})
	require.NoError(t, err)
	c, err := env.Engine.PostWork(env.Ctx, engine.PostWorkOptions{
		UserID: posterID, Title: "Clean office", Description: "Open plan", Category: "Cleaning", Price: 900, Location: "Khulna",
	})
	require.NoError(t, err)

	got, err := env.Engine.ListWorks(env.Ctx, engine.WorkQuery{Category: "cleaning"})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, b.ID}, ids(got))

	got, err = env.Engine.ListWorks(env.Ctx, engine.WorkQuery{Location: "dhaka"})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, ids(got))

	got, err = env.Engine.ListWorks(env.Ctx, engine.WorkQuery{Location: "dhaka", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(got))

	_, err = env.Engine.ListWorks(env.Ctx, engine.WorkQuery{Category: "nope"})
	assert.ErrorIs(t, err, engine.ErrInvalidCategory)
	_, err = env.Engine.ListWorks(env.Ctx, engine.WorkQuery{Status: "archived"})
	assert.ErrorIs(t, err, engine.ErrInvalidInput)

	locs, err := env.Engine.WorkLocations(env.Ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Khulna", "DHAKA"}, locs)
}

func TestParseCategory(t *testing.T) {
	env := newTestEnv(t)
	for in, want := range map[string]string{
		"AC Repair":       "AC Repair",
		"ac repair":       "AC Repair",
		"ac-repair":       "AC Repair",
		"event-planning":  "Event Planning",
		"  Other ":        "Other",
		"computer-repair": "Computer Repair",
	} {
		got, err := env.Engine.ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := env.Engine.ParseCategory("")
	assert.ErrorIs(t, err, engine.ErrInvalidCategory)
	assert.Len(t, env.Engine.Categories(), 21)
}
