package mutations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/eventbus"
	"github.com/hanpama/contentql/internal/events"
	"github.com/hanpama/contentql/internal/store/memory"
)

func newTestMutations(t *testing.T) (*Mutations, *memory.Store) {
	t.Helper()
	model := content.DefaultModel()
	store := memory.New(model)
	require.NoError(t, store.LoadSeed(memory.DefaultSeed()))
	return New(store, model, eventbus.New()), store
}

func TestSaveCreatesEntry(t *testing.T) {
	m, _ := newTestMutations(t)
	got, err := m.Save(element.KindEntry)(context.Background(), nil, map[string]any{
		"section": "news",
		"title":   "Hello Again",
		"enabled": true,
		"summary": "Short.",
		"topics":  []any{"21"},
	}, nil)
	require.NoError(t, err)
	el := got.(*element.Element)
	require.NotZero(t, el.ID)
	require.Equal(t, int64(1), el.SectionID)
	require.Equal(t, int64(1), el.SiteID)
	require.Equal(t, "hello-again", el.Slug)
	require.Equal(t, []int64{21}, el.RelationIDs("topics"))
	summary, _ := el.FieldValue("summary")
	require.Equal(t, "Short.", summary)
}

func TestSaveUpdatesByUID(t *testing.T) {
	m, store := newTestMutations(t)
	ctx := context.Background()
	existing, err := store.ElementByID(ctx, 31, 0)
	require.NoError(t, err)

	got, err := m.Save(element.KindEntry)(ctx, nil, map[string]any{
		"uid":   existing.UID,
		"id":    "99",
		"title": "Meet Everyone",
	}, nil)
	require.Error(t, err)
	require.Nil(t, got)

	got, err = m.Save(element.KindEntry)(ctx, nil, map[string]any{
		"uid":   existing.UID,
		"title": "Meet Everyone",
	}, nil)
	require.NoError(t, err)
	el := got.(*element.Element)
	require.Equal(t, int64(31), el.ID)
	require.Equal(t, "Meet Everyone", el.Title)
}

func TestSaveLoadErrors(t *testing.T) {
	m, _ := newTestMutations(t)
	ctx := context.Background()
	tests := []struct {
		name string
		kind element.Kind
		args map[string]any
		want string
	}{
		{"missing section", element.KindEntry, map[string]any{"title": "x"}, "a new entry needs a section or sectionId"},
		{"unknown section", element.KindEntry, map[string]any{"section": "blog"}, `invalid section "blog"`},
		{"missing group", element.KindCategory, map[string]any{"title": "x"}, "a new category needs a group or groupId"},
		{"wrong kind", element.KindCategory, map[string]any{"id": "30"}, "no category with id 30"},
		{"unknown uid", element.KindEntry, map[string]any{"uid": "nope"}, `no entry with uid "nope"`},
		{"unknown site", element.KindEntry, map[string]any{"site": "fr", "section": "news"}, `invalid site handle "fr"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Save(tt.kind)(ctx, nil, tt.args, nil)
			require.EqualError(t, err, tt.want)
			require.Nil(t, got)
		})
	}
}

func TestSavePublishesMutationEvents(t *testing.T) {
	m, _ := newTestMutations(t)
	bus := eventbus.New()
	eventbus.Use(bus)
	t.Cleanup(func() { eventbus.Use(nil) })

	var starts []events.MutationStart
	var finishes []events.MutationFinish
	eventbus.On(bus, func(_ context.Context, e events.MutationStart) { starts = append(starts, e) })
	eventbus.On(bus, func(_ context.Context, e events.MutationFinish) { finishes = append(finishes, e) })

	_, err := m.Save(element.KindCategory)(context.Background(), nil, map[string]any{
		"group": "topics", "title": "Rust", "enabled": true,
	}, nil)
	require.NoError(t, err)
	_, err = m.Save(element.KindCategory)(context.Background(), nil, map[string]any{"title": "x"}, nil)
	require.Error(t, err)

	require.Len(t, starts, 2)
	require.Len(t, finishes, 2)
	require.NotZero(t, finishes[0].ElementID)
	require.NoError(t, finishes[0].Err)
	require.Error(t, finishes[1].Err)
}

func TestDelete(t *testing.T) {
	m, store := newTestMutations(t)
	ctx := context.Background()

	ok, err := m.Delete(element.KindCategory)(ctx, nil, map[string]any{"id": "20"}, nil)
	require.NoError(t, err)
	require.Equal(t, true, ok)

	// descendants go with the deleted category
	child, err := store.ElementByID(ctx, 21, 0)
	require.NoError(t, err)
	require.Nil(t, child)

	ok, err = m.Delete(element.KindEntry)(ctx, nil, map[string]any{"id": "20"}, nil)
	require.NoError(t, err)
	require.Equal(t, false, ok)
}
