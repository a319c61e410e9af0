package memory

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := New(content.DefaultModel())
	require.NoError(t, s.LoadSeed(DefaultSeed()))
	return s
}

func queryIDs(t *testing.T, s *Store, kind element.Kind, criteria map[string]any) []int64 {
	t.Helper()
	q := s.NewQuery(kind)
	require.NoError(t, q.Configure(criteria))
	ids, err := q.IDs(context.Background())
	require.NoError(t, err)
	return ids
}

func elementIDs(els []*element.Element) []int64 {
	out := make([]int64, len(els))
	for i, el := range els {
		out[i] = el.ID
	}
	return out
}

func TestQueryDefaultsToLiveElements(t *testing.T) {
	s := seededStore(t)

	require.Equal(t, []int64{30, 31, 40, 41, 42}, queryIDs(t, s, element.KindEntry, nil))
	require.Equal(t, []int64{30, 31, 32, 40, 41, 42}, queryIDs(t, s, element.KindEntry, map[string]any{"status": nil}))
	require.Equal(t, []int64{32}, queryIDs(t, s, element.KindEntry, map[string]any{"status": "disabled"}))
}

func TestQueryCriteria(t *testing.T) {
	s := seededStore(t)
	tests := []struct {
		name     string
		kind     element.Kind
		criteria map[string]any
		want     []int64
	}{
		{"section handle", element.KindEntry, map[string]any{"section": "news"}, []int64{30, 31}},
		{"section list", element.KindEntry, map[string]any{"section": []any{"news", "pages"}, "limit": 3}, []int64{30, 31, 40}},
		{"unknown section", element.KindEntry, map[string]any{"section": "blog"}, nil},
		{"ids", element.KindEntry, map[string]any{"id": []any{31, 30}}, []int64{30, 31}},
		{"fixed order", element.KindEntry, map[string]any{"id": []any{42, 30}, "fixedOrder": true}, []int64{42, 30}},
		{"empty id list", element.KindEntry, map[string]any{"id": []any{}}, nil},
		{"slug", element.KindEntry, map[string]any{"slug": "meet-the-team"}, []int64{31}},
		{"title case-insensitive", element.KindCategory, map[string]any{"title": "go"}, []int64{21}},
		{"search", element.KindEntry, map[string]any{"search": "release"}, []int64{30, 41}},
		{"custom field", element.KindEntry, map[string]any{"featured": true}, []int64{30}},
		{"order by title desc", element.KindEntry, map[string]any{"section": "news", "orderBy": "title desc"}, []int64{30, 31}},
		{"order by postDate desc", element.KindEntry, map[string]any{"section": "news", "orderBy": "postDate desc"}, []int64{31, 30}},
		{"offset", element.KindEntry, map[string]any{"offset": 3}, []int64{41, 42}},
		{"level", element.KindEntry, map[string]any{"section": "pages", "level": 2}, []int64{41}},
		{"descendant", element.KindCategory, map[string]any{"descendantOf": 20}, []int64{21}},
		{"site wildcard", element.KindUser, map[string]any{"site": "*"}, []int64{1, 2}},
		{"other site", element.KindUser, map[string]any{"site": "de"}, nil},
		{"site id", element.KindAsset, map[string]any{"siteId": []any{int64(1)}}, []int64{10, 11}},
		{"group", element.KindCategory, map[string]any{"group": "topics"}, []int64{20, 21, 22}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := queryIDs(t, s, tt.kind, tt.criteria)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestQueryRejectsUnknownCriteria(t *testing.T) {
	s := seededStore(t)
	err := s.NewQuery(element.KindEntry).Configure(map[string]any{"colour": "red"})
	require.EqualError(t, err, `criteria colour: unknown criteria "colour"`)
}

func TestRelatedTo(t *testing.T) {
	s := seededStore(t)
	tests := []struct {
		name      string
		kind      element.Kind
		relatedTo any
		want      []int64
	}{
		{"target category", element.KindEntry, []any{"and", map[string]any{"element": []int64{21}}}, []int64{30}},
		{"source entries", element.KindEntry, map[string]any{"element": 30}, []int64{31, 41}},
		{"targets of an entry", element.KindUser, map[string]any{"sourceElement": 30}, []int64{1, 2}},
		{"field restricted", element.KindEntry, map[string]any{"targetElement": 10, "field": "featuredImage"}, []int64{30}},
		{"or of ids", element.KindEntry, []any{"or", 21, 22}, []int64{30, 31}},
		{"and of criteria", element.KindEntry, []any{"and", map[string]any{"element": []int64{1}}, map[string]any{"element": []int64{2}}}, []int64{30}},
		{"nested tree", element.KindEntry, []any{"and", []any{"or", map[string]any{"element": 22}, map[string]any{"element": 21}}}, []int64{30, 31}},
		{"only operator", element.KindEntry, []any{"and"}, []int64{30, 31, 40, 41, 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := queryIDs(t, s, tt.kind, map[string]any{"relatedTo": tt.relatedTo})
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRelatedToNoElementMatchesNothing(t *testing.T) {
	s := seededStore(t)
	for _, kind := range []element.Kind{element.KindEntry, element.KindAsset, element.KindCategory, element.KindUser} {
		got := queryIDs(t, s, kind, map[string]any{
			"status":    nil,
			"site":      "*",
			"relatedTo": []any{"and", map[string]any{"element": []int64{content.NoElementID}}},
		})
		require.Empty(t, got, kind)
	}
}

func TestEagerLoading(t *testing.T) {
	s := seededStore(t)
	q := s.NewQuery(element.KindEntry)
	require.NoError(t, q.Configure(map[string]any{"section": "news"}))
	q.With([]content.EagerLoadPlan{
		{Field: "topics"},
		{Field: "contributors", Alias: "lead", Criteria: map[string]any{"limit": 1}},
		{Field: "relatedArticles", Nested: []content.EagerLoadPlan{{Field: "topics"}}},
		{Field: "summary"},
	})

	els, err := q.All(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{30, 31}, elementIDs(els))

	topics, ok := els[0].EagerLoaded("topics")
	require.True(t, ok)
	require.Equal(t, []int64{21}, elementIDs(topics))

	lead, ok := els[0].EagerLoaded("lead")
	require.True(t, ok)
	require.Equal(t, []int64{1}, elementIDs(lead))
	_, ok = els[0].EagerLoaded("contributors")
	require.False(t, ok)

	related, ok := els[0].EagerLoaded("relatedArticles")
	require.True(t, ok)
	require.Empty(t, related)

	related, _ = els[1].EagerLoaded("relatedArticles")
	require.Equal(t, []int64{30}, elementIDs(related))
	nested, ok := related[0].EagerLoaded("topics")
	require.True(t, ok)
	require.Equal(t, []int64{21}, elementIDs(nested))

	_, ok = els[0].EagerLoaded("summary")
	require.False(t, ok)
}

func TestEagerLoadingStaysOnSourceSite(t *testing.T) {
	s := seededStore(t)
	require.NoError(t, s.LoadSeed([]byte(`
elements:
  - {id: 60, kind: category, site: de, group: topics, title: Kultur}
  - {id: 61, kind: entry, site: de, section: news, title: Hallo, fields: {topics: [60, 21]}}
`)))
	q := s.NewQuery(element.KindEntry)
	require.NoError(t, q.Configure(map[string]any{"section": "news", "site": "*"}))
	q.With([]content.EagerLoadPlan{{Field: "topics"}})

	els, err := q.All(context.Background())
	require.NoError(t, err)
	got := map[int64][]int64{}
	for _, el := range els {
		topics, ok := el.EagerLoaded("topics")
		require.True(t, ok)
		got[el.ID] = elementIDs(topics)
	}
	want := map[int64][]int64{30: {21}, 31: {22}, 61: {60}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("eager topics mismatch (-want +got):\n%s", diff)
	}
}

func TestOneAndCount(t *testing.T) {
	s := seededStore(t)
	q := s.NewQuery(element.KindEntry)
	require.NoError(t, q.Configure(map[string]any{"section": "pages"}))

	n, err := q.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)

	el, err := q.One(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(40), el.ID)

	none := s.NewQuery(element.KindEntry)
	require.NoError(t, none.Configure(map[string]any{"slug": "missing"}))
	el, err = none.One(context.Background())
	require.NoError(t, err)
	require.Nil(t, el)
}

func TestFinder(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	el, err := s.ElementByID(ctx, 30, 0)
	require.NoError(t, err)
	require.Equal(t, "We Launched", el.Title)
	require.Equal(t, "/news/we-launched", el.URL)

	el, err = s.ElementByID(ctx, 30, 2)
	require.NoError(t, err)
	require.Nil(t, el)

	byUID, err := s.ElementByUID(ctx, s.get(31).UID, 1)
	require.NoError(t, err)
	require.Equal(t, int64(31), byUID.ID)

	// Returned elements are copies.
	el, _ = s.ElementByID(ctx, 30, 0)
	el.Title = "changed"
	require.Equal(t, "We Launched", s.get(30).Title)
}

func TestSaveValidatesLiveScenario(t *testing.T) {
	s := seededStore(t)
	el := element.New(element.KindEntry)
	el.SectionID = 1
	el.SetScenario(element.ScenarioLive)

	ok, err := s.Save(context.Background(), el)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []string{"Title cannot be blank.", "Slug cannot be blank."}, el.FirstErrors())
	require.Zero(t, el.ID)

	el.Title = "We Launched"
	ok, err = s.Save(context.Background(), el)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []string{`Slug "we-launched" has already been taken.`}, el.FirstErrors())

	draft := element.New(element.KindEntry)
	draft.SectionID = 1
	ok, err = s.Save(context.Background(), draft)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(43), draft.ID)
	require.NotEmpty(t, draft.UID)
}

func TestSaveRequiresKnownSection(t *testing.T) {
	s := seededStore(t)
	el := element.New(element.KindEntry)
	el.SectionID = 99

	ok, err := s.Save(context.Background(), el)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []string{"Section is invalid."}, el.FirstErrors())
}

func TestSaveUpdatesExisting(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	el, err := s.ElementByID(ctx, 31, 0)
	require.NoError(t, err)
	created := el.DateCreated

	el.Title = "Meet Everyone"
	el.Slug = "meet-everyone"
	ok, err := s.Save(ctx, el)
	require.NoError(t, err)
	require.True(t, ok)

	stored, _ := s.ElementByID(ctx, 31, 0)
	require.Equal(t, "Meet Everyone", stored.Title)
	require.Equal(t, "/news/meet-everyone", stored.URL)
	require.Equal(t, created, stored.DateCreated)

	missing := element.New(element.KindEntry)
	missing.ID = 999
	_, err = s.Save(ctx, missing)
	require.EqualError(t, err, "element 999 not found")
}

func TestDeleteRemovesDescendants(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	el, _ := s.ElementByID(ctx, 40, 0)

	require.NoError(t, s.Delete(ctx, el))
	require.Equal(t, []int64{42}, queryIDs(t, s, element.KindEntry, map[string]any{"section": "pages"}))
	gone, _ := s.ElementByID(ctx, 41, 0)
	require.Nil(t, gone)
}
