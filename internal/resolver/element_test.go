package resolver

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/executor"
	"github.com/hanpama/contentql/internal/language"
	"github.com/hanpama/contentql/internal/schema"
)

const elementSDL = `
type Entry {
  id: ID
  title: String
  author: User
  topics(group: String): [Category]
  relatedArticles(section: String): [Entry]
}
type Category { id: ID title: String }
type User { id: ID }
type Query {
  entries(section: String): [Entry]
  entry(section: String): Entry
  entryCount(section: String): Int
}
`

func mustSchema(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSDL(&ast.Source{Input: sdl})
	require.NoError(t, err)
	return s
}

// rootInfo builds the ResolveInfo of the first root field of query.
func rootInfo(t *testing.T, sch *schema.Schema, query string, vars map[string]any) *executor.ResolveInfo {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	op := doc.Operations[0]
	f := op.SelectionSet[0].(*language.Field)
	root := sch.GetQueryType()
	if op.Operation == language.Mutation {
		root = sch.GetMutationType()
	}
	return &executor.ResolveInfo{
		ObjectType: root,
		Field:      root.Field(f.Name),
		FieldName:  f.Name,
		Fields:     []*language.Field{f},
		Path:       executor.Path{f.Name},
		Schema:     sch,
		Document:   doc,
		Operation:  op,
		Variables:  vars,
	}
}

func entryRelations(_ *schema.Schema, typeName string) map[string]bool {
	if typeName == "Entry" {
		return map[string]bool{"topics": true, "relatedArticles": true}
	}
	return map[string]bool{}
}

func newTestElementResolver(q *fakeQueries, card Cardinality, gotArgs *map[string]any) *ElementResolver {
	return &ElementResolver{
		Cardinality: card,
		Arrayable:   []string{"section"},
		NewArgumentManager: func() *ArgumentManager {
			return NewDefaultArgumentManager(q, fakeSites{})
		},
		EagerLoadable: entryRelations,
		Preparer: QueryPreparerFunc(func(_ context.Context, _ any, args map[string]any, _ *executor.ResolveInfo) (Prepared, error) {
			*gotArgs = args
			query := q.NewQuery(element.KindEntry)
			if err := query.Configure(args); err != nil {
				return Prepared{}, err
			}
			return Prepared{Query: query}, nil
		}),
	}
}

func TestElementResolver_BuildsEagerLoadPlans(t *testing.T) {
	sch := mustSchema(t, elementSDL)
	info := rootInfo(t, sch, `
{
  entries(section: "news,blog") {
    title
    topics(group: "x") { title }
    rel: relatedArticles { title topics { id } }
    ...F
  }
}
fragment F on Entry {
  author { id }
  relatedArticles @skip(if: true) { id }
}`, map[string]any{})

	first := element.New(element.KindEntry)
	q := &fakeQueries{elements: []*element.Element{first}}
	var gotArgs map[string]any
	r := newTestElementResolver(q, Many, &gotArgs)

	got, err := r.Resolve(context.Background(), nil, map[string]any{"section": "news,blog"}, info)
	require.NoError(t, err)
	require.Equal(t, []*element.Element{first}, got)
	require.Equal(t, []any{"news", "blog"}, gotArgs["section"])

	want := []content.EagerLoadPlan{
		{Field: "topics", Criteria: map[string]any{"group": "x"}},
		{Field: "relatedArticles", Alias: "rel", Nested: []content.EagerLoadPlan{{Field: "topics"}}},
	}
	require.Len(t, q.queries, 1)
	require.Equal(t, 1, q.queries[0].withCall)
	if diff := cmp.Diff(want, q.queries[0].plans); diff != "" {
		t.Fatalf("plans mismatch (-want +got):\n%s", diff)
	}
}

func TestElementResolver_NoPlansSkipsWith(t *testing.T) {
	sch := mustSchema(t, elementSDL)
	info := rootInfo(t, sch, `{ entry { title author { id } } }`, nil)
	q := &fakeQueries{}
	var gotArgs map[string]any

	got, err := newTestElementResolver(q, One, &gotArgs).Resolve(context.Background(), nil, map[string]any{}, info)
	require.NoError(t, err)
	require.Nil(t, got)
	require.Zero(t, q.queries[0].withCall)
}

func TestElementResolver_CountSkipsEagerLoading(t *testing.T) {
	sch := mustSchema(t, elementSDL)
	info := rootInfo(t, sch, `{ entryCount(section: "news") }`, nil)
	q := &fakeQueries{elements: []*element.Element{element.New(element.KindEntry), element.New(element.KindEntry)}}
	var gotArgs map[string]any

	got, err := newTestElementResolver(q, Count, &gotArgs).Resolve(context.Background(), nil, map[string]any{"section": "news"}, info)
	require.NoError(t, err)
	require.Equal(t, 2, got)
	require.Zero(t, q.queries[0].withCall)
}

func TestElementResolver_MaterializedElements(t *testing.T) {
	a, b := element.New(element.KindEntry), element.New(element.KindEntry)
	r := &ElementResolver{
		Cardinality:        One,
		NewArgumentManager: func() *ArgumentManager { return NewArgumentManager() },
		Preparer: QueryPreparerFunc(func(context.Context, any, map[string]any, *executor.ResolveInfo) (Prepared, error) {
			return Prepared{Elements: []*element.Element{a, b}}, nil
		}),
	}

	got, err := r.Resolve(context.Background(), nil, nil, &executor.ResolveInfo{})
	require.NoError(t, err)
	require.Same(t, a, got)
}

func TestElementResolver_RelationArgumentsReachPreparer(t *testing.T) {
	sch := mustSchema(t, elementSDL)
	info := rootInfo(t, sch, `{ entries { id } }`, nil)
	q := &fakeQueries{ids: func(element.Kind, map[string]any) []int64 { return []int64{3} }}
	var gotArgs map[string]any

	_, err := newTestElementResolver(q, Many, &gotArgs).Resolve(context.Background(), nil,
		map[string]any{RelatedToCategories: []any{map[string]any{"slug": "go"}}}, info)
	require.NoError(t, err)

	want := map[string]any{RelatedTo: []any{"and", map[string]any{"element": []int64{3}}}}
	if diff := cmp.Diff(want, gotArgs); diff != "" {
		t.Fatalf("prepared args mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestCache_ComputesOncePerSchemaAndType(t *testing.T) {
	sch := mustSchema(t, elementSDL)
	calls := 0
	compute := func(s *schema.Schema, typeName string) map[string]bool {
		calls++
		return entryRelations(s, typeName)
	}
	ctx := WithRequestCache(context.Background(), NewRequestCache())
	c := RequestCacheFromContext(ctx)

	c.EagerLoadable(sch, "Entry", compute)
	c.EagerLoadable(sch, "Entry", compute)
	c.EagerLoadable(sch, "Category", compute)
	require.Equal(t, 2, calls)

	var none *RequestCache
	none.EagerLoadable(sch, "Entry", compute)
	require.Equal(t, 3, calls)
	require.Nil(t, RequestCacheFromContext(context.Background()))
}
