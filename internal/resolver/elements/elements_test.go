package elements

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/executor"
	"github.com/hanpama/contentql/internal/language"
	"github.com/hanpama/contentql/internal/schema"
	"github.com/hanpama/contentql/internal/store/memory"
)

const sdl = `
scalar QueryArgument
type Entry {
  id: ID!
  title: String
  summary: String
  topics(orderBy: String): [Category!]
  relatedArticles: [Entry!]
}
type Category { id: ID! title: String }
type Query {
  entries(section: QueryArgument, orderBy: String, relatedToCategories: QueryArgument): [Entry!]!
  entry(id: QueryArgument): Entry
}
`

func newTestResolvers(t *testing.T) (*Resolvers, *memory.Store) {
	t.Helper()
	model := content.DefaultModel()
	store := memory.New(model)
	require.NoError(t, store.LoadSeed(memory.DefaultSeed()))
	return New(store, store, model), store
}

// fieldInfo returns the ResolveInfo of the first field of query on typeName.
func fieldInfo(t *testing.T, sch *schema.Schema, typeName, query string) *executor.ResolveInfo {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	field := doc.Operations[0].SelectionSet[0].(*language.Field)
	if typeName != "Query" {
		field = field.SelectionSet[0].(*language.Field)
	}
	objectType := sch.Types[typeName]
	return &executor.ResolveInfo{
		ObjectType: objectType,
		Field:      objectType.Field(field.Name),
		FieldName:  field.Name,
		Fields:     []*language.Field{field},
		Schema:     sch,
		Document:   doc,
		Operation:  doc.Operations[0],
	}
}

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(&ast.Source{Name: "test.graphql", Input: sdl})
	require.NoError(t, err)
	return sch
}

func titles(els []*element.Element) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = el.Title
	}
	return out
}

func TestRootFields(t *testing.T) {
	r, _ := newTestResolvers(t)
	sch := mustSchema(t)
	ctx := context.Background()
	fields := r.Fields()

	info := fieldInfo(t, sch, "Query", `{ entries { title } }`)
	got, err := fields["entries"].Resolve(ctx, nil, map[string]any{"section": "news,pages", "orderBy": "title"}, info)
	require.NoError(t, err)
	require.Equal(t, []string{"About", "Contact", "Meet The Team", "Release Notes", "We Launched"}, titles(got.([]*element.Element)))

	info = fieldInfo(t, sch, "Query", `{ entry { title } }`)
	got, err = fields["entry"].Resolve(ctx, nil, map[string]any{"id": 41}, info)
	require.NoError(t, err)
	require.Equal(t, "Release Notes", got.(*element.Element).Title)

	got, err = fields["entry"].Resolve(ctx, nil, map[string]any{"id": 999}, info)
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = fields["categoryCount"].Resolve(ctx, nil, map[string]any{"group": "topics"}, info)
	require.NoError(t, err)
	require.Equal(t, 3, got)

	_, err = fields["entries"].Resolve(ctx, nil, map[string]any{"colour": "red"}, info)
	require.EqualError(t, err, `criteria colour: unknown criteria "colour"`)
}

func TestRootFieldEagerLoadsRelations(t *testing.T) {
	r, _ := newTestResolvers(t)
	sch := mustSchema(t)
	info := fieldInfo(t, sch, "Query", `{ entries { title topics { title } related: relatedArticles { title } } }`)

	got, err := r.Fields()["entries"].Resolve(context.Background(), nil, map[string]any{"section": "news"}, info)
	require.NoError(t, err)
	els := got.([]*element.Element)
	require.Len(t, els, 2)
	for _, el := range els {
		_, ok := el.EagerLoaded("topics")
		require.True(t, ok, el.Title)
		_, ok = el.EagerLoaded("related")
		require.True(t, ok, el.Title)
	}
}

func TestRelationUsesEagerLoadedElements(t *testing.T) {
	r, _ := newTestResolvers(t)
	sch := mustSchema(t)
	info := fieldInfo(t, sch, "Entry", `{ entry { topics { title } } }`)

	el := element.New(element.KindEntry)
	el.SetFieldValue("topics", []int64{21})
	loaded := []*element.Element{{ID: 99, Title: "Preloaded"}}
	el.SetEagerLoaded("topics", loaded)

	got, err := r.Relation().Resolve(context.Background(), el, map[string]any{}, info)
	require.NoError(t, err)
	require.Equal(t, loaded, got)
}

func TestRelationQueriesStoredIDsInFieldOrder(t *testing.T) {
	r, store := newTestResolvers(t)
	sch := mustSchema(t)
	ctx := context.Background()
	info := fieldInfo(t, sch, "Entry", `{ entry { topics { title } } }`)

	el, err := store.ElementByID(ctx, 32, 0)
	require.NoError(t, err)
	el.SetFieldValue("topics", []int64{22, 20})
	got, err := r.Relation().Resolve(ctx, el, map[string]any{}, info)
	require.NoError(t, err)
	require.Equal(t, []string{"Culture", "Technology"}, titles(got.([]*element.Element)))

	got, err = r.Relation().Resolve(ctx, el, map[string]any{"orderBy": "title desc"}, info)
	require.NoError(t, err)
	require.Equal(t, []string{"Technology", "Culture"}, titles(got.([]*element.Element)))

	el.SetFieldValue("topics", []int64{})
	got, err = r.Relation().Resolve(ctx, el, map[string]any{}, info)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRelationNeedsElementSource(t *testing.T) {
	r, _ := newTestResolvers(t)
	info := fieldInfo(t, mustSchema(t), "Entry", `{ entry { topics { title } } }`)
	_, err := r.Relation().Resolve(context.Background(), map[string]any{}, map[string]any{}, info)
	require.EqualError(t, err, "relation field Entry.topics needs an element source, got map[string]interface {}")
}

func TestEagerLoadable(t *testing.T) {
	r, _ := newTestResolvers(t)
	sch := mustSchema(t)
	require.Equal(t, map[string]bool{"topics": true, "relatedArticles": true}, r.EagerLoadable(sch, "Entry"))
	require.Equal(t, map[string]bool{}, r.EagerLoadable(sch, "Category"))
	require.Equal(t, map[string]bool{}, r.EagerLoadable(sch, "Missing"))
}
