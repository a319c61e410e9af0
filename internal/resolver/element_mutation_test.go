package resolver

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/eventbus"
	"github.com/hanpama/contentql/internal/events"
)

var testContentFields = map[string]*content.Field{
	"body":   {Handle: "body", Type: content.FieldPlainText},
	"topics": {Handle: "topics", Type: content.FieldCategories},
}

func newTestMutationResolver(store *fakeStore, hooks *eventbus.Bus) *ElementMutationResolver {
	return NewElementMutationResolver(map[string]any{ContentFieldsKey: testContentFields}, store, hooks)
}

func existingEntry() *element.Element {
	el := element.New(element.KindEntry)
	el.ID = 7
	el.UID = "uid-7"
	el.Title = "Old"
	return el
}

func TestPopulate_NeverOverwritesIdentity(t *testing.T) {
	var calls []any
	info := mutationInfo(t, &calls)
	r := newTestMutationResolver(newFakeStore(), nil)
	el := existingEntry()

	got, err := r.PopulateElementWithData(context.Background(), el, map[string]any{"id": "99", "uid": "other", "title": "New"}, info)
	require.NoError(t, err)
	require.Equal(t, int64(7), got.ID)
	require.Equal(t, "uid-7", got.UID)
	require.Equal(t, "New", got.Title)
}

func TestPopulate_AssignsContentFieldsAndAttributes(t *testing.T) {
	var calls []any
	info := mutationInfo(t, &calls)
	r := newTestMutationResolver(newFakeStore(), nil)

	got, err := r.PopulateElementWithData(context.Background(), existingEntry(), map[string]any{
		"body":     "Text",
		"topics":   []any{3, 1},
		"authorId": 5,
		"enabled":  false,
	}, info)
	require.NoError(t, err)

	body, _ := got.FieldValue("body")
	require.Equal(t, "Text", body)
	require.Equal(t, []int64{3, 1}, got.RelationIDs("topics"))
	require.Equal(t, int64(5), got.AuthorID)
	require.False(t, got.Enabled)
}

func TestPopulate_UnknownArgumentIsDropped(t *testing.T) {
	var calls []any
	info := mutationInfo(t, &calls)
	r := newTestMutationResolver(newFakeStore(), nil)
	el := existingEntry()
	before := *el

	got, err := r.PopulateElementWithData(context.Background(), el, map[string]any{"bogus": "x", "prependTo": 3}, info)
	require.NoError(t, err)
	require.Same(t, el, got)
	require.Equal(t, before, *got)
	require.Empty(t, got.FieldHandles())
}

func TestPopulate_HooksCanReplaceArgumentsAndElement(t *testing.T) {
	var calls []any
	info := mutationInfo(t, &calls)
	hooks := eventbus.New()
	replacement := element.New(element.KindEntry)
	replacement.ID = 8

	var seen []string
	eventbus.On(hooks, func(_ context.Context, e *events.BeforePopulate) {
		seen = append(seen, "before:"+e.Field)
		e.Element = replacement
		e.Arguments = map[string]any{"title": "From Hook"}
	})
	eventbus.On(hooks, func(_ context.Context, e *events.AfterPopulate) {
		seen = append(seen, "after")
		require.Same(t, replacement, e.Element)
	})
	r := newTestMutationResolver(newFakeStore(), hooks)
	original := existingEntry()

	got, err := r.PopulateElementWithData(context.Background(), original, map[string]any{"title": "Ignored"}, info)
	require.NoError(t, err)
	require.Same(t, replacement, got)
	require.Equal(t, "From Hook", got.Title)
	require.Equal(t, "Old", original.Title)
	require.Equal(t, []string{"before:saveEntry", "after"}, seen)
}

func TestPopulate_HookRemovingElementFails(t *testing.T) {
	var calls []any
	info := mutationInfo(t, &calls)

	before := eventbus.New()
	eventbus.On(before, func(_ context.Context, e *events.BeforePopulate) { e.Element = nil })
	got, err := newTestMutationResolver(newFakeStore(), before).
		PopulateElementWithData(context.Background(), existingEntry(), map[string]any{"title": "x"}, info)
	require.EqualError(t, err, "a before-populate hook removed the element")
	require.Nil(t, got)

	after := eventbus.New()
	eventbus.On(after, func(_ context.Context, e *events.AfterPopulate) { e.Element = nil })
	got, err = newTestMutationResolver(newFakeStore(), after).
		PopulateElementWithData(context.Background(), existingEntry(), map[string]any{"title": "x"}, info)
	require.EqualError(t, err, "an after-populate hook removed the element")
	require.Nil(t, got)
}

func TestPopulate_MissingContentFieldsIsWiringError(t *testing.T) {
	var calls []any
	info := mutationInfo(t, &calls)
	r := NewElementMutationResolver(map[string]any{}, newFakeStore(), nil)

	require.Panics(t, func() {
		_, _ = r.PopulateElementWithData(context.Background(), existingEntry(), map[string]any{}, info)
	})
}

func TestSaveElement_PromotesEnabledElementsToLive(t *testing.T) {
	store := newFakeStore()
	r := newTestMutationResolver(store, nil)

	enabled := element.New(element.KindEntry)
	require.NoError(t, r.SaveElement(context.Background(), enabled))

	disabled := element.New(element.KindEntry)
	disabled.Enabled = false
	require.NoError(t, r.SaveElement(context.Background(), disabled))

	require.Equal(t, []element.Scenario{element.ScenarioLive, element.ScenarioDefault}, store.saveScenes)
	require.NotZero(t, enabled.ID)
}

func TestSaveElement_AggregatesValidationErrors(t *testing.T) {
	store := newFakeStore()
	store.validate = func(el *element.Element) {
		el.AddError("title", "Title cannot be blank.")
		el.AddError("title", "Title is too short.")
		el.AddError("slug", "Slug cannot be blank.")
	}
	r := newTestMutationResolver(store, nil)

	err := r.SaveElement(context.Background(), element.New(element.KindEntry))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Title cannot be blank.\nSlug cannot be blank.", err.Error())
	require.Equal(t, map[string]any{"code": CodeValidation}, verr.Extensions())
	require.Empty(t, store.saved)
}

func structuredEntry(id int64) *element.Element {
	el := element.New(element.KindEntry)
	el.ID = id
	el.StructureID = 1
	return el
}

func TestStructureOperations_FirstTruthyWins(t *testing.T) {
	parent, sibling := structuredEntry(2), structuredEntry(3)
	store := newFakeStore(parent, sibling)
	r := newTestMutationResolver(store, nil)
	el := structuredEntry(10)

	err := r.PerformStructureOperations(context.Background(), el, map[string]any{
		"appendTo":     3,
		"prependTo":    2,
		"insertBefore": 3,
	})
	require.NoError(t, err)

	want := []structureCall{{Op: "prepend", Element: 10, Target: 2, Structure: 1}}
	if diff := cmp.Diff(want, store.structure); diff != "" {
		t.Fatalf("structure calls mismatch (-want +got):\n%s", diff)
	}
}

func TestStructureOperations_FalsyValuesAreSkipped(t *testing.T) {
	store := newFakeStore(structuredEntry(3))
	r := newTestMutationResolver(store, nil)

	err := r.PerformStructureOperations(context.Background(), structuredEntry(10), map[string]any{
		"prependTo":     nil,
		"appendTo":      0,
		"prependToRoot": false,
		"appendToRoot":  true,
		"insertAfter":   3,
	})
	require.NoError(t, err)
	require.Equal(t, []structureCall{{Op: "appendToRoot", Element: 10, Structure: 1}}, store.structure)
}

func TestStructureOperations_MissingTarget(t *testing.T) {
	r := newTestMutationResolver(newFakeStore(), nil)

	err := r.PerformStructureOperations(context.Background(), structuredEntry(10), map[string]any{"insertAfter": 404})

	var serr *StructureReferenceError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, InsertAfter, serr.Operation)
	require.Equal(t, int64(404), serr.TargetID)
}

func TestStructureOperations_IgnoredOutsideStructures(t *testing.T) {
	store := newFakeStore()
	r := newTestMutationResolver(store, nil)
	el := element.New(element.KindEntry)

	require.NoError(t, r.PerformStructureOperations(context.Background(), el, map[string]any{"prependToRoot": true}))
	require.Empty(t, store.structure)
}
