package language

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLiteralArgumentsSkipsVariables(t *testing.T) {
	doc, err := ParseQuery(`query($fmt: String) { entries { postDate @formatDateTime(format: $fmt, timezone: "UTC", n: 3, list: [1, "a"]) } }`)
	require.NoError(t, err)

	field := doc.Operations[0].SelectionSet[0].(*Field).SelectionSet[0].(*Field)
	dir := field.Directives.ForName("formatDateTime")
	require.NotNil(t, dir)

	got := LiteralArguments(dir.Arguments)
	want := map[string]any{"timezone": "UTC", "n": 3, "list": []any{1, "a"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("literal arguments mismatch (-want +got):\n%s", diff)
	}
}

func TestArgumentValuesSubstitutesVariables(t *testing.T) {
	doc, err := ParseQuery(`query($ids: [ID]) { entries(id: $ids, filter: {title: "x", n: 1.5, on: true, none: null}) { id } }`)
	require.NoError(t, err)

	field := doc.Operations[0].SelectionSet[0].(*Field)
	got := ArgumentValues(field.Arguments, map[string]any{"ids": []any{"1", "2"}})
	want := map[string]any{
		"id":     []any{"1", "2"},
		"filter": map[string]any{"title": "x", "n": 1.5, "on": true, "none": nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("argument values mismatch (-want +got):\n%s", diff)
	}
}
