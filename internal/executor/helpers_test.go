package executor

import (
	"testing"

	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/contentql/internal/language"
	schema "github.com/hanpama/contentql/internal/schema"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

// mustBuildSchema loads SDL and fails the test on error.
func mustBuildSchema(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSDL(&ast.Source{Name: "test.graphql", Input: sdl})
	if err != nil {
		t.Fatalf("schema error: %v", err)
	}
	return s
}
