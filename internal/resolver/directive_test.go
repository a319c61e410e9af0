package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/executor"
	"github.com/hanpama/contentql/internal/language"
)

type funcDirective struct {
	name  string
	apply func(value any, args map[string]any) (any, error)
}

func (d funcDirective) Name() string { return d.name }

func (d funcDirective) Apply(_ context.Context, _ any, value any, args map[string]any, _ *executor.ResolveInfo) (any, error) {
	return d.apply(value, args)
}

const directiveSDL = `
type Entry { title: String }
type Query { entry: Entry }
`

func fieldInfo(t *testing.T, query string, vars map[string]any) *executor.ResolveInfo {
	t.Helper()
	sch := mustSchema(t, directiveSDL)
	root := rootInfo(t, sch, query, vars)
	f := root.Fields[0].SelectionSet[0].(*language.Field)
	entry := sch.Types["Entry"]
	return &executor.ResolveInfo{
		ObjectType: entry,
		Field:      entry.Field(f.Name),
		FieldName:  f.Name,
		Fields:     []*language.Field{f},
		Schema:     sch,
		Document:   root.Document,
		Variables:  vars,
	}
}

func testRegistry(calls *[]string) *DirectiveRegistry {
	return NewDirectiveRegistry(
		funcDirective{name: "upper", apply: func(v any, _ map[string]any) (any, error) {
			*calls = append(*calls, "upper")
			return strings.ToUpper(v.(string)), nil
		}},
		funcDirective{name: "suffix", apply: func(v any, args map[string]any) (any, error) {
			*calls = append(*calls, fmt.Sprintf("suffix %v", args))
			s, _ := args["with"].(string)
			return v.(string) + s, nil
		}},
		funcDirective{name: "fail", apply: func(any, map[string]any) (any, error) {
			*calls = append(*calls, "fail")
			return nil, errors.New("bad value")
		}},
	)
}

func TestResolveWithDirectives_AppliesInDocumentOrder(t *testing.T) {
	var calls []string
	info := fieldInfo(t, `{ entry { title @suffix(with: "!") @upper @include(if: true) } }`, nil)
	el := element.New(element.KindEntry)
	el.Title = "hi"

	got, err := ResolveWithDirectives(context.Background(), el, nil, info, nil, testRegistry(&calls))
	require.NoError(t, err)
	require.Equal(t, "HI!", got)
	require.Equal(t, []string{"suffix map[with:!]", "upper"}, calls)
}

func TestResolveWithDirectives_PassesOnlyLiteralArguments(t *testing.T) {
	var calls []string
	info := fieldInfo(t, `query($s: String) { entry { title @suffix(with: $s) } }`, map[string]any{"s": "?"})

	got, err := ResolveWithDirectives(context.Background(), map[string]any{"title": "x"}, nil, info, nil, testRegistry(&calls))
	require.NoError(t, err)
	require.Equal(t, "x", got)
	require.Equal(t, []string{"suffix map[]"}, calls)
}

func TestResolveWithDirectives_FailureStopsPipeline(t *testing.T) {
	var calls []string
	info := fieldInfo(t, `{ entry { title @fail @upper } }`, nil)

	_, err := ResolveWithDirectives(context.Background(), map[string]any{"title": "x"}, nil, info, nil, testRegistry(&calls))

	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, "fail", rerr.Directive)
	require.Equal(t, "bad value", rerr.Err.Error())
	require.Equal(t, []string{"fail"}, calls)
	require.Equal(t, map[string]any{"code": CodeResolution}, rerr.Extensions())
}

func TestResolveWithDirectives_ResolverErrorIsWrapped(t *testing.T) {
	info := fieldInfo(t, `{ entry { title } }`, nil)
	cause := errors.New("store down")
	resolve := func(context.Context, any, map[string]any, *executor.ResolveInfo) (any, error) { return nil, cause }

	_, err := ResolveWithDirectives(context.Background(), nil, nil, info, resolve, nil)

	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	require.ErrorIs(t, err, cause)
}

func TestDefaultResolve(t *testing.T) {
	info := &executor.ResolveInfo{FieldName: "title"}

	v, err := DefaultResolve(context.Background(), map[string]any{"title": "m"}, nil, info)
	require.NoError(t, err)
	require.Equal(t, "m", v)

	v, err = DefaultResolve(context.Background(), nil, nil, info)
	require.NoError(t, err)
	require.Nil(t, v)

	_, err = DefaultResolve(context.Background(), 42, nil, info)
	require.Error(t, err)
}
