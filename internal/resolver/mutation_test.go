package resolver

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/contentql/internal/executor"
	"github.com/hanpama/contentql/internal/schema"
)

const mutationSDL = `
input LinkInput { url: String! label: String }
input Nested { link: LinkInput title: LinkInput note: String }
type Entry { id: ID }
type Query { entry: Entry }
type Mutation {
  saveEntry(
    id: ID, uid: String, title: String, slug: String, enabled: Boolean, authorId: Int,
    body: String, topics: [Int], link: LinkInput, links: [LinkInput], nested: Nested, bogus: String,
    prependTo: Int, appendTo: Int, prependToRoot: Boolean, appendToRoot: Boolean, insertBefore: Int, insertAfter: Int
  ): Entry
}
`

// lowerURLs lower-cases the url of one link or a list of links.
func lowerURLs(calls *[]any) schema.NormalizerFunc {
	return func(v any) (any, error) {
		*calls = append(*calls, v)
		lower := func(m map[string]any) map[string]any {
			out := map[string]any{}
			for k, x := range m {
				out[k] = x
			}
			out["url"] = strings.ToLower(out["url"].(string))
			return out
		}
		if list, ok := v.([]any); ok {
			res := make([]any, len(list))
			for i, item := range list {
				res[i] = lower(item.(map[string]any))
			}
			return res, nil
		}
		return lower(v.(map[string]any)), nil
	}
}

func mutationInfo(t *testing.T, calls *[]any) *executor.ResolveInfo {
	t.Helper()
	sch := mustSchema(t, mutationSDL)
	require.NoError(t, sch.SetNormalizer("LinkInput", lowerURLs(calls)))
	return rootInfo(t, sch, `mutation { saveEntry { id } }`, nil)
}

func TestMutationResolver_DataPanicsOnMissingKey(t *testing.T) {
	r := NewMutationResolver(map[string]any{"section": "news"})
	require.Equal(t, "news", r.Data("section"))
	require.PanicsWithError(t, `resolver wiring: mutation resolver has no data for "group"`, func() {
		r.Data("group")
	})
}

func TestNormalizeArguments_WithoutInputObjectsIsUnchanged(t *testing.T) {
	var calls []any
	info := mutationInfo(t, &calls)
	args := map[string]any{"title": "T", "topics": []any{1, 2}, "bogus": "x"}

	got, err := NewMutationResolver(nil).NormalizeArguments(info, args)
	require.NoError(t, err)
	if diff := cmp.Diff(args, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, calls)
}

func TestNormalizeArguments_AppliesInputTypeNormalizers(t *testing.T) {
	var calls []any
	info := mutationInfo(t, &calls)
	args := map[string]any{
		"link":  map[string]any{"url": "HTTP://A"},
		"links": []any{map[string]any{"url": "HTTP://B"}, map[string]any{"url": "HTTP://C"}},
		"nested": map[string]any{
			"title": map[string]any{"url": "HTTP://D"},
			"note":  "KEEP",
		},
		"title": "Root Title",
	}

	got, err := NewMutationResolver(nil).NormalizeArguments(info, args)
	require.NoError(t, err)

	want := map[string]any{
		"link":  map[string]any{"url": "http://a"},
		"links": []any{map[string]any{"url": "http://b"}, map[string]any{"url": "http://c"}},
		"nested": map[string]any{
			"title": map[string]any{"url": "http://d"},
			"note":  "KEEP",
		},
		"title": "Root Title",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	// The list is normalized as a whole.
	require.Len(t, calls, 3)
}
