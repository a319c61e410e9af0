package contentrt

import (
	_ "embed"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/schema"
)

//go:embed schema.graphql
var defaultSDL string

// DefaultSource returns the built-in schema matching content.DefaultModel.
func DefaultSource() *ast.Source {
	return &ast.Source{Name: "schema.graphql", Input: defaultSDL}
}

// TypeNames maps element kinds to their GraphQL object types.
var TypeNames = map[element.Kind]string{
	element.KindEntry:    "Entry",
	element.KindAsset:    "Asset",
	element.KindCategory: "Category",
	element.KindUser:     "User",
}

// normalizers rewrite input objects before they reach mutation resolvers.
var normalizers = map[string]schema.NormalizerFunc{
	"LinkInput":      eachInput(normalizeLink),
	"DateRangeInput": eachInput(normalizeDateRange),
}

// LoadSchema builds the schema from sources, or from DefaultSource when none
// are given, and attaches the input normalizers of the types it declares.
func LoadSchema(sources ...*ast.Source) (*schema.Schema, error) {
	if len(sources) == 0 {
		sources = []*ast.Source{DefaultSource()}
	}
	sch, err := schema.BuildFromSDL(sources...)
	if err != nil {
		return nil, err
	}
	for name, fn := range normalizers {
		if sch.Types[name] == nil {
			continue
		}
		if err := sch.SetNormalizer(name, fn); err != nil {
			return nil, err
		}
	}
	return sch, nil
}

// eachInput applies fn to a single input object or to every item of a list.
func eachInput(fn func(map[string]any) (map[string]any, error)) schema.NormalizerFunc {
	return func(value any) (any, error) {
		switch v := value.(type) {
		case map[string]any:
			return fn(v)
		case []any:
			out := make([]any, len(v))
			for i, item := range v {
				m, ok := item.(map[string]any)
				if !ok {
					return nil, errors.Errorf("item %d: expected an object, got %T", i, item)
				}
				nm, err := fn(m)
				if err != nil {
					return nil, errors.Wrapf(err, "item %d", i)
				}
				out[i] = nm
			}
			return out, nil
		}
		return value, nil
	}
}

// normalizeLink trims the URL, requires it and defaults the label to it.
func normalizeLink(in map[string]any) (map[string]any, error) {
	url, _ := in["url"].(string)
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("link url is required")
	}
	out := map[string]any{"url": url}
	label, _ := in["label"].(string)
	if label = strings.TrimSpace(label); label == "" {
		label = url
	}
	out["label"] = label
	if target, _ := in["target"].(string); target != "" {
		out["target"] = target
	}
	return out, nil
}

// normalizeDateRange parses start and end and rejects ranges ending before
// they start.
func normalizeDateRange(in map[string]any) (map[string]any, error) {
	start, err := element.ToTime(in["start"])
	if err != nil {
		return nil, errors.Wrap(err, "start")
	}
	end, err := element.ToTime(in["end"])
	if err != nil {
		return nil, errors.Wrap(err, "end")
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, errors.Errorf("range ends at %s before it starts at %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	out := map[string]any{}
	if start != nil {
		out["start"] = *start
	}
	if end != nil {
		out["end"] = *end
	}
	return out, nil
}

// Check reports the content fields of model that the element types of sch do
// not expose, and relation fields whose GraphQL type lists the wrong kind.
func Check(sch *schema.Schema, model *content.Model) []string {
	byType := map[string]map[string]bool{}
	add := func(kind element.Kind, handles []string) {
		name := TypeNames[kind]
		if byType[name] == nil {
			byType[name] = map[string]bool{}
		}
		for _, h := range handles {
			byType[name][h] = true
		}
	}
	for _, sec := range model.Sections {
		add(element.KindEntry, sec.Fields)
	}
	for _, g := range model.CategoryGroups {
		add(element.KindCategory, g.Fields)
	}
	add(element.KindAsset, model.AssetFields)
	add(element.KindUser, model.UserFields)

	var problems []string
	for typeName, handles := range byType {
		t := sch.Types[typeName]
		if t == nil {
			problems = append(problems, "schema has no type "+typeName)
			continue
		}
		for h := range handles {
			f := t.Field(h)
			if f == nil {
				problems = append(problems, typeName+"."+h+" is missing")
				continue
			}
			mf := model.Field(h)
			if mf == nil {
				continue
			}
			if kind, ok := mf.RelationKind(); ok && f.Type.GetNamedType() != TypeNames[kind] {
				problems = append(problems, typeName+"."+h+" must list "+TypeNames[kind]+", not "+f.Type.GetNamedType())
			}
		}
	}
	sort.Strings(problems)
	return problems
}
