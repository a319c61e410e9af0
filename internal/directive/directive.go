// Package directive implements the field directives available in queries:
// formatDateTime, markdown, stripTags, trim and parseRefs.
package directive

import (
	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/resolver"
)

// Defaults returns a registry with every directive of this package.
func Defaults(finder content.Finder) *resolver.DirectiveRegistry {
	return resolver.NewDirectiveRegistry(
		FormatDateTime{},
		Markdown{},
		StripTags{},
		Trim{},
		ParseRefs{Finder: finder},
	)
}

// stringValue converts a resolved value for the text directives. ok is false
// for null values, which pass through untouched.
func stringValue(directive string, v any) (string, bool, error) {
	if v == nil {
		return "", false, nil
	}
	if p, isPtr := v.(*string); isPtr {
		if p == nil {
			return "", false, nil
		}
		return *p, true, nil
	}
	s, err := element.ToString(v)
	if err != nil {
		return "", false, errors.Wrapf(err, "@%s", directive)
	}
	return s, true, nil
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("argument %q must be a string, got %T", name, v)
	}
	return s, nil
}
