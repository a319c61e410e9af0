package directive

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/executor"
)

var refPattern = regexp.MustCompile(`\{(entry|asset|category|user):(\d+)(?::([A-Za-z]+))?(?:\|\|([^}]*))?\}`)

// ParseRefs replaces reference tags such as {entry:12:url} with the named
// attribute of the referenced element. The attribute defaults to url. A tag
// whose element cannot be found is replaced by its fallback text
// ({entry:12:url||/missing}) or left as written.
type ParseRefs struct {
	Finder content.Finder
}

func (ParseRefs) Name() string { return "parseRefs" }

func (d ParseRefs) Apply(ctx context.Context, source any, value any, _ map[string]any, _ *executor.ResolveInfo) (any, error) {
	s, ok, err := stringValue("parseRefs", value)
	if err != nil || !ok {
		return nil, err
	}
	if !strings.Contains(s, "{") {
		return s, nil
	}
	var siteID int64
	if el, ok := source.(*element.Element); ok {
		siteID = el.SiteID
	}

	var firstErr error
	out := refPattern.ReplaceAllStringFunc(s, func(tag string) string {
		m := refPattern.FindStringSubmatch(tag)
		kind, attr, fallback := element.Kind(m[1]), m[3], m[4]
		if attr == "" {
			attr = "url"
		}
		id, _ := strconv.ParseInt(m[2], 10, 64)
		el, err := d.Finder.ElementByID(ctx, id, siteID)
		if err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "resolve reference %s", tag)
			}
			return tag
		}
		if el == nil || el.Kind != kind {
			if fallback != "" {
				return fallback
			}
			return tag
		}
		v, ok := el.Property(attr)
		if !ok {
			return tag
		}
		str, err := element.ToString(v)
		if err != nil {
			return tag
		}
		return str
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
