package directive

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/executor"
)

// Named layouts accepted by the format argument. Any other value is used as a
// Go time layout.
var dateLayouts = map[string]string{
	"atom":    time.RFC3339,
	"rfc3339": time.RFC3339,
	"rss":     time.RFC1123Z,
	"date":    "2006-01-02",
	"short":   "1/2/06",
	"medium":  "Jan 2, 2006",
	"long":    "January 2, 2006",
	"full":    "Monday, January 2, 2006",
}

// FormatDateTime renders a date value as a string.
//
//	postDate @formatDateTime(format: "long", timezone: "Europe/Berlin")
type FormatDateTime struct{}

func (FormatDateTime) Name() string { return "formatDateTime" }

func (FormatDateTime) Apply(_ context.Context, _ any, value any, args map[string]any, _ *executor.ResolveInfo) (any, error) {
	t, err := element.ToTime(value)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}
	format, err := stringArg(args, "format")
	if err != nil {
		return nil, err
	}
	layout := time.RFC3339
	if format != "" {
		layout = format
		if named, ok := dateLayouts[format]; ok {
			layout = named
		}
	}
	tz, err := stringArg(args, "timezone")
	if err != nil {
		return nil, err
	}
	out := *t
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, errors.Wrapf(err, "timezone %q", tz)
		}
		out = out.In(loc)
	}
	return out.Format(layout), nil
}
