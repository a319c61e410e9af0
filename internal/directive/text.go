package directive

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/russross/blackfriday/v2"

	"github.com/hanpama/contentql/internal/executor"
)

// Markdown renders Markdown text as HTML.
//
// flavor is one of "gfm" (default), "gfm-comment" (hard line breaks) or
// "original". inlineOnly drops the surrounding paragraph tags.
type Markdown struct{}

func (Markdown) Name() string { return "markdown" }

func (Markdown) Apply(_ context.Context, _ any, value any, args map[string]any, _ *executor.ResolveInfo) (any, error) {
	s, ok, err := stringValue("markdown", value)
	if err != nil || !ok {
		return nil, err
	}
	flavor, err := stringArg(args, "flavor")
	if err != nil {
		return nil, err
	}
	var ext blackfriday.Extensions
	switch flavor {
	case "", "gfm":
		ext = blackfriday.CommonExtensions
	case "gfm-comment":
		ext = blackfriday.CommonExtensions | blackfriday.HardLineBreak
	case "original":
		ext = blackfriday.NoExtensions
	default:
		return nil, errors.Errorf("unknown markdown flavor %q", flavor)
	}
	out := strings.TrimSpace(string(blackfriday.Run([]byte(s), blackfriday.WithExtensions(ext))))
	if inline, _ := args["inlineOnly"].(bool); inline {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return out, nil
}

// StripTags removes HTML markup, keeping the text content. Script and style
// elements are dropped entirely.
type StripTags struct{}

func (StripTags) Name() string { return "stripTags" }

func (StripTags) Apply(_ context.Context, _ any, value any, _ map[string]any, _ *executor.ResolveInfo) (any, error) {
	s, ok, err := stringValue("stripTags", value)
	if err != nil || !ok {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}
	doc.Find("script, style").Remove()
	return doc.Find("body").Text(), nil
}

// Trim removes leading and trailing whitespace, or the characters listed in
// chars.
type Trim struct{}

func (Trim) Name() string { return "trim" }

func (Trim) Apply(_ context.Context, _ any, value any, args map[string]any, _ *executor.ResolveInfo) (any, error) {
	s, ok, err := stringValue("trim", value)
	if err != nil || !ok {
		return nil, err
	}
	chars, err := stringArg(args, "chars")
	if err != nil {
		return nil, err
	}
	if chars == "" {
		return strings.TrimSpace(s), nil
	}
	return strings.Trim(s, chars), nil
}
