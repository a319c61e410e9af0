package resolver

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

// NewSiteHandler returns a handler that resolves site handles in the "site"
// argument to site IDs. "*" selects every site and passes through.
func NewSiteHandler(sites content.Sites) *ValueHandler {
	return NewValueHandler("site", func(ctx context.Context, value any) (any, error) {
		switch v := value.(type) {
		case string:
			if v == "*" {
				return v, nil
			}
			return siteID(ctx, sites, v)
		case []any:
			out := make([]any, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					if s == "*" {
						return "*", nil
					}
					id, err := siteID(ctx, sites, s)
					if err != nil {
						return nil, err
					}
					out = append(out, id)
					continue
				}
				out = append(out, item)
			}
			return out, nil
		}
		return value, nil
	})
}

func siteID(ctx context.Context, sites content.Sites, handle string) (int64, error) {
	site, err := sites.SiteByHandle(ctx, handle)
	if err != nil {
		return 0, errors.Wrapf(err, "site %q", handle)
	}
	if site == nil {
		return 0, errors.Errorf("invalid site handle %q", handle)
	}
	return site.ID, nil
}

// NewDefaultArgumentManager builds a manager with the site handler and the
// four relation shorthand handlers.
func NewDefaultArgumentManager(queries content.QueryFactory, sites content.Sites) *ArgumentManager {
	return NewArgumentManager(
		NewSiteHandler(sites),
		NewRelationArgumentHandler(RelatedToEntries, element.KindEntry, queries),
		NewRelationArgumentHandler(RelatedToAssets, element.KindAsset, queries),
		NewRelationArgumentHandler(RelatedToCategories, element.KindCategory, queries),
		NewRelationArgumentHandler(RelatedToUsers, element.KindUser, queries),
	)
}
