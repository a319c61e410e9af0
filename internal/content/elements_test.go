package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/contentql/internal/element"
)

func TestPrepareElement(t *testing.T) {
	m := DefaultModel()
	el := element.New(element.KindEntry)
	el.SectionID = 2
	el.Title = "Hello, World & Friends!"

	m.PrepareElement(el)
	require.Equal(t, int64(1), el.SiteID)
	require.Equal(t, int64(1), el.StructureID)
	require.Equal(t, int64(2), el.TypeID)
	require.Equal(t, "hello-world-friends", el.Slug)
	require.Equal(t, "/pages/hello-world-friends", m.ElementURL(el))
}

func TestValidateElement(t *testing.T) {
	m := &Model{
		Sections: []*Section{{ID: 1, Handle: "news", Fields: []string{"summary"}}},
		Fields:   []*Field{{Handle: "summary", Name: "Summary", Type: FieldPlainText, Required: true}},
	}
	el := element.New(element.KindEntry)
	el.SectionID = 1
	post := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	expiry := post.Add(-time.Hour)
	el.PostDate, el.ExpiryDate = &post, &expiry

	m.ValidateElement(el, nil)
	require.Equal(t, []string{"Expiry Date must be after Post Date."}, el.FirstErrors())

	el.ClearErrors()
	el.ExpiryDate = nil
	el.SetScenario(element.ScenarioLive)
	el.Title, el.Slug = "T", "t"
	m.ValidateElement(el, func(*element.Element) bool { return true })
	require.Equal(t, []string{`Slug "t" has already been taken.`, "Summary cannot be blank."}, el.FirstErrors())

	user := element.New(element.KindUser)
	m.ValidateElement(user, nil)
	require.Equal(t, []string{"Username cannot be blank."}, user.FirstErrors())
}

func TestSiteIDs(t *testing.T) {
	els := []*element.Element{{ID: 1, SiteID: 2}, {ID: 2, SiteID: 1}, {ID: 3, SiteID: 2}}
	require.Equal(t, []any{int64(2), int64(1)}, SiteIDs(els))
	require.Equal(t, []any{}, SiteIDs(nil))
}
