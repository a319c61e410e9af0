package element

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSetAttributeRespectsKindAllowList(t *testing.T) {
	entry := New(KindEntry)
	require.NoError(t, entry.SetAttribute("title", "Hello"))
	require.NoError(t, entry.SetAttribute("authorId", 3))
	require.NoError(t, entry.SetAttribute("postDate", "2024-05-01T10:00:00Z"))
	require.Equal(t, "Hello", entry.Title)
	require.Equal(t, int64(3), entry.AuthorID)
	require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), *entry.PostDate)

	require.False(t, entry.CanSetAttribute("id"))
	require.False(t, entry.CanSetAttribute("email"))
	require.Error(t, entry.SetAttribute("email", "a@b.c"))

	user := New(KindUser)
	require.True(t, user.CanSetAttribute("email"))
	require.False(t, user.CanSetAttribute("title"))
}

func TestSetAttributeConversionErrors(t *testing.T) {
	entry := New(KindEntry)
	require.Error(t, entry.SetAttribute("authorId", 1.5))
	require.Error(t, entry.SetAttribute("postDate", "yesterday"))
	require.Error(t, entry.SetAttribute("enabled", []any{true}))
}

func TestFirstErrorsKeepAttributeOrder(t *testing.T) {
	el := New(KindEntry)
	el.AddError("title", "Title cannot be blank.")
	el.AddError("slug", "Slug cannot be blank.")
	el.AddError("title", "Title is too short.")

	if diff := cmp.Diff([]string{"Title cannot be blank.", "Slug cannot be blank."}, el.FirstErrors()); diff != "" {
		t.Fatalf("first errors mismatch (-want +got):\n%s", diff)
	}
	el.ClearErrors()
	require.False(t, el.HasErrors())
}

func TestStatus(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	el := New(KindEntry)
	require.Equal(t, StatusLive, el.Status(now))

	el.PostDate = &future
	require.Equal(t, StatusPending, el.Status(now))

	el.PostDate = &past
	el.ExpiryDate = &past
	require.Equal(t, StatusExpired, el.Status(now))

	el.Enabled = false
	require.Equal(t, StatusDisabled, el.Status(now))
}

func TestPropertyFallsBackToFieldValues(t *testing.T) {
	el := New(KindEntry)
	el.ID = 7
	el.SetFieldValue("body", "text")

	v, ok := el.Property("id")
	require.True(t, ok)
	require.Equal(t, int64(7), v)

	v, ok = el.Property("body")
	require.True(t, ok)
	require.Equal(t, "text", v)

	_, ok = el.Property("missing")
	require.False(t, ok)
}

func TestCloneDetachesFieldValues(t *testing.T) {
	el := New(KindEntry)
	el.SetFieldValue("body", "a")
	el.SetEagerLoaded("topics", []*Element{New(KindCategory)})

	c := el.Clone()
	c.SetFieldValue("body", "b")

	v, _ := el.FieldValue("body")
	require.Equal(t, "a", v)
	_, ok := c.EagerLoaded("topics")
	require.False(t, ok)
	require.Equal(t, ScenarioDefault, c.Scenario())
}
