package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/contentql/internal/element"
)

func pageOrder(t *testing.T, s *Store) []int64 {
	t.Helper()
	return queryIDs(t, s, element.KindEntry, map[string]any{"section": "pages", "status": nil})
}

func TestSeedPlacesChildren(t *testing.T) {
	s := seededStore(t)
	require.Equal(t, []int64{40, 41, 42}, pageOrder(t, s))

	child := s.get(41)
	require.Equal(t, int64(40), child.ParentID)
	require.Equal(t, 2, child.Level)
	require.Equal(t, int64(1), child.StructureID)
}

func TestStructureMoves(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	careers := element.New(element.KindEntry)
	careers.SectionID = 2
	careers.Title = "Careers"
	ok, err := s.Save(ctx, careers)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []int64{40, 41, 42, careers.ID}, pageOrder(t, s))
	require.Equal(t, 1, careers.Level)

	about, contact := s.get(40).Clone(), s.get(42).Clone()

	require.NoError(t, s.MoveBefore(ctx, 1, careers, about))
	require.Equal(t, []int64{careers.ID, 40, 41, 42}, pageOrder(t, s))

	require.NoError(t, s.Append(ctx, 1, about, contact))
	require.Equal(t, []int64{careers.ID, 42, 40, 41}, pageOrder(t, s))
	require.Equal(t, 2, about.Level)
	require.Equal(t, 3, s.get(41).Level)

	require.NoError(t, s.Prepend(ctx, 1, careers, contact))
	require.Equal(t, []int64{42, careers.ID, 40, 41}, pageOrder(t, s))
	require.Equal(t, int64(42), careers.ParentID)

	require.NoError(t, s.MoveAfter(ctx, 1, careers, about))
	require.Equal(t, []int64{42, 40, 41, careers.ID}, pageOrder(t, s))

	require.NoError(t, s.PrependToRoot(ctx, 1, careers))
	require.Equal(t, []int64{careers.ID, 42, 40, 41}, pageOrder(t, s))
	require.Equal(t, 1, careers.Level)
	require.Zero(t, careers.ParentID)

	require.NoError(t, s.AppendToRoot(ctx, 1, about))
	require.Equal(t, []int64{careers.ID, 42, 40, 41}, pageOrder(t, s))
	require.Equal(t, 2, s.get(41).Level)
}

func TestStructureRejectsCycles(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	about, notes := s.get(40).Clone(), s.get(41).Clone()

	err := s.Append(ctx, 1, about, notes)
	require.EqualError(t, err, "structure 1: element 40 cannot be moved into its own subtree")
	require.Equal(t, []int64{40, 41, 42}, pageOrder(t, s))
}
