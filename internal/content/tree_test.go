package content

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTree(t *testing.T) {
	tr := NewTree()
	tr.Insert(1, 0, -1)
	tr.Insert(2, 0, -1)
	tr.Insert(3, 1, -1)
	tr.Insert(4, 1, 0)
	tr.Insert(5, 3, -1)

	require.Equal(t, []int64{1, 4, 3, 5, 2}, tr.Descendants(0))
	require.Equal(t, []int64{4, 3}, tr.Children(1))
	require.Equal(t, 3, tr.Level(5))
	require.Equal(t, int64(3), tr.Parent(5))
	require.True(t, tr.IsDescendant(5, 1))
	require.False(t, tr.IsDescendant(2, 1))
	require.Equal(t, 1, tr.Index(3))
	require.Equal(t, -1, tr.Index(9))

	tr.Remove(3)
	require.False(t, tr.Contains(3))
	require.Equal(t, []int64{1, 4, 2}, tr.Descendants(0))
	// The detached subtree comes back with the element.
	tr.Insert(3, 2, -1)
	require.Equal(t, map[int64]int{1: 0, 4: 1, 2: 2, 3: 3, 5: 4}, tr.Positions())
}

func TestTreePlace(t *testing.T) {
	tr := NewTree()
	for _, id := range []int64{1, 2, 3} {
		tr.Insert(id, 0, -1)
	}

	require.NoError(t, tr.Place(3, Under(1, true)))
	require.NoError(t, tr.Place(4, Beside(3, true)))
	require.Equal(t, []int64{1, 3, 4, 2}, tr.Descendants(0))
	require.NoError(t, tr.Place(2, Beside(1, false)))
	require.Equal(t, []int64{2, 1, 3, 4}, tr.Descendants(0))

	require.EqualError(t, tr.Place(1, Under(4, false)), "element 1 cannot be moved into its own subtree")
	require.EqualError(t, tr.Place(2, Beside(9, false)), "element 9 is not in the structure")
	require.Equal(t, []int64{2, 1, 3, 4}, tr.Descendants(0))
	require.Equal(t, 1, tr.Index(1))
}

func TestTreeLift(t *testing.T) {
	tr := NewTree()
	tr.Insert(1, 0, -1)
	tr.Insert(2, 1, -1)
	tr.Insert(3, 1, -1)
	tr.Insert(4, 0, -1)

	tr.Lift(1)
	require.False(t, tr.Contains(1))
	require.Equal(t, []int64{4, 2, 3}, tr.Descendants(0))
	require.Equal(t, 1, tr.Level(2))
}
