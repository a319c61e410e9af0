package content

import "github.com/pkg/errors"

// Tree is an ordered hierarchy of element IDs, the shape of a structure.
// Parent 0 is the root.
type Tree struct {
	children map[int64][]int64
	parent   map[int64]int64
}

func NewTree() *Tree {
	return &Tree{children: map[int64][]int64{}, parent: map[int64]int64{}}
}

func (t *Tree) Contains(id int64) bool {
	_, ok := t.parent[id]
	return ok
}

// Parent returns the parent of id, 0 for root-level elements.
func (t *Tree) Parent(id int64) int64 { return t.parent[id] }

// Children returns the ordered children of parent.
func (t *Tree) Children(parent int64) []int64 { return t.children[parent] }

// Insert places id under parent at index; a negative or out of range index
// appends.
func (t *Tree) Insert(id, parent int64, index int) {
	siblings := t.children[parent]
	if index < 0 || index > len(siblings) {
		index = len(siblings)
	}
	siblings = append(siblings, 0)
	copy(siblings[index+1:], siblings[index:])
	siblings[index] = id
	t.children[parent] = siblings
	t.parent[id] = parent
}

// Remove detaches id from its parent. Its own children stay attached to it.
func (t *Tree) Remove(id int64) {
	p, ok := t.parent[id]
	if !ok {
		return
	}
	siblings := t.children[p]
	out := siblings[:0]
	for _, x := range siblings {
		if x != id {
			out = append(out, x)
		}
	}
	t.children[p] = out
	delete(t.parent, id)
}

// Lift removes id and hands its children, in order, to its parent.
func (t *Tree) Lift(id int64) {
	if !t.Contains(id) {
		return
	}
	parent := t.parent[id]
	for _, child := range append([]int64(nil), t.children[id]...) {
		t.Insert(child, parent, -1)
	}
	delete(t.children, id)
	t.Remove(id)
}

// Index returns the position of id among its siblings, or -1.
func (t *Tree) Index(id int64) int {
	if !t.Contains(id) {
		return -1
	}
	for i, c := range t.children[t.parent[id]] {
		if c == id {
			return i
		}
	}
	return -1
}

// Level is 1 for root-level elements.
func (t *Tree) Level(id int64) int {
	l := 0
	for cur := id; cur != 0; cur = t.parent[cur] {
		l++
	}
	return l
}

// Descendants lists the subtree below id depth-first.
func (t *Tree) Descendants(id int64) []int64 {
	var out []int64
	for _, c := range t.children[id] {
		out = append(out, c)
		out = append(out, t.Descendants(c)...)
	}
	return out
}

func (t *Tree) IsDescendant(id, ancestor int64) bool {
	if !t.Contains(id) {
		return false
	}
	for cur := t.parent[id]; cur != 0; cur = t.parent[cur] {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Positions numbers every element in depth-first order.
func (t *Tree) Positions() map[int64]int {
	pos := make(map[int64]int, len(t.parent))
	for i, id := range t.Descendants(0) {
		pos[id] = i
	}
	return pos
}

// PlaceFunc picks the new parent and sibling index of an element once it is
// detached from the tree.
type PlaceFunc func(t *Tree) (parent int64, index int, err error)

// Under places an element first or last among the children of parent.
func Under(parent int64, first bool) PlaceFunc {
	return func(*Tree) (int64, int, error) {
		if first {
			return parent, 0, nil
		}
		return parent, -1, nil
	}
}

// Beside places an element right before or after target.
func Beside(target int64, after bool) PlaceFunc {
	return func(t *Tree) (int64, int, error) {
		if !t.Contains(target) {
			return 0, 0, errors.Errorf("element %d is not in the structure", target)
		}
		i := t.Index(target)
		if after {
			i++
		}
		return t.Parent(target), i, nil
	}
}

// Place moves id, with its subtree, to the position chosen by where. On
// failure the tree is left unchanged.
func (t *Tree) Place(id int64, where PlaceFunc) error {
	wasIn := t.Contains(id)
	prevParent, prevIndex := t.Parent(id), t.Index(id)
	t.Remove(id)

	parent, index, err := where(t)
	if err == nil && parent != 0 {
		switch {
		case !t.Contains(parent):
			err = errors.Errorf("element %d is not in the structure", parent)
		case parent == id || t.IsDescendant(parent, id):
			err = errors.Errorf("element %d cannot be moved into its own subtree", id)
		}
	}
	if err != nil {
		if wasIn {
			t.Insert(id, prevParent, prevIndex)
		}
		return err
	}
	t.Insert(id, parent, index)
	return nil
}
