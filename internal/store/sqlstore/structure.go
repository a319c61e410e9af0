package sqlstore

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

// loadTree reads a structure into memory. Rows are applied in sibling order
// so appending rebuilds the same tree.
func (s *Store) loadTree(tx *gorm.DB, structureID int64) (*content.Tree, error) {
	var nodes []structureNodeRow
	if err := tx.Where("structure_id = ?", structureID).
		Order("level, parent_id, sort_order").Find(&nodes).Error; err != nil {
		return nil, errors.Wrapf(err, "load structure %d", structureID)
	}
	st := content.NewTree()
	for _, n := range nodes {
		st.Insert(n.ElementID, n.ParentID, -1)
	}
	return st, nil
}

// writeTree stores the position of every node and mirrors parent and level
// onto the element rows.
func (s *Store) writeTree(tx *gorm.DB, structureID int64, st *content.Tree) error {
	for i, id := range st.Descendants(0) {
		node := structureNodeRow{
			StructureID: structureID,
			ElementID:   id,
			ParentID:    st.Parent(id),
			SortOrder:   st.Index(id),
			Level:       st.Level(id),
			Position:    i,
		}
		if err := tx.Save(&node).Error; err != nil {
			return errors.Wrapf(err, "save structure node %d", id)
		}
		if err := tx.Model(&elementRow{}).Where("id = ?", id).Updates(map[string]any{
			"structure_id": structureID,
			"parent_id":    node.ParentID,
			"level":        node.Level,
		}).Error; err != nil {
			return errors.Wrapf(err, "update element %d", id)
		}
	}
	return nil
}

// detach removes id from a structure it is leaving. Its children move up.
func (s *Store) detach(tx *gorm.DB, structureID, id int64) error {
	st, err := s.loadTree(tx, structureID)
	if err != nil {
		return err
	}
	st.Lift(id)
	if err := tx.Where("structure_id = ? AND element_id = ?", structureID, id).
		Delete(&structureNodeRow{}).Error; err != nil {
		return errors.Wrap(err, "delete structure node")
	}
	return s.writeTree(tx, structureID, st)
}

func (s *Store) placeTx(tx *gorm.DB, structureID int64, el *element.Element, where content.PlaceFunc) error {
	st, err := s.loadTree(tx, structureID)
	if err != nil {
		return err
	}
	if err := st.Place(el.ID, where); err != nil {
		return errors.Wrapf(err, "structure %d", structureID)
	}
	if err := s.writeTree(tx, structureID, st); err != nil {
		return err
	}
	el.StructureID = structureID
	el.ParentID = st.Parent(el.ID)
	el.Level = st.Level(el.ID)
	return nil
}

func (s *Store) place(ctx context.Context, structureID int64, el *element.Element, where content.PlaceFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&elementRow{}).Where("id = ?", el.ID).Count(&n).Error; err != nil {
			return errors.Wrap(err, "load element")
		}
		if n == 0 {
			return errors.Errorf("element %d not found", el.ID)
		}
		return s.placeTx(tx, structureID, el, where)
	})
}

func (s *Store) Prepend(ctx context.Context, structureID int64, el, parent *element.Element) error {
	return s.place(ctx, structureID, el, content.Under(parent.ID, true))
}

func (s *Store) Append(ctx context.Context, structureID int64, el, parent *element.Element) error {
	return s.place(ctx, structureID, el, content.Under(parent.ID, false))
}

func (s *Store) PrependToRoot(ctx context.Context, structureID int64, el *element.Element) error {
	return s.place(ctx, structureID, el, content.Under(0, true))
}

func (s *Store) AppendToRoot(ctx context.Context, structureID int64, el *element.Element) error {
	return s.place(ctx, structureID, el, content.Under(0, false))
}

func (s *Store) MoveBefore(ctx context.Context, structureID int64, el, target *element.Element) error {
	return s.place(ctx, structureID, el, content.Beside(target.ID, false))
}

func (s *Store) MoveAfter(ctx context.Context, structureID int64, el, target *element.Element) error {
	return s.place(ctx, structureID, el, content.Beside(target.ID, true))
}
