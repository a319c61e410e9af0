// Package sqlstore implements the content services on Postgres through gorm.
// Custom field values live in a jsonb column; relation field values are rows
// of the relations table and structure positions rows of structure_nodes.
package sqlstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

// Store implements content.Store and content.Sites.
type Store struct {
	db    *gorm.DB
	model *content.Model

	now func() time.Time
}

var _ content.Store = (*Store)(nil)

// Options configure the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// Open connects to Postgres.
func Open(dsn string, model *content.Model, opts Options) (*Store, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(opts.LogLevel),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 10
	}
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 100
	}
	if opts.ConnMaxLifetime == 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	return New(db, model), nil
}

func New(db *gorm.DB, model *content.Model) *Store {
	return &Store{db: db, model: model, now: time.Now}
}

// AutoMigrate creates or updates the tables.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&elementRow{}, &relationRow{}, &structureNodeRow{})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Model returns the content model the store validates against.
func (s *Store) Model() *content.Model { return s.model }

func (s *Store) SiteByHandle(ctx context.Context, handle string) (*content.Site, error) {
	return s.model.SiteByHandle(ctx, handle)
}

func (s *Store) NewQuery(kind element.Kind) content.Query {
	return s.newQuery(kind)
}

// ElementByID implements content.Finder.
func (s *Store) ElementByID(ctx context.Context, id int64, siteID int64) (*element.Element, error) {
	return s.findOne(ctx, siteID, "id = ?", id)
}

// ElementByUID implements content.Finder.
func (s *Store) ElementByUID(ctx context.Context, uid string, siteID int64) (*element.Element, error) {
	return s.findOne(ctx, siteID, "uid = ?", uid)
}

func (s *Store) findOne(ctx context.Context, siteID int64, cond string, arg any) (*element.Element, error) {
	db := s.db.WithContext(ctx).Where(cond, arg)
	if siteID != 0 {
		db = db.Where("site_id = ?", siteID)
	}
	var row elementRow
	if err := db.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find element")
	}
	els, err := s.hydrate(ctx, s.db.WithContext(ctx), []elementRow{row})
	if err != nil {
		return nil, err
	}
	return els[0], nil
}

// Save validates el under its scenario and stores it with its relations.
// New elements get an ID, a UID and, inside a structure, a place at the end
// of the root.
func (s *Store) Save(ctx context.Context, el *element.Element) (bool, error) {
	if !el.Kind.Valid() {
		return false, errors.Errorf("unknown element kind %q", el.Kind)
	}
	s.model.PrepareElement(el)
	el.ClearErrors()

	var lookupErr error
	s.model.ValidateElement(el, func(el *element.Element) bool {
		taken, err := s.slugTaken(ctx, el)
		if err != nil {
			lookupErr = err
		}
		return taken
	})
	if lookupErr != nil {
		return false, lookupErr
	}
	if el.HasErrors() {
		return false, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.saveTx(tx, el)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) saveTx(tx *gorm.DB, el *element.Element) error {
	now := s.now().UTC()
	var existing *elementRow
	if el.ID != 0 {
		var row elementRow
		if err := tx.First(&row, el.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Errorf("element %d not found", el.ID)
			}
			return errors.Wrap(err, "load element")
		}
		existing = &row
	}

	if existing == nil {
		el.DateCreated = now
	} else {
		el.DateCreated = existing.CreatedAt
		el.ParentID, el.Level = existing.ParentID, existing.Level
		if existing.StructureID != 0 && existing.StructureID != el.StructureID {
			if err := s.detach(tx, existing.StructureID, el.ID); err != nil {
				return err
			}
			el.ParentID, el.Level = 0, 0
		}
	}
	if el.UID == "" {
		el.UID = uuid.NewString()
	}
	el.DateUpdated = now
	el.URL = s.model.ElementURL(el)

	row, err := s.toRow(el)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := tx.Create(&row).Error; err != nil {
			return errors.Wrap(err, "create element")
		}
		el.ID = row.ID
	} else if err := tx.Save(&row).Error; err != nil {
		return errors.Wrap(err, "update element")
	}

	if err := s.saveRelations(tx, el); err != nil {
		return err
	}
	if el.StructureID != 0 {
		var n int64
		if err := tx.Model(&structureNodeRow{}).
			Where("structure_id = ? AND element_id = ?", el.StructureID, el.ID).
			Count(&n).Error; err != nil {
			return errors.Wrap(err, "load structure node")
		}
		if n == 0 {
			return s.placeTx(tx, el.StructureID, el, content.Under(0, false))
		}
	}
	return nil
}

func (s *Store) saveRelations(tx *gorm.DB, el *element.Element) error {
	if err := tx.Where("source_id = ?", el.ID).Delete(&relationRow{}).Error; err != nil {
		return errors.Wrap(err, "clear relations")
	}
	var rows []relationRow
	for _, f := range s.model.FieldsFor(el) {
		if !f.IsRelation() {
			continue
		}
		for i, id := range el.RelationIDs(f.Handle) {
			rows = append(rows, relationRow{SourceID: el.ID, Field: f.Handle, TargetID: id, SortOrder: i})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return errors.Wrap(tx.Create(&rows).Error, "create relations")
}

// Delete removes el, its relations and, inside a structure, its descendants.
func (s *Store) Delete(ctx context.Context, el *element.Element) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row elementRow
		if err := tx.First(&row, el.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Errorf("element %d not found", el.ID)
			}
			return errors.Wrap(err, "load element")
		}
		ids := []int64{row.ID}
		if row.StructureID != 0 {
			st, err := s.loadTree(tx, row.StructureID)
			if err != nil {
				return err
			}
			if st.Contains(row.ID) {
				ids = append(ids, st.Descendants(row.ID)...)
				for i := len(ids) - 1; i >= 0; i-- {
					st.Remove(ids[i])
				}
				if err := tx.Where("structure_id = ? AND element_id IN ?", row.StructureID, ids).
					Delete(&structureNodeRow{}).Error; err != nil {
					return errors.Wrap(err, "delete structure nodes")
				}
				if err := s.writeTree(tx, row.StructureID, st); err != nil {
					return err
				}
			}
		}
		if err := tx.Where("source_id IN ? OR target_id IN ?", ids, ids).Delete(&relationRow{}).Error; err != nil {
			return errors.Wrap(err, "delete relations")
		}
		return errors.Wrap(tx.Where("id IN ?", ids).Delete(&elementRow{}).Error, "delete elements")
	})
}

// slugTaken reports whether another element of the same section or group
// and site uses el's slug.
func (s *Store) slugTaken(ctx context.Context, el *element.Element) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&elementRow{}).
		Where("id <> ? AND kind = ? AND site_id = ? AND section_id = ? AND group_id = ? AND slug = ?",
			el.ID, string(el.Kind), el.SiteID, el.SectionID, el.GroupID, el.Slug).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "check slug")
	}
	return n > 0, nil
}

// toRow copies el into a row. Relation field values are stored separately.
func (s *Store) toRow(el *element.Element) (elementRow, error) {
	values := map[string]any{}
	for _, handle := range el.FieldHandles() {
		if f := s.model.Field(handle); f != nil && f.IsRelation() {
			continue
		}
		v, _ := el.FieldValue(handle)
		values[handle] = v
	}
	b, err := json.Marshal(values)
	if err != nil {
		return elementRow{}, errors.Wrap(err, "encode field values")
	}
	return elementRow{
		ID:          el.ID,
		UID:         el.UID,
		Kind:        string(el.Kind),
		SiteID:      el.SiteID,
		SectionID:   el.SectionID,
		TypeID:      el.TypeID,
		GroupID:     el.GroupID,
		StructureID: el.StructureID,
		ParentID:    el.ParentID,
		Level:       el.Level,
		Enabled:     el.Enabled,
		Title:       el.Title,
		Slug:        el.Slug,
		PostDate:    el.PostDate,
		ExpiryDate:  el.ExpiryDate,
		AuthorID:    el.AuthorID,
		Filename:    el.Filename,
		URL:         el.URL,
		Email:       el.Email,
		Username:    el.Username,
		Content:     string(b),
		CreatedAt:   el.DateCreated,
		UpdatedAt:   el.DateUpdated,
	}, nil
}

// hydrate turns rows into elements, loading every relation in one query.
func (s *Store) hydrate(ctx context.Context, db *gorm.DB, rows []elementRow) ([]*element.Element, error) {
	if len(rows) == 0 {
		return []*element.Element{}, nil
	}
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var rels []relationRow
	if err := db.WithContext(ctx).Where("source_id IN ?", ids).
		Order("source_id, field, sort_order").Find(&rels).Error; err != nil {
		return nil, errors.Wrap(err, "load relations")
	}
	bySource := map[int64]map[string][]int64{}
	for _, r := range rels {
		if bySource[r.SourceID] == nil {
			bySource[r.SourceID] = map[string][]int64{}
		}
		bySource[r.SourceID][r.Field] = append(bySource[r.SourceID][r.Field], r.TargetID)
	}

	out := make([]*element.Element, len(rows))
	for i, r := range rows {
		el, err := s.fromRow(r, bySource[r.ID])
		if err != nil {
			return nil, err
		}
		out[i] = el
	}
	return out, nil
}

func (s *Store) fromRow(r elementRow, relations map[string][]int64) (*element.Element, error) {
	el := element.New(element.Kind(r.Kind))
	el.ID = r.ID
	el.UID = r.UID
	el.SiteID = r.SiteID
	el.SectionID = r.SectionID
	el.TypeID = r.TypeID
	el.GroupID = r.GroupID
	el.StructureID = r.StructureID
	el.ParentID = r.ParentID
	el.Level = r.Level
	el.Enabled = r.Enabled
	el.Title = r.Title
	el.Slug = r.Slug
	el.PostDate = utcPtr(r.PostDate)
	el.ExpiryDate = utcPtr(r.ExpiryDate)
	el.AuthorID = r.AuthorID
	el.Filename = r.Filename
	el.URL = r.URL
	el.Email = r.Email
	el.Username = r.Username
	el.DateCreated = r.CreatedAt.UTC()
	el.DateUpdated = r.UpdatedAt.UTC()

	var values map[string]any
	if r.Content != "" {
		if err := json.Unmarshal([]byte(r.Content), &values); err != nil {
			return nil, errors.Wrapf(err, "decode field values of element %d", r.ID)
		}
	}
	for handle, v := range values {
		if f := s.model.Field(handle); f != nil {
			nv, err := f.Normalize(v)
			if err != nil {
				return nil, errors.Wrapf(err, "element %d", r.ID)
			}
			v = nv
		}
		el.SetFieldValue(handle, v)
	}
	for _, f := range s.model.FieldsFor(el) {
		if !f.IsRelation() {
			continue
		}
		ids := relations[f.Handle]
		if ids == nil {
			ids = []int64{}
		}
		el.SetFieldValue(f.Handle, ids)
	}
	return el, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
