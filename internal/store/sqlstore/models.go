package sqlstore

import (
	"time"
)

type elementRow struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UID         string     `gorm:"column:uid;type:varchar(36);uniqueIndex;not null"`
	Kind        string     `gorm:"column:kind;type:varchar(16);index;not null"`
	SiteID      int64      `gorm:"column:site_id;index;not null"`
	SectionID   int64      `gorm:"column:section_id;index"`
	TypeID      int64      `gorm:"column:type_id"`
	GroupID     int64      `gorm:"column:group_id;index"`
	StructureID int64      `gorm:"column:structure_id"`
	ParentID    int64      `gorm:"column:parent_id"`
	Level       int        `gorm:"column:level"`
	Enabled     bool       `gorm:"column:enabled;not null"`
	Title       string     `gorm:"column:title;type:varchar(255)"`
	Slug        string     `gorm:"column:slug;type:varchar(255);index"`
	PostDate    *time.Time `gorm:"column:post_date;type:timestamp"`
	ExpiryDate  *time.Time `gorm:"column:expiry_date;type:timestamp"`
	AuthorID    int64      `gorm:"column:author_id"`
	Filename    string     `gorm:"column:filename;type:varchar(255)"`
	URL         string     `gorm:"column:url;type:varchar(255)"`
	Email       string     `gorm:"column:email;type:varchar(255)"`
	Username    string     `gorm:"column:username;type:varchar(255)"`
	Content     string     `gorm:"column:content;type:jsonb;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamp;not null"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;type:timestamp;not null"`
}

func (elementRow) TableName() string {
	return "elements"
}

// relationRow is one target of a relation field, in field order.
type relationRow struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	SourceID  int64  `gorm:"column:source_id;index:idx_relations_source;not null"`
	Field     string `gorm:"column:field;type:varchar(64);index:idx_relations_source;not null"`
	TargetID  int64  `gorm:"column:target_id;index;not null"`
	SortOrder int    `gorm:"column:sort_order;not null"`
}

func (relationRow) TableName() string {
	return "relations"
}

type structureNodeRow struct {
	StructureID int64 `gorm:"column:structure_id;primaryKey;autoIncrement:false"`
	ElementID   int64 `gorm:"column:element_id;primaryKey;autoIncrement:false"`
	ParentID    int64 `gorm:"column:parent_id;not null"`
	SortOrder   int   `gorm:"column:sort_order;not null"`
	Level       int   `gorm:"column:level;not null"`
	// Position is the depth-first index of the node within its structure.
	Position int `gorm:"column:position;not null"`
}

func (structureNodeRow) TableName() string {
	return "structure_nodes"
}
