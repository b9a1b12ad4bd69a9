package models

// GroupCount is the denormalized per-group membership count, maintained by
// the person repository as a side effect of person mutations. A row only
// exists while its count is positive.
type GroupCount struct {
	Name  string `gorm:"primaryKey" json:"group"`
	Count int    `gorm:"not null" json:"count"`
}

// TableName explicitly sets the table name for GORM.
func (GroupCount) TableName() string {
	return "group_counts"
}
