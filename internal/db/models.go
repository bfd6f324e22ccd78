package db

import (
	"time"

	"gorm.io/datatypes"
)

// CollectionRow is one appended sheet row. Cells keeps the full row in
// column order; Date and SiteName are copied out for indexing.
type CollectionRow struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time

	Date     string `gorm:"index;not null"`
	SiteName string `gorm:"index;not null"`

	Cells datatypes.JSONSlice[string] `gorm:"not null"`
}
