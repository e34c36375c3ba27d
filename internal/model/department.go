package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Department owns a set of canonical category labels. Aggregate counters are never stored
// here; they are recomputed from the live complaint set.
type Department struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string                      `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	LocalizedName string                      `gorm:"type:varchar(255)" json:"localized_name"`
	HeadUserID    *uuid.UUID                  `gorm:"type:uuid" json:"head_user_id"`
	Categories    datatypes.JSONSlice[string] `gorm:"not null" json:"categories"`
	Priority      int                         `gorm:"not null" json:"priority"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Department) TableName() string {
	return "departments"
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
