package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusHistoryEntry is append-only: rows are inserted with the transition and never updated.
type StatusHistoryEntry struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"complaint_id"`
	Status        ComplaintStatus `gorm:"type:complaint_status;not null" json:"status"`
	ChangedByID   uuid.UUID       `gorm:"type:uuid;not null" json:"changed_by_id"`
	ChangedByRole Role            `gorm:"type:varchar(32);not null" json:"changed_by_role"`
	Notes         *string         `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `gorm:"not null;index" json:"created_at"`
}

func (StatusHistoryEntry) TableName() string {
	return "complaint_status_history"
}

func (e *StatusHistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return nil
}

func (e *StatusHistoryEntry) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrNotImplemented
}
