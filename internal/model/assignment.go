package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplaintAssignment struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"complaint_id"`
	WorkerID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"worker_id"`
	DepartmentID        *uuid.UUID `gorm:"type:uuid" json:"department_id"`
	AssignedByUserID    uuid.UUID  `gorm:"type:uuid;not null" json:"assigned_by_user_id"`
	EstimatedCompletion *time.Time `json:"estimated_completion"`
	AssignedAt          time.Time  `gorm:"not null" json:"assigned_at"`
	UnassignedAt        *time.Time `json:"unassigned_at"`
	IsActive            bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ComplaintAssignment) TableName() string {
	return "complaint_assignments"
}

func (ca *ComplaintAssignment) BeforeCreate(tx *gorm.DB) error {
	if ca.ID == uuid.Nil {
		ca.ID = uuid.New()
	}
	if ca.AssignedAt.IsZero() {
		ca.AssignedAt = time.Now()
	}
	return nil
}
