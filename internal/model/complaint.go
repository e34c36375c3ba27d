package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ComplaintStatus string

const (
	ComplaintStatusSubmitted ComplaintStatus = "submitted"
	ComplaintStatusAssigned  ComplaintStatus = "assigned"
	ComplaintStatusCompleted ComplaintStatus = "completed"
)

func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusSubmitted, ComplaintStatusAssigned, ComplaintStatusCompleted:
		return true
	}
	return false
}

type ComplaintPriority string

const (
	ComplaintPriorityLow    ComplaintPriority = "low"
	ComplaintPriorityMedium ComplaintPriority = "medium"
	ComplaintPriorityHigh   ComplaintPriority = "high"
)

func (p ComplaintPriority) Valid() bool {
	switch p {
	case ComplaintPriorityLow, ComplaintPriorityMedium, ComplaintPriorityHigh:
		return true
	}
	return false
}

type Complaint struct {
	ID                   uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	ReporterID           uuid.UUID                   `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Categories           datatypes.JSONSlice[string] `gorm:"not null" json:"categories"`
	Note                 string                      `gorm:"type:text" json:"note"`
	Latitude             float64                     `gorm:"not null" json:"latitude"`
	Longitude            float64                     `gorm:"not null" json:"longitude"`
	Ward                 *string                     `gorm:"type:varchar(100)" json:"ward"`
	ImageURL             string                      `gorm:"type:text;not null" json:"image_url"`
	CompletionImageURL   *string                     `gorm:"type:text" json:"completion_image_url"`
	Status               ComplaintStatus             `gorm:"type:complaint_status;not null;default:submitted;index" json:"status"`
	Priority             ComplaintPriority           `gorm:"type:complaint_priority;not null;default:medium" json:"priority"`
	AssignedWorkerID     *uuid.UUID                  `gorm:"type:uuid;index" json:"assigned_worker_id"`
	AssignedDepartmentID *uuid.UUID                  `gorm:"type:uuid;index" json:"assigned_department_id"`
	EstimatedCompletion  *time.Time                  `json:"estimated_completion"`
	CompletionNotes      *string                     `gorm:"type:text" json:"completion_notes"`
	CitizenRating        *int                        `json:"citizen_rating"`
	CitizenFeedback      *string                     `gorm:"type:text" json:"citizen_feedback"`
	CompletedAt          *time.Time                  `json:"completed_at"`
	Version              int64                       `gorm:"not null;default:1" json:"version"`
	CreatedAt            time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Complaint) TableName() string {
	return "complaints"
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	return nil
}

// ResolutionDuration is the time from submission to the first completion.
func (c *Complaint) ResolutionDuration() (time.Duration, bool) {
	if c.Status != ComplaintStatusCompleted || c.CompletedAt == nil {
		return 0, false
	}
	d := c.CompletedAt.Sub(c.CreatedAt)
	if d < 0 {
		return 0, true
	}
	return d, true
}
