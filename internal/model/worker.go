package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WorkerAvailability string

const (
	WorkerAvailabilityAvailable WorkerAvailability = "available"
	WorkerAvailabilityBusy      WorkerAvailability = "busy"
	WorkerAvailabilityOffline   WorkerAvailability = "offline"
)

func (a WorkerAvailability) Valid() bool {
	switch a {
	case WorkerAvailabilityAvailable, WorkerAvailabilityBusy, WorkerAvailabilityOffline:
		return true
	}
	return false
}

const maxEfficiencyRating = 5.0

type WorkerProfile struct {
	ID                     uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                 uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	DepartmentID           *uuid.UUID                  `gorm:"type:uuid;index" json:"department_id"`
	Specializations        datatypes.JSONSlice[string] `json:"specializations"`
	EfficiencyRating       float64                     `gorm:"not null;default:0" json:"efficiency_rating"`
	TotalAssigned          int64                       `gorm:"not null;default:0" json:"total_assigned"`
	TotalCompleted         int64                       `gorm:"not null;default:0" json:"total_completed"`
	AverageCompletionHours float64                     `gorm:"not null;default:0" json:"average_completion_hours"`
	Availability           WorkerAvailability          `gorm:"type:varchar(16);not null;default:available" json:"availability"`
	LastLatitude           *float64                    `json:"last_latitude"`
	LastLongitude          *float64                    `json:"last_longitude"`
	LastSeenAt             *time.Time                  `json:"last_seen_at"`
	CreatedAt              time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WorkerProfile) TableName() string {
	return "worker_profiles"
}

func (w *WorkerProfile) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.Availability == "" {
		w.Availability = WorkerAvailabilityAvailable
	}
	return nil
}

func (w *WorkerProfile) RecordAssignment() {
	w.TotalAssigned++
	w.recomputeEfficiency()
}

// RecordCompletion folds one completion into the counters and the running mean.
func (w *WorkerProfile) RecordCompletion(took time.Duration) {
	hours := took.Hours()
	if hours < 0 {
		hours = 0
	}
	w.AverageCompletionHours = (w.AverageCompletionHours*float64(w.TotalCompleted) + hours) / float64(w.TotalCompleted+1)
	w.AverageCompletionHours = round2(w.AverageCompletionHours)
	w.TotalCompleted++
	w.recomputeEfficiency()
}

func (w *WorkerProfile) recomputeEfficiency() {
	if w.TotalAssigned <= 0 {
		w.EfficiencyRating = 0
		return
	}
	rating := maxEfficiencyRating * float64(w.TotalCompleted) / float64(w.TotalAssigned)
	w.EfficiencyRating = round2(math.Max(0, math.Min(maxEfficiencyRating, rating)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
