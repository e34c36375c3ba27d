package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

// ErrStaleVersion is returned when a complaint changed between read and write.
var ErrStaleVersion = errors.New("complaint was modified concurrently")

type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

func (r *ComplaintRepository) Create(ctx context.Context, complaint *model.Complaint) error {
	return r.db.WithContext(ctx).Create(complaint).Error
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error) {
	var complaint model.Complaint
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&complaint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &complaint, nil
}

// ApplyChanges writes the mutable columns of complaint if its stored version still equals
// expectedVersion, then bumps the version.
func (r *ComplaintRepository) ApplyChanges(ctx context.Context, complaint *model.Complaint, expectedVersion int64) error {
	now := time.Now()
	if now.Before(complaint.CreatedAt) {
		now = complaint.CreatedAt
	}

	result := r.db.WithContext(ctx).Model(&model.Complaint{}).
		Where("id = ? AND version = ?", complaint.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":                 complaint.Status,
			"priority":               complaint.Priority,
			"assigned_worker_id":     complaint.AssignedWorkerID,
			"assigned_department_id": complaint.AssignedDepartmentID,
			"estimated_completion":   complaint.EstimatedCompletion,
			"completion_image_url":   complaint.CompletionImageURL,
			"completion_notes":       complaint.CompletionNotes,
			"citizen_rating":         complaint.CitizenRating,
			"citizen_feedback":       complaint.CitizenFeedback,
			"completed_at":           complaint.CompletedAt,
			"version":                expectedVersion + 1,
			"updated_at":             now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}

	complaint.Version = expectedVersion + 1
	complaint.UpdatedAt = now
	return nil
}

type ComplaintFilter struct {
	ReporterID *uuid.UUID
	WorkerID   *uuid.UUID
	// DepartmentID matches complaints assigned to the department or to no department.
	DepartmentID *uuid.UUID
	Status       *model.ComplaintStatus
	Priority     *model.ComplaintPriority
	CreatedFrom  *time.Time
}

func (r *ComplaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]model.Complaint, error) {
	var complaints []model.Complaint
	query := r.db.WithContext(ctx).Model(&model.Complaint{})

	if filter.ReporterID != nil {
		query = query.Where("reporter_id = ?", *filter.ReporterID)
	}
	if filter.WorkerID != nil {
		query = query.Where("assigned_worker_id = ?", *filter.WorkerID)
	}
	if filter.DepartmentID != nil {
		query = query.Where("(assigned_department_id = ? OR assigned_department_id IS NULL)", *filter.DepartmentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}

	if err := query.Order("created_at DESC").Find(&complaints).Error; err != nil {
		return nil, err
	}

	return complaints, nil
}
