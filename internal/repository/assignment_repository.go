package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *model.ComplaintAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

// Deactivate closes every active assignment of the complaint. Counters are left untouched.
func (r *AssignmentRepository) Deactivate(ctx context.Context, complaintID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.ComplaintAssignment{}).
		Where("complaint_id = ? AND is_active = ?", complaintID, true).
		Updates(map[string]interface{}{
			"is_active":     false,
			"unassigned_at": at,
		}).Error
}

func (r *AssignmentRepository) FindActive(ctx context.Context, complaintID uuid.UUID) (*model.ComplaintAssignment, error) {
	var assignment model.ComplaintAssignment
	err := r.db.WithContext(ctx).
		Where("complaint_id = ? AND is_active = ?", complaintID, true).
		Order("assigned_at DESC").
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]model.ComplaintAssignment, error) {
	var assignments []model.ComplaintAssignment
	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("assigned_at ASC").
		Find(&assignments).Error
	return assignments, err
}
