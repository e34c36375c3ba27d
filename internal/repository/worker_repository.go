package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"complaint-service/internal/model"
)

type WorkerRepository struct {
	db *gorm.DB
}

func NewWorkerRepository(db *gorm.DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

func (r *WorkerRepository) Create(ctx context.Context, profile *model.WorkerProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *WorkerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.WorkerProfile, error) {
	return r.getByUserID(r.db.WithContext(ctx), userID)
}

// LockByUserID reads the profile with a row lock held until the surrounding transaction ends.
func (r *WorkerRepository) LockByUserID(ctx context.Context, userID uuid.UUID) (*model.WorkerProfile, error) {
	return r.getByUserID(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *WorkerRepository) getByUserID(query *gorm.DB, userID uuid.UUID) (*model.WorkerProfile, error) {
	var profile model.WorkerProfile
	err := query.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *WorkerRepository) SaveCounters(ctx context.Context, profile *model.WorkerProfile) error {
	return r.db.WithContext(ctx).Model(&model.WorkerProfile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"total_assigned":           profile.TotalAssigned,
			"total_completed":          profile.TotalCompleted,
			"efficiency_rating":        profile.EfficiencyRating,
			"average_completion_hours": profile.AverageCompletionHours,
		}).Error
}

type AvailabilityUpdate struct {
	Availability model.WorkerAvailability
	Latitude     *float64
	Longitude    *float64
	SeenAt       time.Time
}

func (r *WorkerRepository) UpdateAvailability(ctx context.Context, userID uuid.UUID, update AvailabilityUpdate) error {
	values := map[string]interface{}{
		"availability": update.Availability,
		"last_seen_at": update.SeenAt,
	}
	if update.Latitude != nil && update.Longitude != nil {
		values["last_latitude"] = *update.Latitude
		values["last_longitude"] = *update.Longitude
	}

	result := r.db.WithContext(ctx).Model(&model.WorkerProfile{}).
		Where("user_id = ?", userID).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns workers with their user records, optionally limited to one department.
func (r *WorkerRepository) List(ctx context.Context, departmentID *uuid.UUID) ([]model.Worker, error) {
	var profiles []model.WorkerProfile
	query := r.db.WithContext(ctx).Model(&model.WorkerProfile{})
	if departmentID != nil {
		query = query.Where("department_id = ?", *departmentID)
	}
	if err := query.Order("created_at ASC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return []model.Worker{}, nil
	}

	userIDs := make([]uuid.UUID, 0, len(profiles))
	for _, p := range profiles {
		userIDs = append(userIDs, p.UserID)
	}

	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	workers := make([]model.Worker, 0, len(profiles))
	for _, p := range profiles {
		user, ok := byID[p.UserID]
		if !ok {
			continue
		}
		workers = append(workers, model.Worker{User: user, Profile: p})
	}
	return workers, nil
}
