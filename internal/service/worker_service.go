package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"complaint-service/internal/access"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
	"complaint-service/internal/routing"
)

type WorkerService struct {
	store      *repository.Store
	vocabulary *routing.Vocabulary
	validate   *validator.Validate
	now        func() time.Time
}

func NewWorkerService(store *repository.Store, vocabulary *routing.Vocabulary) *WorkerService {
	if vocabulary == nil {
		vocabulary = routing.DefaultVocabulary()
	}
	return &WorkerService{
		store:      store,
		vocabulary: vocabulary,
		validate:   newValidator(),
		now:        time.Now,
	}
}

type RegisterWorkerInput struct {
	Name            string   `validate:"required,notblank,max=255"`
	Email           string   `validate:"required,email,max=255"`
	DepartmentID    *string  `validate:"omitempty,uuid"`
	Specializations []string `validate:"omitempty,max=20,dive,notblank,max=200"`
}

// Register creates a field-worker user and its profile. Department heads may only register
// workers into their own department.
func (s *WorkerService) Register(ctx context.Context, principal model.Principal, input RegisterWorkerInput) (*model.Worker, error) {
	if !access.Allowed(principal.Role, access.OpRegisterWorker) {
		return nil, ErrPermissionDenied
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	var departmentID *uuid.UUID
	if input.DepartmentID != nil {
		id, _ := uuid.Parse(*input.DepartmentID)
		departmentID = &id
	}
	if principal.IsDepartmentHead() {
		if principal.DepartmentID == nil {
			return nil, ErrPermissionDenied
		}
		if departmentID != nil && *departmentID != *principal.DepartmentID {
			return nil, ErrPermissionDenied
		}
		own := *principal.DepartmentID
		departmentID = &own
	}
	if departmentID != nil {
		if _, err := s.store.Departments.GetByID(ctx, *departmentID); err != nil {
			return nil, translate(err)
		}
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	exists, err := s.store.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	worker := &model.Worker{
		User: model.User{
			Name:         strings.TrimSpace(input.Name),
			Email:        email,
			Role:         model.RoleFieldWorker,
			DepartmentID: departmentID,
		},
		Profile: model.WorkerProfile{
			DepartmentID:    departmentID,
			Specializations: s.vocabulary.CanonicalSet(input.Specializations),
			Availability:    model.WorkerAvailabilityAvailable,
		},
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.Create(ctx, &worker.User); err != nil {
			return err
		}
		worker.Profile.UserID = worker.User.ID
		return tx.Workers.Create(ctx, &worker.Profile)
	})
	if err != nil {
		return nil, err
	}
	return worker, nil
}

func (s *WorkerService) List(ctx context.Context, principal model.Principal) ([]model.Worker, error) {
	if !access.Allowed(principal.Role, access.OpListWorkers) {
		return nil, ErrPermissionDenied
	}
	if principal.IsDepartmentHead() {
		if principal.DepartmentID == nil {
			return []model.Worker{}, nil
		}
		return s.store.Workers.List(ctx, principal.DepartmentID)
	}
	return s.store.Workers.List(ctx, nil)
}

type AvailabilityInput struct {
	Availability string   `validate:"required,oneof=available busy offline"`
	Latitude     *float64 `validate:"required_with=Longitude,omitempty,gte=-90,lte=90"`
	Longitude    *float64 `validate:"required_with=Latitude,omitempty,gte=-180,lte=180"`
}

func (s *WorkerService) UpdateAvailability(ctx context.Context, principal model.Principal, input AvailabilityInput) (*model.WorkerProfile, error) {
	if !access.Allowed(principal.Role, access.OpUpdateAvailability) {
		return nil, ErrPermissionDenied
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	err := s.store.Workers.UpdateAvailability(ctx, principal.UserID, repository.AvailabilityUpdate{
		Availability: model.WorkerAvailability(input.Availability),
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		SeenAt:       s.now(),
	})
	if err != nil {
		return nil, translate(err)
	}
	profile, err := s.store.Workers.GetByUserID(ctx, principal.UserID)
	return profile, translate(err)
}
