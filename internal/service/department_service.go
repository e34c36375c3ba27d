package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"complaint-service/internal/access"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
	"complaint-service/internal/routing"
)

const defaultDepartmentPriority = 100

type DepartmentService struct {
	store      *repository.Store
	vocabulary *routing.Vocabulary
	validate   *validator.Validate
}

func NewDepartmentService(store *repository.Store, vocabulary *routing.Vocabulary) *DepartmentService {
	if vocabulary == nil {
		vocabulary = routing.DefaultVocabulary()
	}
	return &DepartmentService{
		store:      store,
		vocabulary: vocabulary,
		validate:   newValidator(),
	}
}

type DepartmentInput struct {
	Name          *string  `validate:"omitempty,notblank,max=255"`
	LocalizedName *string  `validate:"omitempty,max=255"`
	HeadUserID    *string  `validate:"omitempty,uuid"`
	Categories    []string `validate:"omitempty,max=50,dive,notblank,max=200"`
	Priority      *int     `validate:"omitempty,gte=0,lte=10000"`
}

func (s *DepartmentService) List(ctx context.Context, principal model.Principal) ([]model.Department, error) {
	if !access.Allowed(principal.Role, access.OpListDepartments) {
		return nil, ErrPermissionDenied
	}
	return s.store.Departments.List(ctx)
}

func (s *DepartmentService) Create(ctx context.Context, principal model.Principal, input DepartmentInput) (*model.Department, error) {
	if !access.Allowed(principal.Role, access.OpManageDepartments) {
		return nil, ErrPermissionDenied
	}
	if input.Name == nil {
		return nil, invalidInput("name is required")
	}

	department := &model.Department{Priority: defaultDepartmentPriority, Categories: []string{}}
	if err := s.apply(ctx, department, input); err != nil {
		return nil, err
	}
	if err := s.store.Departments.Create(ctx, department); err != nil {
		return nil, err
	}
	return department, nil
}

func (s *DepartmentService) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input DepartmentInput) (*model.Department, error) {
	if !access.Allowed(principal.Role, access.OpManageDepartments) {
		return nil, ErrPermissionDenied
	}

	department, err := s.store.Departments.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := s.apply(ctx, department, input); err != nil {
		return nil, err
	}
	if err := s.store.Departments.Update(ctx, department); err != nil {
		return nil, err
	}
	return department, nil
}

// apply validates input and copies the provided fields onto department. Categories are
// stored in canonical form.
func (s *DepartmentService) apply(ctx context.Context, department *model.Department, input DepartmentInput) error {
	if err := s.validate.Struct(input); err != nil {
		return validationError(err)
	}

	if input.Name != nil {
		name := strings.Join(strings.Fields(*input.Name), " ")
		var exclude *uuid.UUID
		if department.ID != uuid.Nil {
			exclude = &department.ID
		}
		exists, err := s.store.Departments.ExistsByName(ctx, name, exclude)
		if err != nil {
			return err
		}
		if exists {
			return ErrConflict
		}
		department.Name = name
	}
	if input.LocalizedName != nil {
		department.LocalizedName = strings.TrimSpace(*input.LocalizedName)
	}
	if input.HeadUserID != nil {
		headID, _ := uuid.Parse(*input.HeadUserID)
		head, err := s.store.Users.GetByID(ctx, headID)
		if err != nil {
			return translate(err)
		}
		if head.Role != model.RoleDepartmentHead {
			return invalidInput("user %s is not a department head", headID)
		}
		department.HeadUserID = &headID
	}
	if input.Categories != nil {
		department.Categories = s.vocabulary.CanonicalSet(input.Categories)
	}
	if input.Priority != nil {
		department.Priority = *input.Priority
	}
	return nil
}
