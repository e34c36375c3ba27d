package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complaint-service/internal/access"
	"complaint-service/internal/lifecycle"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
	"complaint-service/internal/routing"
)

// AssignmentService is the worker assignment ledger. The complaint update, the assignment
// record, the worker counters and the history entry are written in one transaction.
type AssignmentService struct {
	store    *repository.Store
	routes   routingSource
	recorder Recorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewAssignmentService(store *repository.Store, vocabulary *routing.Vocabulary, recorder Recorder, log zerolog.Logger) *AssignmentService {
	if vocabulary == nil {
		vocabulary = routing.DefaultVocabulary()
	}
	return &AssignmentService{
		store:    store,
		routes:   routingSource{departments: store.Departments, vocabulary: vocabulary},
		recorder: recorderOrNoop(recorder),
		log:      log,
		now:      time.Now,
	}
}

type AssignWorkerInput struct {
	WorkerID            string
	DepartmentID        *string
	EstimatedCompletion *time.Time
	Notes               *string
}

func (s *AssignmentService) Assign(ctx context.Context, principal model.Principal, complaintID uuid.UUID, input AssignWorkerInput) (*model.Complaint, error) {
	if !access.Allowed(principal.Role, access.OpAssignWorker) {
		return nil, ErrPermissionDenied
	}

	workerID, err := uuid.Parse(strings.TrimSpace(input.WorkerID))
	if err != nil || workerID == uuid.Nil {
		return nil, invalidInput("worker_id must be a valid id")
	}
	var explicitDept *uuid.UUID
	if input.DepartmentID != nil && strings.TrimSpace(*input.DepartmentID) != "" {
		id, err := uuid.Parse(strings.TrimSpace(*input.DepartmentID))
		if err != nil {
			return nil, invalidInput("department_id must be a valid id")
		}
		explicitDept = &id
	}

	complaint, table, err := loadScoped(ctx, s.store, s.routes, principal, complaintID, access.OpAssignWorker)
	if err != nil {
		return nil, err
	}

	transition, err := lifecycle.Assign(complaint.Status, workerID)
	if err != nil {
		return nil, translate(err)
	}

	worker, err := s.store.Users.GetByID(ctx, workerID)
	if err != nil {
		return nil, translate(err)
	}
	if worker.Role != model.RoleFieldWorker {
		return nil, invalidInput("user %s is not a field worker", workerID)
	}

	if explicitDept != nil {
		if _, err := s.store.Departments.GetByID(ctx, *explicitDept); err != nil {
			return nil, translate(err)
		}
		if principal.IsDepartmentHead() && *explicitDept != *principal.DepartmentID {
			return nil, ErrPermissionDenied
		}
	} else {
		explicitDept = complaint.AssignedDepartmentID
	}
	department, routed := table.Route(complaint.Categories, explicitDept)

	now := s.now()
	expected := complaint.Version
	previousWorker := complaint.AssignedWorkerID

	complaint.Status = transition.To
	complaint.AssignedWorkerID = &workerID
	complaint.EstimatedCompletion = input.EstimatedCompletion
	complaint.AssignedDepartmentID = nil
	if routed {
		complaint.AssignedDepartmentID = &department
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Complaints.ApplyChanges(ctx, complaint, expected); err != nil {
			return err
		}

		if err := tx.Assignments.Deactivate(ctx, complaint.ID, now); err != nil {
			return err
		}
		if err := tx.Assignments.Create(ctx, &model.ComplaintAssignment{
			ComplaintID:         complaint.ID,
			WorkerID:            workerID,
			DepartmentID:        complaint.AssignedDepartmentID,
			AssignedByUserID:    principal.UserID,
			EstimatedCompletion: input.EstimatedCompletion,
			AssignedAt:          now,
			IsActive:            true,
		}); err != nil {
			return err
		}

		profile, err := tx.Workers.LockByUserID(ctx, workerID)
		if err != nil {
			return err
		}
		profile.RecordAssignment()
		if err := tx.Workers.SaveCounters(ctx, profile); err != nil {
			return err
		}

		return tx.History.Append(ctx, historyEntry(complaint, principal, input.Notes, now))
	})
	if err != nil {
		return nil, translate(err)
	}

	s.recorder.TransitionRecorded("assign", complaint.Status)
	event := s.log.Info().
		Str("complaint_id", complaint.ID.String()).
		Str("worker_id", workerID.String()).
		Str("assigned_by", principal.UserID.String())
	if previousWorker != nil && *previousWorker != workerID {
		event = event.Str("previous_worker_id", previousWorker.String())
	}
	event.Msg("worker assigned")

	return complaint, nil
}

func (s *AssignmentService) ListAssignments(ctx context.Context, principal model.Principal, complaintID uuid.UUID) ([]model.ComplaintAssignment, error) {
	if _, _, err := loadScoped(ctx, s.store, s.routes, principal, complaintID, access.OpReadComplaint); err != nil {
		return nil, err
	}
	return s.store.Assignments.ListByComplaint(ctx, complaintID)
}
