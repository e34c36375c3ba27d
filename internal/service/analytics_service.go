package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"complaint-service/internal/access"
	"complaint-service/internal/analytics"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
	"complaint-service/internal/routing"
)

// AnalyticsService recomputes every figure from the live complaint set on each call.
type AnalyticsService struct {
	store      *repository.Store
	routes     routingSource
	vocabulary *routing.Vocabulary
	location   *time.Location
	now        func() time.Time
}

func NewAnalyticsService(store *repository.Store, vocabulary *routing.Vocabulary, location *time.Location) *AnalyticsService {
	if vocabulary == nil {
		vocabulary = routing.DefaultVocabulary()
	}
	if location == nil {
		location = time.UTC
	}
	return &AnalyticsService{
		store:      store,
		routes:     routingSource{departments: store.Departments, vocabulary: vocabulary},
		vocabulary: vocabulary,
		location:   location,
		now:        time.Now,
	}
}

func (s *AnalyticsService) Dashboard(ctx context.Context, principal model.Principal) (*analytics.Snapshot, error) {
	if !access.Allowed(principal.Role, access.OpViewAnalytics) {
		return nil, ErrPermissionDenied
	}

	scope, _, err := s.scope(ctx, principal)
	if err != nil {
		return nil, err
	}
	complaints, err := scopedComplaints(ctx, s.store.Complaints, scope, repository.ComplaintFilter{})
	if err != nil {
		return nil, err
	}

	snapshot := analytics.Dashboard(complaints, s.vocabulary, s.now(), s.location)
	return &snapshot, nil
}

// Departments returns per-department rollups. The district magistrate sees every
// department plus the unrouted bucket; a department head sees only their own.
func (s *AnalyticsService) Departments(ctx context.Context, principal model.Principal) ([]analytics.DepartmentStats, error) {
	if !access.Allowed(principal.Role, access.OpViewDepartmentStats) {
		return nil, ErrPermissionDenied
	}

	scope, table, departments, err := s.scopeWithDepartments(ctx, principal)
	if err != nil {
		return nil, err
	}
	complaints, err := scopedComplaints(ctx, s.store.Complaints, scope, repository.ComplaintFilter{})
	if err != nil {
		return nil, err
	}

	var workerDept *uuid.UUID
	includeUnrouted := principal.IsDistrictMagistrate()
	if principal.IsDepartmentHead() {
		departments = only(departments, principal.DepartmentID)
		workerDept = principal.DepartmentID
		if workerDept == nil {
			return []analytics.DepartmentStats{}, nil
		}
	}

	workers, err := s.store.Workers.List(ctx, workerDept)
	if err != nil {
		return nil, err
	}
	return analytics.Departments(complaints, departments, workers, table, includeUnrouted), nil
}

// Workers returns per-worker rollups: all workers for the district magistrate, the
// department's workers for its head and only themselves for a field worker.
func (s *AnalyticsService) Workers(ctx context.Context, principal model.Principal) ([]analytics.WorkerStats, error) {
	if !access.Allowed(principal.Role, access.OpViewWorkerStats) {
		return nil, ErrPermissionDenied
	}

	scope, _, err := s.scope(ctx, principal)
	if err != nil {
		return nil, err
	}
	complaints, err := scopedComplaints(ctx, s.store.Complaints, scope, repository.ComplaintFilter{})
	if err != nil {
		return nil, err
	}

	var workers []model.Worker
	switch {
	case principal.IsDistrictMagistrate():
		workers, err = s.store.Workers.List(ctx, nil)
	case principal.IsDepartmentHead():
		if principal.DepartmentID == nil {
			return []analytics.WorkerStats{}, nil
		}
		workers, err = s.store.Workers.List(ctx, principal.DepartmentID)
	case principal.IsFieldWorker():
		workers, err = s.self(ctx, principal.UserID)
	}
	if err != nil {
		return nil, err
	}
	return analytics.Workers(complaints, workers), nil
}

func (s *AnalyticsService) scope(ctx context.Context, principal model.Principal) (access.Scope, *routing.Table, error) {
	scope, table, _, err := s.scopeWithDepartments(ctx, principal)
	return scope, table, err
}

func (s *AnalyticsService) scopeWithDepartments(ctx context.Context, principal model.Principal) (access.Scope, *routing.Table, []model.Department, error) {
	table, departments, err := s.routes.table(ctx)
	if err != nil {
		return access.Scope{}, nil, nil, err
	}
	return access.ScopeFor(principal, table), table, departments, nil
}

func (s *AnalyticsService) self(ctx context.Context, userID uuid.UUID) ([]model.Worker, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	profile, err := s.store.Workers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	return []model.Worker{{User: *user, Profile: *profile}}, nil
}

func only(departments []model.Department, id *uuid.UUID) []model.Department {
	if id == nil {
		return []model.Department{}
	}
	for _, d := range departments {
		if d.ID == *id {
			return []model.Department{d}
		}
	}
	return []model.Department{}
}
