package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complaint-service/internal/access"
	"complaint-service/internal/lifecycle"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
	"complaint-service/internal/routing"
)

// Classifier suggests category labels for a complaint photo.
type Classifier interface {
	Classify(ctx context.Context, image []byte, filename string) ([]string, error)
}

type ComplaintService struct {
	store      *repository.Store
	routes     routingSource
	vocabulary *routing.Vocabulary
	classifier Classifier
	recorder   Recorder
	validate   *validator.Validate
	log        zerolog.Logger
	now        func() time.Time
}

func NewComplaintService(
	store *repository.Store,
	vocabulary *routing.Vocabulary,
	classifier Classifier,
	recorder Recorder,
	log zerolog.Logger,
) *ComplaintService {
	if vocabulary == nil {
		vocabulary = routing.DefaultVocabulary()
	}
	return &ComplaintService{
		store:      store,
		routes:     routingSource{departments: store.Departments, vocabulary: vocabulary},
		vocabulary: vocabulary,
		classifier: classifier,
		recorder:   recorderOrNoop(recorder),
		validate:   newValidator(),
		log:        log,
		now:        time.Now,
	}
}

type CreateComplaintInput struct {
	Categories []string `validate:"required,min=1,max=10,dive,notblank,max=200"`
	Note       string   `validate:"max=2000"`
	Latitude   *float64 `validate:"required,gte=-90,lte=90"`
	Longitude  *float64 `validate:"required,gte=-180,lte=180"`
	Ward       string   `validate:"omitempty,max=100"`
	ImageURL   string   `validate:"required,notblank,max=2048"`
	Priority   string   `validate:"omitempty,oneof=low medium high"`
}

func (s *ComplaintService) Create(ctx context.Context, principal model.Principal, input CreateComplaintInput) (*model.Complaint, error) {
	if !access.Allowed(principal.Role, access.OpCreateComplaint) {
		return nil, ErrPermissionDenied
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	categories := s.vocabulary.CanonicalSet(input.Categories)
	if len(categories) == 0 {
		return nil, invalidInput("at least one category is required")
	}

	priority := model.ComplaintPriorityMedium
	if input.Priority != "" {
		priority = model.ComplaintPriority(input.Priority)
	}

	complaint := &model.Complaint{
		ReporterID: principal.UserID,
		Categories: categories,
		Note:       strings.TrimSpace(input.Note),
		Latitude:   *input.Latitude,
		Longitude:  *input.Longitude,
		ImageURL:   strings.TrimSpace(input.ImageURL),
		Status:     model.ComplaintStatusSubmitted,
		Priority:   priority,
	}
	if ward := strings.TrimSpace(input.Ward); ward != "" {
		complaint.Ward = &ward
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Complaints.Create(ctx, complaint); err != nil {
			return err
		}
		return tx.History.Append(ctx, historyEntry(complaint, principal, nil, complaint.CreatedAt))
	})
	if err != nil {
		return nil, err
	}

	s.recorder.TransitionRecorded("create", complaint.Status)
	return complaint, nil
}

type ListComplaintsInput struct {
	Status   string
	Priority string
}

// List returns the complaints inside the actor's scope, newest first.
func (s *ComplaintService) List(ctx context.Context, principal model.Principal, input ListComplaintsInput) ([]model.Complaint, error) {
	if !access.Allowed(principal.Role, access.OpReadComplaint) {
		return nil, ErrPermissionDenied
	}

	filter := repository.ComplaintFilter{}
	if input.Status != "" {
		status := model.ComplaintStatus(strings.ToLower(input.Status))
		if !status.Valid() {
			return nil, invalidInput("unknown status %q", input.Status)
		}
		filter.Status = &status
	}
	if input.Priority != "" {
		priority := model.ComplaintPriority(strings.ToLower(input.Priority))
		if !priority.Valid() {
			return nil, invalidInput("unknown priority %q", input.Priority)
		}
		filter.Priority = &priority
	}

	table, _, err := s.routes.table(ctx)
	if err != nil {
		return nil, err
	}
	return scopedComplaints(ctx, s.store.Complaints, access.ScopeFor(principal, table), filter)
}

func (s *ComplaintService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Complaint, error) {
	complaint, _, err := s.load(ctx, principal, id, access.OpReadComplaint)
	return complaint, err
}

func (s *ComplaintService) History(ctx context.Context, principal model.Principal, id uuid.UUID) ([]model.StatusHistoryEntry, error) {
	if _, _, err := s.load(ctx, principal, id, access.OpReadComplaint); err != nil {
		return nil, err
	}
	return s.store.History.ListByComplaint(ctx, id)
}

type PatchComplaintInput struct {
	Status   *string
	Priority *string
	Notes    *string
}

// Patch changes status and/or priority. A history entry is written only when the status changes.
func (s *ComplaintService) Patch(ctx context.Context, principal model.Principal, id uuid.UUID, input PatchComplaintInput) (*model.Complaint, error) {
	if !access.Allowed(principal.Role, access.OpPatchComplaint) {
		return nil, ErrPermissionDenied
	}
	if input.Status == nil && input.Priority == nil {
		return nil, invalidInput("status or priority is required")
	}

	var target *model.ComplaintStatus
	if input.Status != nil {
		status := model.ComplaintStatus(strings.ToLower(strings.TrimSpace(*input.Status)))
		if !status.Valid() {
			return nil, invalidInput("unknown status %q", *input.Status)
		}
		target = &status
	}
	var priority *model.ComplaintPriority
	if input.Priority != nil {
		p := model.ComplaintPriority(strings.ToLower(strings.TrimSpace(*input.Priority)))
		if !p.Valid() {
			return nil, invalidInput("unknown priority %q", *input.Priority)
		}
		priority = &p
	}

	complaint, _, err := s.load(ctx, principal, id, access.OpPatchComplaint)
	if err != nil {
		return nil, err
	}

	transition := lifecycle.Transition{From: complaint.Status, To: complaint.Status}
	if target != nil {
		transition, err = lifecycle.Patch(
			complaint.Status,
			*target,
			complaint.AssignedWorkerID != nil,
			complaint.CompletionImageURL != nil && *complaint.CompletionImageURL != "",
		)
		if err != nil {
			return nil, translate(err)
		}
	}

	now := s.now()
	expected := complaint.Version

	if priority != nil {
		complaint.Priority = *priority
	}
	complaint.Status = transition.To
	if transition.ReleaseWorker {
		complaint.AssignedWorkerID = nil
		complaint.EstimatedCompletion = nil
	}
	if transition.FirstCompletion {
		complaint.CompletedAt = &now
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Complaints.ApplyChanges(ctx, complaint, expected); err != nil {
			return err
		}
		if transition.ReleaseWorker {
			if err := tx.Assignments.Deactivate(ctx, complaint.ID, now); err != nil {
				return err
			}
		}
		if transition.FirstCompletion && complaint.AssignedWorkerID != nil {
			if err := recordCompletion(ctx, tx, complaint, now); err != nil {
				return err
			}
		}
		if !transition.RecordHistory {
			return nil
		}
		return tx.History.Append(ctx, historyEntry(complaint, principal, input.Notes, now))
	})
	if err != nil {
		return nil, translate(err)
	}

	if transition.Changed() {
		s.recorder.TransitionRecorded("patch", complaint.Status)
		s.log.Info().
			Str("complaint_id", complaint.ID.String()).
			Str("from", string(transition.From)).
			Str("to", string(transition.To)).
			Msg("complaint status patched")
	}
	return complaint, nil
}

type CompleteComplaintInput struct {
	EvidenceURL string
	Notes       *string
}

// Complete marks the complaint completed. Completing again replaces the evidence and writes
// another history entry without touching the worker counters or the original completion time.
func (s *ComplaintService) Complete(ctx context.Context, principal model.Principal, id uuid.UUID, input CompleteComplaintInput) (*model.Complaint, error) {
	if !access.Allowed(principal.Role, access.OpCompleteComplaint) {
		return nil, ErrPermissionDenied
	}
	evidence := strings.TrimSpace(input.EvidenceURL)
	if evidence == "" {
		return nil, invalidInput("completion evidence is required")
	}

	complaint, _, err := s.load(ctx, principal, id, access.OpCompleteComplaint)
	if err != nil {
		return nil, err
	}

	transition, err := lifecycle.Complete(complaint.Status, evidence)
	if err != nil {
		return nil, translate(err)
	}

	now := s.now()
	expected := complaint.Version

	complaint.Status = transition.To
	complaint.CompletionImageURL = &evidence
	if input.Notes != nil {
		notes := strings.TrimSpace(*input.Notes)
		complaint.CompletionNotes = &notes
	}
	if transition.FirstCompletion {
		complaint.CompletedAt = &now
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Complaints.ApplyChanges(ctx, complaint, expected); err != nil {
			return err
		}
		if transition.FirstCompletion && complaint.AssignedWorkerID != nil {
			if err := recordCompletion(ctx, tx, complaint, now); err != nil {
				return err
			}
		}
		return tx.History.Append(ctx, historyEntry(complaint, principal, input.Notes, now))
	})
	if err != nil {
		return nil, translate(err)
	}

	s.recorder.TransitionRecorded("complete", complaint.Status)
	s.log.Info().
		Str("complaint_id", complaint.ID.String()).
		Str("actor_id", principal.UserID.String()).
		Bool("first_completion", transition.FirstCompletion).
		Msg("complaint completed")
	return complaint, nil
}

type RateComplaintInput struct {
	Rating   int
	Feedback *string
}

func (s *ComplaintService) Rate(ctx context.Context, principal model.Principal, id uuid.UUID, input RateComplaintInput) (*model.Complaint, error) {
	if !access.Allowed(principal.Role, access.OpRateComplaint) {
		return nil, ErrPermissionDenied
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, invalidInput("rating must be between 1 and 5")
	}

	complaint, _, err := s.load(ctx, principal, id, access.OpRateComplaint)
	if err != nil {
		return nil, err
	}
	if complaint.Status != model.ComplaintStatusCompleted {
		return nil, ErrInvalidTransition
	}

	expected := complaint.Version
	rating := input.Rating
	complaint.CitizenRating = &rating
	if input.Feedback != nil {
		feedback := strings.TrimSpace(*input.Feedback)
		complaint.CitizenFeedback = &feedback
	}

	if err := s.store.Complaints.ApplyChanges(ctx, complaint, expected); err != nil {
		return nil, translate(err)
	}
	return complaint, nil
}

// SuggestCategories asks the classifier for labels. Classifier failures yield an empty list.
func (s *ComplaintService) SuggestCategories(ctx context.Context, principal model.Principal, image []byte, filename string) ([]string, error) {
	if !access.Allowed(principal.Role, access.OpSuggestCategories) {
		return nil, ErrPermissionDenied
	}
	if len(image) == 0 {
		return nil, invalidInput("image is required")
	}
	if s.classifier == nil {
		s.recorder.ClassifierResult("disabled")
		return []string{}, nil
	}

	labels, err := s.classifier.Classify(ctx, image, filename)
	if err != nil {
		s.recorder.ClassifierResult("error")
		s.log.Warn().Err(err).Str("filename", filename).Msg("classifier unavailable, returning no suggestions")
		return []string{}, nil
	}

	s.recorder.ClassifierResult("ok")
	return s.vocabulary.CanonicalSet(labels), nil
}

// load fetches a complaint and checks op against the actor's scope.
func (s *ComplaintService) load(ctx context.Context, principal model.Principal, id uuid.UUID, op access.Operation) (*model.Complaint, *routing.Table, error) {
	return loadScoped(ctx, s.store, s.routes, principal, id, op)
}

func loadScoped(
	ctx context.Context,
	store *repository.Store,
	routes routingSource,
	principal model.Principal,
	id uuid.UUID,
	op access.Operation,
) (*model.Complaint, *routing.Table, error) {
	if !access.Allowed(principal.Role, op) {
		return nil, nil, ErrPermissionDenied
	}

	complaint, err := store.Complaints.GetByID(ctx, id)
	if err != nil {
		return nil, nil, translate(err)
	}

	table, _, err := routes.table(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !access.ScopeFor(principal, table).Permits(op, complaint) {
		return nil, nil, ErrPermissionDenied
	}
	return complaint, table, nil
}

func scopedComplaints(
	ctx context.Context,
	complaints *repository.ComplaintRepository,
	scope access.Scope,
	filter repository.ComplaintFilter,
) ([]model.Complaint, error) {
	pre := scope.Prefilter()
	if pre.Empty {
		return []model.Complaint{}, nil
	}
	filter.ReporterID = pre.ReporterID
	filter.WorkerID = pre.WorkerID
	filter.DepartmentID = pre.DepartmentID

	rows, err := complaints.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return scope.Filter(rows), nil
}

// recordCompletion credits the assigned worker inside the completing transaction.
func recordCompletion(ctx context.Context, tx *repository.Store, complaint *model.Complaint, at time.Time) error {
	profile, err := tx.Workers.LockByUserID(ctx, *complaint.AssignedWorkerID)
	if err != nil {
		return err
	}

	started := complaint.CreatedAt
	active, err := tx.Assignments.FindActive(ctx, complaint.ID)
	if err != nil {
		return err
	}
	if active != nil {
		started = active.AssignedAt
	}

	profile.RecordCompletion(at.Sub(started))
	return tx.Workers.SaveCounters(ctx, profile)
}

func historyEntry(complaint *model.Complaint, principal model.Principal, notes *string, at time.Time) *model.StatusHistoryEntry {
	entry := &model.StatusHistoryEntry{
		ComplaintID:   complaint.ID,
		Status:        complaint.Status,
		ChangedByID:   principal.UserID,
		ChangedByRole: principal.Role,
		CreatedAt:     at,
	}
	if notes != nil {
		if trimmed := strings.TrimSpace(*notes); trimmed != "" {
			entry.Notes = &trimmed
		}
	}
	return entry
}
