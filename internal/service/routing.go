package service

import (
	"context"

	"complaint-service/internal/model"
	"complaint-service/internal/repository"
	"complaint-service/internal/routing"
)

// routingSource builds the department routing table from the live department set.
type routingSource struct {
	departments *repository.DepartmentRepository
	vocabulary  *routing.Vocabulary
}

func (r routingSource) table(ctx context.Context) (*routing.Table, []model.Department, error) {
	departments, err := r.departments.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return routing.NewTable(r.vocabulary, departments), departments, nil
}

// Recorder receives lifecycle and collaborator events for metrics.
type Recorder interface {
	TransitionRecorded(trigger string, to model.ComplaintStatus)
	ClassifierResult(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) TransitionRecorded(string, model.ComplaintStatus) {}
func (noopRecorder) ClassifierResult(string)                          {}

func recorderOrNoop(r Recorder) Recorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}
