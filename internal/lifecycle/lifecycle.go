package lifecycle

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"complaint-service/internal/model"
)

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrMissingPayload    = errors.New("missing transition payload")
)

// Transition describes what applying one lifecycle trigger does to a complaint.
type Transition struct {
	From model.ComplaintStatus
	To   model.ComplaintStatus

	// RecordHistory is set when the trigger must append a status history entry.
	RecordHistory bool
	// ReleaseWorker clears the assigned worker and closes the active assignment.
	ReleaseWorker bool
	// FirstCompletion is set when the complaint enters completed for the first time.
	FirstCompletion bool
}

func (t Transition) Changed() bool {
	return t.From != t.To
}

// Assign validates assign-worker. Reassigning an assigned complaint is a new assignment.
func Assign(from model.ComplaintStatus, workerID uuid.UUID) (Transition, error) {
	if !from.Valid() {
		return Transition{}, ErrIllegalTransition
	}
	if from == model.ComplaintStatusCompleted {
		return Transition{}, ErrIllegalTransition
	}
	if workerID == uuid.Nil {
		return Transition{}, ErrMissingPayload
	}
	return Transition{
		From:          from,
		To:            model.ComplaintStatusAssigned,
		RecordHistory: true,
	}, nil
}

// Complete validates mark-complete. Re-completing a completed complaint is allowed and
// overwrites the evidence.
func Complete(from model.ComplaintStatus, evidence string) (Transition, error) {
	if !from.Valid() {
		return Transition{}, ErrIllegalTransition
	}
	if strings.TrimSpace(evidence) == "" {
		return Transition{}, ErrMissingPayload
	}
	return Transition{
		From:            from,
		To:              model.ComplaintStatusCompleted,
		RecordHistory:   true,
		FirstCompletion: from != model.ComplaintStatusCompleted,
	}, nil
}

// Patch validates an explicit status change. hasWorker and hasEvidence report what the
// complaint already carries, since a patch cannot supply either.
func Patch(from, to model.ComplaintStatus, hasWorker, hasEvidence bool) (Transition, error) {
	if !from.Valid() || !to.Valid() {
		return Transition{}, ErrIllegalTransition
	}
	if from == to {
		return Transition{From: from, To: to}, nil
	}
	if from == model.ComplaintStatusCompleted {
		return Transition{}, ErrIllegalTransition
	}

	t := Transition{From: from, To: to, RecordHistory: true}
	switch to {
	case model.ComplaintStatusAssigned:
		if !hasWorker {
			return Transition{}, ErrMissingPayload
		}
	case model.ComplaintStatusCompleted:
		if !hasEvidence {
			return Transition{}, ErrMissingPayload
		}
		t.FirstCompletion = true
	case model.ComplaintStatusSubmitted:
		t.ReleaseWorker = hasWorker
	}
	return t, nil
}
