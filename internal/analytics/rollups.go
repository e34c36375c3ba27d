package analytics

import (
	"sort"

	"github.com/google/uuid"

	"complaint-service/internal/model"
)

const unroutedName = "unrouted"

// Router resolves the department owning a complaint.
type Router interface {
	RouteComplaint(c *model.Complaint) (uuid.UUID, bool)
}

type DepartmentStats struct {
	DepartmentID        *uuid.UUID `json:"department_id"`
	Name                string     `json:"name"`
	LocalizedName       string     `json:"localized_name,omitempty"`
	TotalComplaints     int64      `json:"total_complaints"`
	PendingComplaints   int64      `json:"pending_complaints"`
	CompletedComplaints int64      `json:"completed_complaints"`
	AvgResolutionDays   float64    `json:"avg_resolution_days"`
	AvgRating           float64    `json:"avg_rating"`
	RatedComplaints     int64      `json:"rated_complaints"`
	Workers             int64      `json:"workers"`
}

type WorkerStats struct {
	WorkerID               uuid.UUID                `json:"worker_id"`
	Name                   string                   `json:"name"`
	DepartmentID           *uuid.UUID               `json:"department_id"`
	Availability           model.WorkerAvailability `json:"availability"`
	TotalAssigned          int64                    `json:"total_assigned"`
	TotalCompleted         int64                    `json:"total_completed"`
	EfficiencyRating       float64                  `json:"efficiency_rating"`
	AverageCompletionHours float64                  `json:"average_completion_hours"`
	OpenComplaints         int64                    `json:"open_complaints"`
	CompletedInScope       int64                    `json:"completed_in_scope"`
	AvgRating              float64                  `json:"avg_rating"`
}

type departmentAcc struct {
	stats      DepartmentStats
	resolution resolutionMean
	ratingSum  int64
}

func (a *departmentAcc) add(c *model.Complaint) {
	a.stats.TotalComplaints++
	if c.Status == model.ComplaintStatusCompleted {
		a.stats.CompletedComplaints++
	} else {
		a.stats.PendingComplaints++
	}
	a.resolution.add(c)
	if c.CitizenRating != nil {
		a.ratingSum += int64(*c.CitizenRating)
		a.stats.RatedComplaints++
	}
}

func (a *departmentAcc) finish() DepartmentStats {
	a.stats.AvgResolutionDays = a.resolution.days()
	if a.stats.RatedComplaints > 0 {
		a.stats.AvgRating = round2(float64(a.ratingSum) / float64(a.stats.RatedComplaints))
	}
	return a.stats
}

// Departments rolls the scoped complaints up per owning department. Every listed
// department is present even without complaints; unrouted complaints get their own row
// when includeUnrouted is set.
func Departments(
	complaints []model.Complaint,
	departments []model.Department,
	workers []model.Worker,
	router Router,
	includeUnrouted bool,
) []DepartmentStats {
	accs := make(map[uuid.UUID]*departmentAcc, len(departments))
	order := make([]uuid.UUID, 0, len(departments))
	for _, d := range departments {
		id := d.ID
		accs[id] = &departmentAcc{stats: DepartmentStats{
			DepartmentID:  &id,
			Name:          d.Name,
			LocalizedName: d.LocalizedName,
		}}
		order = append(order, id)
	}
	unrouted := &departmentAcc{stats: DepartmentStats{Name: unroutedName}}

	for _, w := range workers {
		if w.Profile.DepartmentID == nil {
			continue
		}
		if acc, ok := accs[*w.Profile.DepartmentID]; ok {
			acc.stats.Workers++
		}
	}

	for i := range complaints {
		c := &complaints[i]
		id, ok := router.RouteComplaint(c)
		if !ok {
			unrouted.add(c)
			continue
		}
		acc, known := accs[id]
		if !known {
			// Routed to a department outside the requested set.
			continue
		}
		acc.add(c)
	}

	out := make([]DepartmentStats, 0, len(order)+1)
	for _, id := range order {
		out = append(out, accs[id].finish())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	if includeUnrouted {
		out = append(out, unrouted.finish())
	}
	return out
}

// Workers combines each worker's ledger counters with live figures from the scoped complaints.
func Workers(complaints []model.Complaint, workers []model.Worker) []WorkerStats {
	type acc struct {
		stats     WorkerStats
		ratingSum int64
		rated     int64
	}

	accs := make(map[uuid.UUID]*acc, len(workers))
	out := make([]WorkerStats, 0, len(workers))
	order := make([]uuid.UUID, 0, len(workers))
	for _, w := range workers {
		accs[w.User.ID] = &acc{stats: WorkerStats{
			WorkerID:               w.User.ID,
			Name:                   w.User.Name,
			DepartmentID:           w.Profile.DepartmentID,
			Availability:           w.Profile.Availability,
			TotalAssigned:          w.Profile.TotalAssigned,
			TotalCompleted:         w.Profile.TotalCompleted,
			EfficiencyRating:       w.Profile.EfficiencyRating,
			AverageCompletionHours: w.Profile.AverageCompletionHours,
		}}
		order = append(order, w.User.ID)
	}

	for i := range complaints {
		c := &complaints[i]
		if c.AssignedWorkerID == nil {
			continue
		}
		a, ok := accs[*c.AssignedWorkerID]
		if !ok {
			continue
		}
		switch c.Status {
		case model.ComplaintStatusAssigned:
			a.stats.OpenComplaints++
		case model.ComplaintStatusCompleted:
			a.stats.CompletedInScope++
		}
		if c.CitizenRating != nil {
			a.ratingSum += int64(*c.CitizenRating)
			a.rated++
		}
	}

	for _, id := range order {
		a := accs[id]
		if a.rated > 0 {
			a.stats.AvgRating = round2(float64(a.ratingSum) / float64(a.rated))
		}
		out = append(out, a.stats)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EfficiencyRating != out[j].EfficiencyRating {
			return out[i].EfficiencyRating > out[j].EfficiencyRating
		}
		return out[i].Name < out[j].Name
	})
	return out
}
