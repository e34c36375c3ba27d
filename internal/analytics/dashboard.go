package analytics

import (
	"math"
	"sort"
	"time"

	"complaint-service/internal/model"
	"complaint-service/internal/utils"
)

const (
	hoursPerDay = 24
	unknownWard = "unknown"
)

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type WardCount struct {
	Ward      string `json:"ward"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
}

type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

type PriorityCounts struct {
	Low    int64 `json:"low"`
	Medium int64 `json:"medium"`
	High   int64 `json:"high"`
}

type Snapshot struct {
	TotalComplaints     int64           `json:"total_complaints"`
	SubmittedComplaints int64           `json:"submitted_complaints"`
	AssignedComplaints  int64           `json:"assigned_complaints"`
	CompletedComplaints int64           `json:"completed_complaints"`
	AvgResolutionDays   float64         `json:"avg_resolution_days"`
	Categories          []CategoryCount `json:"category_breakdown"`
	Priorities          PriorityCounts  `json:"priority_breakdown"`
	Wards               []WardCount     `json:"ward_breakdown"`
	TodayByHour         []HourCount     `json:"today_by_hour"`
}

// Canonicalizer folds category label variants into one bucket.
type Canonicalizer interface {
	Canonical(label string) string
}

// Dashboard summarises an already scoped complaint set. The hourly histogram covers
// complaints created on now's calendar date in loc.
func Dashboard(complaints []model.Complaint, vocab Canonicalizer, now time.Time, loc *time.Location) Snapshot {
	if loc == nil {
		loc = time.UTC
	}

	snap := Snapshot{
		Categories:  []CategoryCount{},
		Wards:       []WardCount{},
		TodayByHour: make([]HourCount, hoursPerDay),
	}
	for h := range snap.TodayByHour {
		snap.TodayByHour[h].Hour = h
	}

	categoryIndex := make(map[string]int)
	wardIndex := make(map[string]int)
	var resolution resolutionMean

	ty, tm, td := now.In(loc).Date()

	for i := range complaints {
		c := &complaints[i]
		snap.TotalComplaints++

		switch c.Status {
		case model.ComplaintStatusSubmitted:
			snap.SubmittedComplaints++
		case model.ComplaintStatusAssigned:
			snap.AssignedComplaints++
		case model.ComplaintStatusCompleted:
			snap.CompletedComplaints++
		}
		resolution.add(c)

		switch c.Priority {
		case model.ComplaintPriorityLow:
			snap.Priorities.Low++
		case model.ComplaintPriorityHigh:
			snap.Priorities.High++
		default:
			snap.Priorities.Medium++
		}

		for _, label := range uniqueCategories(c.Categories, vocab) {
			idx, ok := categoryIndex[label]
			if !ok {
				idx = len(snap.Categories)
				categoryIndex[label] = idx
				snap.Categories = append(snap.Categories, CategoryCount{Category: label})
			}
			snap.Categories[idx].Count++
		}

		ward := unknownWard
		if c.Ward != nil && *c.Ward != "" {
			ward = *c.Ward
		}
		idx, ok := wardIndex[ward]
		if !ok {
			idx = len(snap.Wards)
			wardIndex[ward] = idx
			snap.Wards = append(snap.Wards, WardCount{Ward: ward})
		}
		snap.Wards[idx].Total++
		if c.Status == model.ComplaintStatusCompleted {
			snap.Wards[idx].Completed++
		}

		created := c.CreatedAt.In(loc)
		if y, m, d := created.Date(); y == ty && m == tm && d == td {
			snap.TodayByHour[created.Hour()].Count++
		}
	}

	snap.AvgResolutionDays = resolution.days()

	sort.SliceStable(snap.Categories, func(i, j int) bool {
		if snap.Categories[i].Count != snap.Categories[j].Count {
			return snap.Categories[i].Count > snap.Categories[j].Count
		}
		return snap.Categories[i].Category < snap.Categories[j].Category
	})
	sort.SliceStable(snap.Wards, func(i, j int) bool {
		if snap.Wards[i].Total != snap.Wards[j].Total {
			return snap.Wards[i].Total > snap.Wards[j].Total
		}
		return snap.Wards[i].Ward < snap.Wards[j].Ward
	})

	return snap
}

// uniqueCategories counts each canonical category once per complaint.
func uniqueCategories(labels []string, vocab Canonicalizer) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		canonical := label
		if vocab != nil {
			canonical = vocab.Canonical(label)
		}
		key := utils.NormalizeLabel(canonical)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, canonical)
	}
	return out
}

type resolutionMean struct {
	total time.Duration
	n     int64
}

func (r *resolutionMean) add(c *model.Complaint) {
	if d, ok := c.ResolutionDuration(); ok {
		r.total += d
		r.n++
	}
}

func (r resolutionMean) days() float64 {
	if r.n == 0 {
		return 0
	}
	return round2(r.total.Hours() / 24 / float64(r.n))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
