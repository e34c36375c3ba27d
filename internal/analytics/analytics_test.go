package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-service/internal/model"
	"complaint-service/internal/routing"
)

func ptr[T any](v T) *T {
	return &v
}

func TestDashboard_Empty(t *testing.T) {
	snap := Dashboard(nil, routing.DefaultVocabulary(), time.Now(), time.UTC)

	assert.Zero(t, snap.TotalComplaints)
	assert.Zero(t, snap.CompletedComplaints)
	assert.Zero(t, snap.AvgResolutionDays)
	assert.NotNil(t, snap.Categories)
	assert.Empty(t, snap.Categories)
	assert.NotNil(t, snap.Wards)
	require.Len(t, snap.TodayByHour, 24)
	for h, bucket := range snap.TodayByHour {
		assert.Equal(t, h, bucket.Hour)
		assert.Zero(t, bucket.Count)
	}
}

func TestDashboard(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, loc)
	morning := time.Date(2026, 3, 10, 9, 15, 0, 0, loc)
	yesterday := time.Date(2026, 3, 9, 9, 15, 0, 0, loc)

	complaints := []model.Complaint{
		{
			Categories:  []string{"Garbage & Waste", "Garbage & Waste (roadside dumps, no dustbins, poor segregation)", "Potholes"},
			Status:      model.ComplaintStatusCompleted,
			Priority:    model.ComplaintPriorityHigh,
			Ward:        ptr("Ward 12"),
			CreatedAt:   yesterday,
			CompletedAt: ptr(yesterday.Add(36 * time.Hour)),
		},
		{
			Categories: []string{"garbage"},
			Status:     model.ComplaintStatusAssigned,
			Priority:   model.ComplaintPriorityLow,
			Ward:       ptr("Ward 12"),
			CreatedAt:  morning,
		},
		{
			Categories: []string{"Streetlights"},
			Status:     model.ComplaintStatusSubmitted,
			Priority:   model.ComplaintPriorityMedium,
			CreatedAt:  morning.Add(30 * time.Minute),
		},
	}

	snap := Dashboard(complaints, routing.DefaultVocabulary(), now, loc)

	assert.Equal(t, int64(3), snap.TotalComplaints)
	assert.Equal(t, int64(1), snap.SubmittedComplaints)
	assert.Equal(t, int64(1), snap.AssignedComplaints)
	assert.Equal(t, int64(1), snap.CompletedComplaints)
	assert.Equal(t, 1.5, snap.AvgResolutionDays)

	assert.Equal(t, []CategoryCount{
		{Category: "Garbage & Waste", Count: 2},
		{Category: "Potholes & Roads", Count: 1},
		{Category: "Streetlights", Count: 1},
	}, snap.Categories)

	assert.Equal(t, PriorityCounts{Low: 1, Medium: 1, High: 1}, snap.Priorities)
	assert.Equal(t, []WardCount{
		{Ward: "Ward 12", Total: 2, Completed: 1},
		{Ward: "unknown", Total: 1},
	}, snap.Wards)

	assert.Equal(t, int64(2), snap.TodayByHour[9].Count)
	var today int64
	for _, b := range snap.TodayByHour {
		today += b.Count
	}
	assert.Equal(t, int64(2), today)
}

func TestDepartments(t *testing.T) {
	sanitation := model.Department{ID: uuid.New(), Name: "Sanitation", Priority: 1, Categories: []string{"Garbage & Waste"}}
	roads := model.Department{ID: uuid.New(), Name: "Roads", Priority: 2, Categories: []string{"Potholes & Roads"}}
	table := routing.NewTable(routing.DefaultVocabulary(), []model.Department{sanitation, roads})

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	complaints := []model.Complaint{
		{Categories: []string{"Garbage"}, Status: model.ComplaintStatusCompleted, CreatedAt: created, CompletedAt: ptr(created.Add(48 * time.Hour)), CitizenRating: ptr(4)},
		{Categories: []string{"Garbage"}, Status: model.ComplaintStatusCompleted, CreatedAt: created, CompletedAt: ptr(created.Add(24 * time.Hour)), CitizenRating: ptr(5)},
		{Categories: []string{"Garbage"}, Status: model.ComplaintStatusSubmitted, CreatedAt: created},
		{Categories: []string{"Stray Animals"}, Status: model.ComplaintStatusSubmitted, CreatedAt: created},
	}
	workers := []model.Worker{
		{User: model.User{ID: uuid.New()}, Profile: model.WorkerProfile{DepartmentID: &sanitation.ID}},
		{User: model.User{ID: uuid.New()}},
	}

	t.Run("with unrouted bucket", func(t *testing.T) {
		stats := Departments(complaints, []model.Department{sanitation, roads}, workers, table, true)
		require.Len(t, stats, 3)

		assert.Equal(t, "Roads", stats[0].Name)
		assert.Zero(t, stats[0].TotalComplaints)
		assert.Zero(t, stats[0].AvgRating)

		assert.Equal(t, "Sanitation", stats[1].Name)
		assert.Equal(t, int64(3), stats[1].TotalComplaints)
		assert.Equal(t, int64(2), stats[1].CompletedComplaints)
		assert.Equal(t, int64(1), stats[1].PendingComplaints)
		assert.Equal(t, 1.5, stats[1].AvgResolutionDays)
		assert.Equal(t, 4.5, stats[1].AvgRating)
		assert.Equal(t, int64(1), stats[1].Workers)

		assert.Nil(t, stats[2].DepartmentID)
		assert.Equal(t, "unrouted", stats[2].Name)
		assert.Equal(t, int64(1), stats[2].TotalComplaints)
	})

	t.Run("single department view", func(t *testing.T) {
		stats := Departments(complaints, []model.Department{roads}, nil, table, false)
		require.Len(t, stats, 1)
		assert.Equal(t, roads.ID, *stats[0].DepartmentID)
		assert.Zero(t, stats[0].TotalComplaints)
	})
}

func TestWorkers(t *testing.T) {
	alice := model.Worker{
		User:    model.User{ID: uuid.New(), Name: "Alice"},
		Profile: model.WorkerProfile{TotalAssigned: 2, TotalCompleted: 2, EfficiencyRating: 5},
	}
	bob := model.Worker{
		User:    model.User{ID: uuid.New(), Name: "Bob"},
		Profile: model.WorkerProfile{TotalAssigned: 2, TotalCompleted: 1, EfficiencyRating: 2.5},
	}
	complaints := []model.Complaint{
		{AssignedWorkerID: &bob.User.ID, Status: model.ComplaintStatusAssigned},
		{AssignedWorkerID: &bob.User.ID, Status: model.ComplaintStatusCompleted, CitizenRating: ptr(3)},
		{AssignedWorkerID: &alice.User.ID, Status: model.ComplaintStatusCompleted},
		{Status: model.ComplaintStatusSubmitted},
	}

	stats := Workers(complaints, []model.Worker{bob, alice})
	require.Len(t, stats, 2)
	assert.Equal(t, "Alice", stats[0].Name)
	assert.Equal(t, int64(1), stats[0].CompletedInScope)
	assert.Zero(t, stats[0].OpenComplaints)

	assert.Equal(t, "Bob", stats[1].Name)
	assert.Equal(t, int64(1), stats[1].OpenComplaints)
	assert.Equal(t, 3.0, stats[1].AvgRating)
	assert.Equal(t, int64(2), stats[1].TotalAssigned)

	assert.Empty(t, Workers(nil, nil))
}
