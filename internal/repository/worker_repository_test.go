package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"complaint-service/internal/model"
	"complaint-service/internal/testutil"
)

func TestWorkerRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewWorkerRepository(db)
	ctx := context.Background()

	dept := testutil.SeedDepartment(t, db, "Sanitation", 1, "Garbage & Waste")
	w1 := testutil.SeedWorker(t, db, &dept.ID)
	w2 := testutil.SeedWorker(t, db, nil)

	t.Run("list all and by department", func(t *testing.T) {
		all, err := repo.List(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		scoped, err := repo.List(ctx, &dept.ID)
		require.NoError(t, err)
		require.Len(t, scoped, 1)
		assert.Equal(t, w1.User.ID, scoped[0].User.ID)
		assert.Equal(t, w1.User.Name, scoped[0].User.Name)

		none := uuid.New()
		empty, err := repo.List(ctx, &none)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("counters round trip inside a transaction", func(t *testing.T) {
		store := NewStore(db)
		err := store.Transaction(ctx, func(tx *Store) error {
			profile, err := tx.Workers.LockByUserID(ctx, w2.User.ID)
			if err != nil {
				return err
			}
			profile.RecordAssignment()
			profile.RecordCompletion(3 * time.Hour)
			return tx.Workers.SaveCounters(ctx, profile)
		})
		require.NoError(t, err)

		profile, err := repo.GetByUserID(ctx, w2.User.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), profile.TotalAssigned)
		assert.Equal(t, int64(1), profile.TotalCompleted)
		assert.Equal(t, 5.0, profile.EfficiencyRating)
		assert.Equal(t, 3.0, profile.AverageCompletionHours)
	})

	t.Run("availability", func(t *testing.T) {
		lat, lng := 26.45, 80.33
		require.NoError(t, repo.UpdateAvailability(ctx, w1.User.ID, AvailabilityUpdate{
			Availability: model.WorkerAvailabilityBusy,
			Latitude:     &lat,
			Longitude:    &lng,
			SeenAt:       time.Now(),
		}))
		profile, err := repo.GetByUserID(ctx, w1.User.ID)
		require.NoError(t, err)
		assert.Equal(t, model.WorkerAvailabilityBusy, profile.Availability)
		require.NotNil(t, profile.LastLatitude)
		assert.Equal(t, lat, *profile.LastLatitude)

		err = repo.UpdateAvailability(ctx, uuid.New(), AvailabilityUpdate{Availability: model.WorkerAvailabilityOffline, SeenAt: time.Now()})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := repo.GetByUserID(ctx, uuid.New())
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestStore_TransactionRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	c := testutil.SeedComplaint(t, db, uuid.New(), "Garbage & Waste")

	err := store.Transaction(ctx, func(tx *Store) error {
		if err := tx.History.Append(ctx, &model.StatusHistoryEntry{
			ComplaintID:   c.ID,
			Status:        model.ComplaintStatusAssigned,
			ChangedByID:   uuid.New(),
			ChangedByRole: model.RoleDistrictMagistrate,
		}); err != nil {
			return err
		}
		return ErrStaleVersion
	})
	assert.ErrorIs(t, err, ErrStaleVersion)

	entries, err := store.History.ListByComplaint(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStatusHistoryRepository_Order(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewStatusHistoryRepository(db)
	ctx := context.Background()
	complaintID := uuid.New()
	actor := uuid.New()

	base := time.Now().Add(-time.Hour)
	statuses := []model.ComplaintStatus{model.ComplaintStatusCompleted, model.ComplaintStatusSubmitted, model.ComplaintStatusAssigned}
	offsets := []time.Duration{2 * time.Minute, 0, time.Minute}
	for i, status := range statuses {
		require.NoError(t, repo.Append(ctx, &model.StatusHistoryEntry{
			ComplaintID:   complaintID,
			Status:        status,
			ChangedByID:   actor,
			ChangedByRole: model.RoleFieldWorker,
			CreatedAt:     base.Add(offsets[i]),
		}))
	}

	entries, err := repo.ListByComplaint(ctx, complaintID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, model.ComplaintStatusSubmitted, entries[0].Status)
	assert.Equal(t, model.ComplaintStatusAssigned, entries[1].Status)
	assert.Equal(t, model.ComplaintStatusCompleted, entries[2].Status)
}

func TestAssignmentRepository_Deactivate(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	complaintID := uuid.New()

	first := &model.ComplaintAssignment{ComplaintID: complaintID, WorkerID: uuid.New(), AssignedByUserID: uuid.New(), IsActive: true}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Deactivate(ctx, complaintID, time.Now()))

	second := &model.ComplaintAssignment{ComplaintID: complaintID, WorkerID: uuid.New(), AssignedByUserID: uuid.New(), IsActive: true}
	require.NoError(t, repo.Create(ctx, second))

	active, err := repo.FindActive(ctx, complaintID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	all, err := repo.ListByComplaint(ctx, complaintID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].IsActive)
	assert.NotNil(t, all[0].UnassignedAt)

	none, err := repo.FindActive(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)
}
