package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"complaint-service/internal/model"
)

// NewDB opens a private in-memory SQLite database with the schema migrated. A single
// connection is used, so transactions are serialised.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Department{},
		&model.WorkerProfile{},
		&model.Complaint{},
		&model.ComplaintAssignment{},
		&model.StatusHistoryEntry{},
	))
	return db
}

func SeedUser(t testing.TB, db *gorm.DB, role model.Role, departmentID *uuid.UUID) model.User {
	t.Helper()
	id := uuid.New()
	user := model.User{
		ID:           id,
		Name:         string(role) + " " + id.String()[:8],
		Email:        id.String() + "@example.org",
		Role:         role,
		DepartmentID: departmentID,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(&user).Error)
	return user
}

// SeedWorker creates a field worker together with its profile.
func SeedWorker(t testing.TB, db *gorm.DB, departmentID *uuid.UUID) model.Worker {
	t.Helper()
	user := SeedUser(t, db, model.RoleFieldWorker, departmentID)
	profile := model.WorkerProfile{UserID: user.ID, DepartmentID: departmentID}
	require.NoError(t, db.Create(&profile).Error)
	return model.Worker{User: user, Profile: profile}
}

func SeedDepartment(t testing.TB, db *gorm.DB, name string, priority int, categories ...string) model.Department {
	t.Helper()
	dept := model.Department{Name: name, Priority: priority, Categories: categories}
	require.NoError(t, db.Create(&dept).Error)
	return dept
}

func SeedComplaint(t testing.TB, db *gorm.DB, reporterID uuid.UUID, categories ...string) model.Complaint {
	t.Helper()
	c := model.Complaint{
		ReporterID: reporterID,
		Categories: categories,
		Latitude:   26.4499,
		Longitude:  80.3319,
		ImageURL:   "https://cdn.example.org/before.jpg",
		Status:     model.ComplaintStatusSubmitted,
		Priority:   model.ComplaintPriorityMedium,
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}
