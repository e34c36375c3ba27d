package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories sharing one connection or transaction.
type Store struct {
	db *gorm.DB

	Complaints  *ComplaintRepository
	History     *StatusHistoryRepository
	Assignments *AssignmentRepository
	Workers     *WorkerRepository
	Departments *DepartmentRepository
	Users       *UserRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Complaints:  NewComplaintRepository(db),
		History:     NewStatusHistoryRepository(db),
		Assignments: NewAssignmentRepository(db),
		Workers:     NewWorkerRepository(db),
		Departments: NewDepartmentRepository(db),
		Users:       NewUserRepository(db),
	}
}

// Transaction runs fn against a Store bound to one transaction. Returning an error rolls
// everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
