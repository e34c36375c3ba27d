package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'complaint_status') THEN
			CREATE TYPE complaint_status AS ENUM ('submitted', 'assigned', 'completed');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'complaint_priority') THEN
			CREATE TYPE complaint_priority AS ENUM ('low', 'medium', 'high');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		role VARCHAR(32) NOT NULL,
		department_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_users_department_id ON users (department_id);`,
	`CREATE TABLE IF NOT EXISTS departments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(255) NOT NULL UNIQUE,
		localized_name VARCHAR(255),
		head_user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		categories JSONB NOT NULL DEFAULT '[]'::jsonb,
		priority INTEGER NOT NULL DEFAULT 100,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_departments_priority ON departments (priority, name);`,
	`CREATE TABLE IF NOT EXISTS worker_profiles (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		department_id UUID REFERENCES departments(id) ON DELETE SET NULL,
		specializations JSONB,
		efficiency_rating DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (efficiency_rating >= 0 AND efficiency_rating <= 5),
		total_assigned BIGINT NOT NULL DEFAULT 0 CHECK (total_assigned >= 0),
		total_completed BIGINT NOT NULL DEFAULT 0 CHECK (total_completed >= 0),
		average_completion_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
		availability VARCHAR(16) NOT NULL DEFAULT 'available',
		last_latitude DOUBLE PRECISION,
		last_longitude DOUBLE PRECISION,
		last_seen_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_worker_profiles_department_id ON worker_profiles (department_id);`,
	`CREATE TABLE IF NOT EXISTS complaints (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		reporter_id UUID NOT NULL REFERENCES users(id),
		categories JSONB NOT NULL,
		note TEXT,
		latitude DOUBLE PRECISION NOT NULL CHECK (latitude >= -90 AND latitude <= 90),
		longitude DOUBLE PRECISION NOT NULL CHECK (longitude >= -180 AND longitude <= 180),
		ward VARCHAR(100),
		image_url TEXT NOT NULL,
		completion_image_url TEXT,
		status complaint_status NOT NULL DEFAULT 'submitted',
		priority complaint_priority NOT NULL DEFAULT 'medium',
		assigned_worker_id UUID REFERENCES users(id),
		assigned_department_id UUID REFERENCES departments(id) ON DELETE SET NULL,
		estimated_completion TIMESTAMPTZ,
		completion_notes TEXT,
		citizen_rating INTEGER CHECK (citizen_rating BETWEEN 1 AND 5),
		citizen_feedback TEXT,
		completed_at TIMESTAMPTZ,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT complaints_completed_evidence CHECK (status <> 'completed' OR completion_image_url IS NOT NULL),
		CONSTRAINT complaints_assigned_worker CHECK (status <> 'assigned' OR assigned_worker_id IS NOT NULL)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_reporter_id ON complaints (reporter_id);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints (status);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_assigned_worker_id ON complaints (assigned_worker_id);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_assigned_department_id ON complaints (assigned_department_id);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_created_at ON complaints (created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS complaint_assignments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		complaint_id UUID NOT NULL REFERENCES complaints(id) ON DELETE CASCADE,
		worker_id UUID NOT NULL REFERENCES users(id),
		department_id UUID REFERENCES departments(id) ON DELETE SET NULL,
		assigned_by_user_id UUID NOT NULL REFERENCES users(id),
		estimated_completion TIMESTAMPTZ,
		assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		unassigned_at TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaint_assignments_complaint_id ON complaint_assignments (complaint_id);`,
	`CREATE INDEX IF NOT EXISTS idx_complaint_assignments_worker_id ON complaint_assignments (worker_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_complaint_assignments_one_active ON complaint_assignments (complaint_id) WHERE is_active;`,
	`CREATE TABLE IF NOT EXISTS complaint_status_history (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		complaint_id UUID NOT NULL REFERENCES complaints(id) ON DELETE CASCADE,
		status complaint_status NOT NULL,
		changed_by_id UUID NOT NULL,
		changed_by_role VARCHAR(32) NOT NULL,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaint_status_history_complaint ON complaint_status_history (complaint_id, created_at);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
