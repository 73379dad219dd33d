package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// enrollment DDL is lazy and idempotent: the two tables this subsystem owns
// are created on startup, a no-op once they exist. The course/user/section
// tables are owned by the wider system and assumed present.
var bootstrapStatements = []string{
	`CREATE TABLE IF NOT EXISTS enrollment_periods (
		id BIGSERIAL PRIMARY KEY,
		course_id BIGINT NOT NULL,
		academic_year VARCHAR(20) NOT NULL,
		semester VARCHAR(10) NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
		auto_close BOOLEAN NOT NULL DEFAULT TRUE,
		created_by BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS enrollment_requests (
		id BIGSERIAL PRIMARY KEY,
		student_id BIGINT NOT NULL,
		course_id BIGINT NOT NULL,
		enrollment_period_id BIGINT NOT NULL REFERENCES enrollment_periods(id) ON DELETE CASCADE,
		academic_year VARCHAR(20) NOT NULL,
		semester VARCHAR(10) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		reviewed_by BIGINT,
		reviewed_at TIMESTAMPTZ,
		rejection_reason TEXT,
		requirements_verified BOOLEAN NOT NULL DEFAULT FALSE,
		notes TEXT,
		UNIQUE (student_id, enrollment_period_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_enrollment_periods_term ON enrollment_periods (course_id, academic_year, semester)`,
	`CREATE INDEX IF NOT EXISTS idx_enrollment_requests_status ON enrollment_requests (status)`,
	`CREATE INDEX IF NOT EXISTS idx_enrollment_requests_period ON enrollment_requests (enrollment_period_id)`,
}

// EnsureEnrollmentSchema creates the enrollment tables if absent.
func EnsureEnrollmentSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range bootstrapStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure enrollment schema: %w", err)
		}
	}
	return nil
}
