package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-enroll-api/internal/models"
)

// GradeRepository writes enrollment markers into the shared grades store.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// MarkerExists checks for an existing marker keyed by
// (student, subject, academic year, semester). The uniqueness invariant is
// checked here, not DB-enforced; callers run this on the same transaction as
// the subsequent insert.
func (r *GradeRepository) MarkerExists(ctx context.Context, q Queryer, studentID, subjectID int64, academicYear string, semester models.Semester) (bool, error) {
	const query = `SELECT 1 FROM grades WHERE student_id = $1 AND subject_id = $2 AND academic_year = $3 AND semester = $4 LIMIT 1`
	var exists int
	if err := q.GetContext(ctx, &exists, query, studentID, subjectID, academicYear, semester); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment marker: %w", err)
	}
	return true, nil
}

// InsertMarker creates a participation marker with grade zero.
func (r *GradeRepository) InsertMarker(ctx context.Context, q Queryer, marker *models.GradeEnrollmentMarker) error {
	const query = `INSERT INTO grades (student_id, subject_id, teacher_id, academic_year, semester, grade_type, grade, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if marker.GradeType == "" {
		marker.GradeType = models.GradeTypeParticipation
	}
	if marker.CreatedAt.IsZero() {
		marker.CreatedAt = time.Now().UTC()
	}
	if err := q.GetContext(ctx, &marker.ID, query,
		marker.StudentID, marker.SubjectID, marker.TeacherID, marker.AcademicYear, marker.Semester,
		marker.GradeType, marker.Grade, marker.CreatedAt); err != nil {
		return fmt.Errorf("insert enrollment marker: %w", err)
	}
	return nil
}
