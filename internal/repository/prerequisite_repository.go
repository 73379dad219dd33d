package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-enroll-api/internal/models"
)

// PrerequisiteRepository reads the subject catalog and passing grades backing
// the prerequisite checker.
type PrerequisiteRepository struct {
	db *sqlx.DB
}

// NewPrerequisiteRepository constructs the repository.
func NewPrerequisiteRepository(db *sqlx.DB) *PrerequisiteRepository {
	return &PrerequisiteRepository{db: db}
}

// ListProgramSubjects returns the subjects scoped to a program and year
// level, including their prerequisite references.
func (r *PrerequisiteRepository) ListProgramSubjects(ctx context.Context, program, yearLevel string) ([]models.Subject, error) {
	const query = `SELECT s.id, s.name, s.code, s.prerequisite_id
        FROM subjects s
        JOIN courses c ON c.id = s.course_id
        WHERE c.name = $1 AND s.year_level = $2
        ORDER BY s.name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, program, yearLevel); err != nil {
		return nil, fmt.Errorf("list program subjects: %w", err)
	}
	return subjects, nil
}

// FindSubject returns a subject with its prerequisite reference.
func (r *PrerequisiteRepository) FindSubject(ctx context.Context, subjectID int64) (*models.Subject, error) {
	const query = `SELECT id, name, code, prerequisite_id FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, subjectID); err != nil {
		return nil, err
	}
	return &subject, nil
}

// SubjectName returns the display name of a subject.
func (r *PrerequisiteRepository) SubjectName(ctx context.Context, subjectID int64) (string, error) {
	var name string
	if err := r.db.GetContext(ctx, &name, `SELECT name FROM subjects WHERE id = $1`, subjectID); err != nil {
		return "", err
	}
	return name, nil
}

// HasPassingGrade reports whether the student holds a passing grade for the
// subject in any prior term.
func (r *PrerequisiteRepository) HasPassingGrade(ctx context.Context, studentID, subjectID int64) (bool, error) {
	const query = `SELECT 1 FROM grades
        WHERE student_id = $1 AND subject_id = $2 AND grade_type <> $3 AND grade >= 75
        LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, subjectID, models.GradeTypeParticipation); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check passing grade: %w", err)
	}
	return true, nil
}
