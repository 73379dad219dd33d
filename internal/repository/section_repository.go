package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-enroll-api/internal/models"
)

// SectionRepository reads section rows; only current_students is written.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionColumns = `id, course_id, section_name, year_level, academic_year, semester, teacher_id, max_students, current_students`

// FindByID returns a section by its ID.
func (r *SectionRepository) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE id = $1", sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// FindByTerm returns the sections of a course for the given term. This is the
// direct tier of section resolution.
func (r *SectionRepository) FindByTerm(ctx context.Context, q Queryer, courseID int64, academicYear string, semester models.Semester) ([]models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM sections WHERE course_id = $1 AND academic_year = $2 AND semester = $3`, sectionColumns)
	var sections []models.Section
	if err := q.SelectContext(ctx, &sections, query, courseID, academicYear, semester); err != nil {
		return nil, fmt.Errorf("find sections by term: %w", err)
	}
	return sections, nil
}

// FindByShape projects a (section name, year level) pair onto the requested
// term. This is the carry-forward tier of section resolution.
func (r *SectionRepository) FindByShape(ctx context.Context, q Queryer, courseID int64, academicYear string, semester models.Semester, sectionName, yearLevel string) (*models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM sections
        WHERE course_id = $1 AND academic_year = $2 AND semester = $3 AND section_name = $4 AND year_level = $5
        LIMIT 1`, sectionColumns)
	var section models.Section
	if err := q.GetContext(ctx, &section, query, courseID, academicYear, semester, sectionName, yearLevel); err != nil {
		return nil, err
	}
	return &section, nil
}

// UpdateCurrentStudents writes a recomputed roster count. Counts are always
// recomputed from the membership table, never incremented in place.
func (r *SectionRepository) UpdateCurrentStudents(ctx context.Context, q Queryer, id int64, count int) error {
	if _, err := q.ExecContext(ctx, `UPDATE sections SET current_students = $2 WHERE id = $1`, id, count); err != nil {
		return fmt.Errorf("update section student count: %w", err)
	}
	return nil
}
