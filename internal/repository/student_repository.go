package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-enroll-api/internal/models"
)

// StudentRepository reads student user rows and writes their denormalized
// placement fields.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns the student slice of a user row.
func (r *StudentRepository) FindByID(ctx context.Context, q Queryer, id int64) (*models.Student, error) {
	const query = `SELECT id, full_name, course_id, section, year_level FROM users WHERE id = $1`
	var student models.Student
	if err := q.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdatePlacement writes the denormalized section/year fields after a roster
// assignment, on the caller's transaction.
func (r *StudentRepository) UpdatePlacement(ctx context.Context, q Queryer, id int64, section, yearLevel string) error {
	if _, err := q.ExecContext(ctx, `UPDATE users SET section = $2, year_level = $3 WHERE id = $1`, id, section, yearLevel); err != nil {
		return fmt.Errorf("update student placement: %w", err)
	}
	return nil
}
