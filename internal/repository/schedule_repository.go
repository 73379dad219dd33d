package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-enroll-api/internal/models"
)

// ScheduleRepository reads section schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// DistinctActivePairs returns the distinct (subject, teacher) pairs with an
// active schedule on the section. Each pair becomes one enrollment marker.
func (r *ScheduleRepository) DistinctActivePairs(ctx context.Context, q Queryer, sectionID int64) ([]models.SubjectTeacher, error) {
	const query = `SELECT DISTINCT subject_id, teacher_id FROM section_schedules WHERE section_id = $1 AND status = 'active' ORDER BY subject_id, teacher_id`
	var pairs []models.SubjectTeacher
	if err := q.SelectContext(ctx, &pairs, query, sectionID); err != nil {
		return nil, fmt.Errorf("list active section schedules: %w", err)
	}
	return pairs, nil
}
