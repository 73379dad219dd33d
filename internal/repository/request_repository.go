package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-enroll-api/internal/models"
)

// RequestRepository handles persistence of enrollment requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `r.id, r.student_id, r.course_id, r.enrollment_period_id, r.academic_year, r.semester, r.status,
        r.requested_at, r.reviewed_by, r.reviewed_at, r.rejection_reason, r.requirements_verified, r.notes`

// List returns enrollment requests filtered by the provided criteria.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, int, error) {
	base := `FROM enrollment_requests r
LEFT JOIN enrollment_periods p ON p.id = r.enrollment_period_id
LEFT JOIN users u ON u.id = r.student_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("r.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.EnrollmentPeriodID != 0 {
		conditions = append(conditions, fmt.Sprintf("r.enrollment_period_id = $%d", len(args)+1))
		args = append(args, filter.EnrollmentPeriodID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("r.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s, COALESCE(p.course_id, r.course_id) AS period_course_id, COALESCE(u.full_name, '') AS student_name
        %s ORDER BY r.requested_at DESC LIMIT %d OFFSET %d`, requestColumns, base+clause, size, offset)

	var requests []models.RequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollment requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollment requests: %w", err)
	}
	return requests, total, nil
}

// FindDetailByID loads a request joined with its period so callers obtain the
// authoritative course for the term. Runs on the supplied Queryer so the
// approval engine can read inside its transaction.
func (r *RequestRepository) FindDetailByID(ctx context.Context, q Queryer, id int64) (*models.RequestDetail, error) {
	query := fmt.Sprintf(`SELECT %s, COALESCE(p.course_id, r.course_id) AS period_course_id, COALESCE(u.full_name, '') AS student_name
        FROM enrollment_requests r
        LEFT JOIN enrollment_periods p ON p.id = r.enrollment_period_id
        LEFT JOIN users u ON u.id = r.student_id
        WHERE r.id = $1`, requestColumns)
	var detail models.RequestDetail
	if err := q.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// MarkApproved records the approval review on the request row.
func (r *RequestRepository) MarkApproved(ctx context.Context, q Queryer, id, reviewerID int64, reviewedAt time.Time) error {
	const query = `UPDATE enrollment_requests
        SET status = $2, reviewed_by = $3, reviewed_at = $4, requirements_verified = TRUE
        WHERE id = $1`
	if _, err := q.ExecContext(ctx, query, id, models.RequestStatusApproved, reviewerID, reviewedAt); err != nil {
		return fmt.Errorf("approve enrollment request: %w", err)
	}
	return nil
}

// MarkRejected records a rejection. Single-row write, no transaction needed.
func (r *RequestRepository) MarkRejected(ctx context.Context, id, reviewerID int64, reason string, reviewedAt time.Time) error {
	const query = `UPDATE enrollment_requests
        SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = $5
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.RequestStatusRejected, reviewerID, reviewedAt, reason); err != nil {
		return fmt.Errorf("reject enrollment request: %w", err)
	}
	return nil
}

// MarkVoided cancels a pending request administratively.
func (r *RequestRepository) MarkVoided(ctx context.Context, id, reviewerID int64, reviewedAt time.Time) error {
	const query = `UPDATE enrollment_requests
        SET status = $2, reviewed_by = $3, reviewed_at = $4
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.RequestStatusVoided, reviewerID, reviewedAt); err != nil {
		return fmt.Errorf("void enrollment request: %w", err)
	}
	return nil
}
