package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-enroll-api/internal/models"
)

// PeriodRepository handles persistence for enrollment periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository instantiates a period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

const periodColumns = `id, course_id, academic_year, semester, start_date, end_date, status, auto_close, created_by, created_at, updated_at`

// List returns periods matching provided filters.
func (r *PeriodRepository) List(ctx context.Context, filter models.PeriodFilter) ([]models.EnrollmentPeriod, int, error) {
	base := "FROM enrollment_periods WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseID != 0 {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"start_date":    true,
		"end_date":      true,
		"academic_year": true,
		"created_at":    true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_date"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", periodColumns, base, sortBy, order, size, offset)

	var periods []models.EnrollmentPeriod
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollment periods: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollment periods: %w", err)
	}

	return periods, total, nil
}

// FindByID loads a period by identifier.
func (r *PeriodRepository) FindByID(ctx context.Context, id int64) (*models.EnrollmentPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollment_periods WHERE id = $1", periodColumns)
	var period models.EnrollmentPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// Exists checks whether a period already covers the (course, year, semester)
// term. The uniqueness invariant is enforced here, not by a DB constraint.
// Only Create probes it; Update overwrites the loaded row in place and does
// not re-probe.
func (r *PeriodRepository) Exists(ctx context.Context, courseID int64, academicYear string, semester models.Semester) (bool, error) {
	const query = "SELECT 1 FROM enrollment_periods WHERE course_id = $1 AND academic_year = $2 AND semester = $3 LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, academicYear, semester); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check period exists: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment period.
func (r *PeriodRepository) Create(ctx context.Context, period *models.EnrollmentPeriod) error {
	const query = `INSERT INTO enrollment_periods (course_id, academic_year, semester, start_date, end_date, status, auto_close, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id`
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now
	if err := r.db.GetContext(ctx, &period.ID, query,
		period.CourseID, period.AcademicYear, period.Semester,
		period.StartDate, period.EndDate, period.Status, period.AutoClose, period.CreatedBy, now); err != nil {
		return fmt.Errorf("create enrollment period: %w", err)
	}
	return nil
}

// Update overwrites all mutable fields, including a manually forced status.
func (r *PeriodRepository) Update(ctx context.Context, period *models.EnrollmentPeriod) error {
	const query = `UPDATE enrollment_periods
        SET course_id = $2, academic_year = $3, semester = $4, start_date = $5, end_date = $6, status = $7, auto_close = $8, updated_at = $9
        WHERE id = $1`
	period.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		period.ID, period.CourseID, period.AcademicYear, period.Semester,
		period.StartDate, period.EndDate, period.Status, period.AutoClose, period.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update enrollment period: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a period; dependent requests go with it via FK cascade.
func (r *PeriodRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM enrollment_periods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete enrollment period: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CloseExpired flips active auto-close periods whose window has passed.
// Idempotent: once closed, rows no longer match the predicate.
func (r *PeriodRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE enrollment_periods SET status = $1, updated_at = $2 WHERE status = $3 AND auto_close = TRUE AND end_date < $2`
	result, err := r.db.ExecContext(ctx, query, models.PeriodStatusClosed, now, models.PeriodStatusActive)
	if err != nil {
		return 0, fmt.Errorf("close expired periods: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("close expired periods: %w", err)
	}
	return affected, nil
}
