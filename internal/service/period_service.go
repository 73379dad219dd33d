package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-enroll-api/internal/models"
	appErrors "github.com/noah-isme/sis-enroll-api/pkg/errors"
)

type periodRepository interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.EnrollmentPeriod, int, error)
	FindByID(ctx context.Context, id int64) (*models.EnrollmentPeriod, error)
	Exists(ctx context.Context, courseID int64, academicYear string, semester models.Semester) (bool, error)
	Create(ctx context.Context, period *models.EnrollmentPeriod) error
	Update(ctx context.Context, period *models.EnrollmentPeriod) error
	Delete(ctx context.Context, id int64) error
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
}

type auditRecorder interface {
	Record(ctx context.Context, actorID *int64, action, resource string, resourceID *int64, description string)
}

// CreatePeriodRequest describes payload for creating enrollment periods.
type CreatePeriodRequest struct {
	CourseID     int64           `json:"course_id" validate:"required"`
	AcademicYear string          `json:"academic_year" validate:"required"`
	Semester     models.Semester `json:"semester" validate:"required"`
	StartDate    time.Time       `json:"start_date" validate:"required"`
	EndDate      time.Time       `json:"end_date" validate:"required"`
	AutoClose    bool            `json:"auto_close"`
}

// UpdatePeriodRequest overwrites all fields on a period, including a manually
// forced status.
type UpdatePeriodRequest struct {
	CourseID     int64               `json:"course_id" validate:"required"`
	AcademicYear string              `json:"academic_year" validate:"required"`
	Semester     models.Semester     `json:"semester" validate:"required"`
	StartDate    time.Time           `json:"start_date" validate:"required"`
	EndDate      time.Time           `json:"end_date" validate:"required"`
	Status       models.PeriodStatus `json:"status" validate:"required"`
	AutoClose    bool                `json:"auto_close"`
}

// PeriodService manages enrollment period windows.
type PeriodService struct {
	repo      periodRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService creates a new period service instance.
func NewPeriodService(repo periodRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns paginated enrollment periods.
func (s *PeriodService) List(ctx context.Context, filter models.PeriodFilter) ([]models.EnrollmentPeriod, *models.Pagination, error) {
	periods, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollment periods")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return periods, pagination, nil
}

// Get returns a period by ID.
func (s *PeriodService) Get(ctx context.Context, id int64) (*models.EnrollmentPeriod, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment period")
	}
	return period, nil
}

// Create adds a new enrollment period. The initial status is computed from
// the current time against the window; a window already covering the
// (course, year, semester) term is a conflict.
func (s *PeriodService) Create(ctx context.Context, req CreatePeriodRequest, actorID int64) (*models.EnrollmentPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment period payload")
	}
	if !req.Semester.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown semester")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must be before end date")
	}

	exists, err := s.repo.Exists(ctx, req.CourseID, req.AcademicYear, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment period")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an enrollment period already exists for this course and term")
	}

	now := time.Now().UTC()
	status := models.PeriodStatusScheduled
	if !now.Before(req.StartDate) && !now.After(req.EndDate) {
		status = models.PeriodStatusActive
	}

	period := &models.EnrollmentPeriod{
		CourseID:     req.CourseID,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Status:       status,
		AutoClose:    req.AutoClose,
		CreatedBy:    actorID,
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment period")
	}

	s.audit.Record(ctx, &actorID, models.AuditActionPeriodCreate, "enrollment_period", &period.ID,
		fmt.Sprintf("created enrollment period for course %d, %s %s", period.CourseID, period.AcademicYear, period.Semester))
	return period, nil
}

// Update overwrites all fields of a period; admins may force a status.
func (s *PeriodService) Update(ctx context.Context, id int64, req UpdatePeriodRequest, actorID int64) (*models.EnrollmentPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment period payload")
	}
	if !req.Semester.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown semester")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must be before end date")
	}

	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment period")
	}

	period.CourseID = req.CourseID
	period.AcademicYear = req.AcademicYear
	period.Semester = req.Semester
	period.StartDate = req.StartDate
	period.EndDate = req.EndDate
	period.Status = req.Status
	period.AutoClose = req.AutoClose

	if err := s.repo.Update(ctx, period); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment period")
	}

	s.audit.Record(ctx, &actorID, models.AuditActionPeriodUpdate, "enrollment_period", &period.ID,
		fmt.Sprintf("updated enrollment period %d", period.ID))
	return period, nil
}

// Delete removes a period; dependent requests cascade at the storage layer.
func (s *PeriodService) Delete(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment period not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment period")
	}

	s.audit.Record(ctx, &actorID, models.AuditActionPeriodDelete, "enrollment_period", &id,
		fmt.Sprintf("deleted enrollment period %d", id))
	return nil
}

// SweepAutoClose closes active auto-close periods whose window has passed.
// Best-effort housekeeping: failures are logged, never surfaced.
func (s *PeriodService) SweepAutoClose(ctx context.Context) {
	closed, err := s.repo.CloseExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Warn("enrollment period sweep failed", zap.Error(err))
		return
	}
	if closed > 0 {
		s.logger.Info("enrollment periods auto-closed", zap.Int64("count", closed))
	}
}
