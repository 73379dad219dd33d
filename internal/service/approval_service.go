package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-enroll-api/internal/models"
	"github.com/noah-isme/sis-enroll-api/internal/repository"
	appErrors "github.com/noah-isme/sis-enroll-api/pkg/errors"
)

type txBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type requestStore interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, int, error)
	FindDetailByID(ctx context.Context, q repository.Queryer, id int64) (*models.RequestDetail, error)
	MarkApproved(ctx context.Context, q repository.Queryer, id, reviewerID int64, reviewedAt time.Time) error
	MarkRejected(ctx context.Context, id, reviewerID int64, reason string, reviewedAt time.Time) error
	MarkVoided(ctx context.Context, id, reviewerID int64, reviewedAt time.Time) error
}

type sectionFinder interface {
	FindByTerm(ctx context.Context, q repository.Queryer, courseID int64, academicYear string, semester models.Semester) ([]models.Section, error)
	FindByShape(ctx context.Context, q repository.Queryer, courseID int64, academicYear string, semester models.Semester, sectionName, yearLevel string) (*models.Section, error)
}

type membershipShapeReader interface {
	LatestEnrolledShape(ctx context.Context, q repository.Queryer, studentID int64) (*models.MembershipShape, error)
}

type scheduleReader interface {
	DistinctActivePairs(ctx context.Context, q repository.Queryer, sectionID int64) ([]models.SubjectTeacher, error)
}

type markerStore interface {
	MarkerExists(ctx context.Context, q repository.Queryer, studentID, subjectID int64, academicYear string, semester models.Semester) (bool, error)
	InsertMarker(ctx context.Context, q repository.Queryer, marker *models.GradeEnrollmentMarker) error
}

type studentReader interface {
	FindByID(ctx context.Context, q repository.Queryer, id int64) (*models.Student, error)
}

// ApprovalService drives the enrollment request review workflow. Approval is
// transactional: the status flip and every enrollment marker it fans out to
// commit together or not at all.
type ApprovalService struct {
	db          txBeginner
	requests    requestStore
	sections    sectionFinder
	memberships membershipShapeReader
	schedules   scheduleReader
	markers     markerStore
	students    studentReader
	audit       auditRecorder
	logger      *zap.Logger
}

// NewApprovalService constructs ApprovalService.
func NewApprovalService(db txBeginner, requests requestStore, sections sectionFinder, memberships membershipShapeReader, schedules scheduleReader, markers markerStore, students studentReader, audit auditRecorder, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		db:          db,
		requests:    requests,
		sections:    sections,
		memberships: memberships,
		schedules:   schedules,
		markers:     markers,
		students:    students,
		audit:       audit,
		logger:      logger,
	}
}

// List returns enrollment requests with pagination metadata.
func (s *ApprovalService) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, *models.Pagination, error) {
	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollment requests")
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
	return requests, pagination, nil
}

// Get returns a request with its period context.
func (s *ApprovalService) Get(ctx context.Context, id int64) (*models.RequestDetail, error) {
	detail, err := s.requests.FindDetailByID(ctx, s.queryer(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment request")
	}
	return detail, nil
}

// Approve marks a request approved and auto-enrolls the student into every
// subject scheduled to their resolved section(s). All writes share one
// transaction; any failure rolls the request back to its prior state.
func (s *ApprovalService) Approve(ctx context.Context, requestID, reviewerID int64, requirementsVerified bool) (*models.RequestDetail, error) {
	if !requirementsVerified {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requirements not verified")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin approval transaction")
	}
	detail, err := s.approveInTx(ctx, tx, requestID, reviewerID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit approval")
	}

	s.audit.Record(ctx, &reviewerID, models.AuditActionApprove, "enrollment_request", &requestID,
		fmt.Sprintf("approved enrollment request %d", requestID))
	return detail, nil
}

func (s *ApprovalService) approveInTx(ctx context.Context, tx *sqlx.Tx, requestID, reviewerID int64) (*models.RequestDetail, error) {
	detail, err := s.requests.FindDetailByID(ctx, tx, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment request")
	}

	now := time.Now().UTC()
	if err := s.requests.MarkApproved(ctx, tx, requestID, reviewerID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve enrollment request")
	}
	detail.Status = models.RequestStatusApproved
	detail.ReviewedBy = &reviewerID
	detail.ReviewedAt = &now
	detail.RequirementsVerified = true

	student, err := s.students.FindByID(ctx, tx, detail.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			// Approval without roster placement is a valid outcome.
			return detail, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.CourseID == nil {
		return detail, nil
	}

	sections, err := s.resolveSections(ctx, tx, *student.CourseID, detail.AcademicYear, detail.Semester, detail.StudentID)
	if err != nil {
		return nil, err
	}

	for _, section := range sections {
		pairs, err := s.schedules.DistinctActivePairs(ctx, tx, section.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section schedules")
		}
		for _, pair := range pairs {
			exists, err := s.markers.MarkerExists(ctx, tx, detail.StudentID, pair.SubjectID, detail.AcademicYear, detail.Semester)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment marker")
			}
			if exists {
				continue
			}
			marker := &models.GradeEnrollmentMarker{
				StudentID:    detail.StudentID,
				SubjectID:    pair.SubjectID,
				TeacherID:    pair.TeacherID,
				AcademicYear: detail.AcademicYear,
				Semester:     detail.Semester,
				GradeType:    models.GradeTypeParticipation,
				Grade:        0,
				CreatedAt:    now,
			}
			if err := s.markers.InsertMarker(ctx, tx, marker); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment marker")
			}
		}
	}

	return detail, nil
}

// resolveSections finds the student's destination section(s) for the
// requested term. Two tiers, stop at the first non-empty result:
//
//  1. sections of the student's course matching the request's term directly;
//  2. the shape (section name, year level) of the student's most recent
//     enrolled roster membership, projected onto the request's term.
//
// The carry-forward tier is a heuristic for students transitioning between
// terms whose new section rows don't exist yet; it can legitimately resolve
// nothing, in which case approval proceeds with zero enrollments.
func (s *ApprovalService) resolveSections(ctx context.Context, q repository.Queryer, courseID int64, academicYear string, semester models.Semester, studentID int64) ([]models.Section, error) {
	sections, err := s.sections.FindByTerm(ctx, q, courseID, academicYear, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve sections")
	}
	if len(sections) > 0 {
		return sections, nil
	}

	shape, err := s.memberships.LatestEnrolledShape(ctx, q, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prior membership")
	}

	section, err := s.sections.FindByShape(ctx, q, courseID, academicYear, semester, shape.SectionName, shape.YearLevel)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve carry-forward section")
	}
	return []models.Section{*section}, nil
}

// Reject marks a request rejected. Single-row write, no transaction; an
// empty reason is accepted.
func (s *ApprovalService) Reject(ctx context.Context, requestID, reviewerID int64, reason string) (*models.RequestDetail, error) {
	detail, err := s.requests.FindDetailByID(ctx, s.queryer(), requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment request")
	}

	now := time.Now().UTC()
	if err := s.requests.MarkRejected(ctx, requestID, reviewerID, reason, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject enrollment request")
	}
	detail.Status = models.RequestStatusRejected
	detail.ReviewedBy = &reviewerID
	detail.ReviewedAt = &now
	detail.RejectionReason = &reason

	s.audit.Record(ctx, &reviewerID, models.AuditActionReject, "enrollment_request", &requestID,
		fmt.Sprintf("rejected enrollment request %d", requestID))
	return detail, nil
}

// Void cancels a pending request administratively.
func (s *ApprovalService) Void(ctx context.Context, requestID, reviewerID int64) (*models.RequestDetail, error) {
	detail, err := s.requests.FindDetailByID(ctx, s.queryer(), requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment request")
	}
	if detail.Status != models.RequestStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only pending requests can be voided")
	}

	now := time.Now().UTC()
	if err := s.requests.MarkVoided(ctx, requestID, reviewerID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to void enrollment request")
	}
	detail.Status = models.RequestStatusVoided
	detail.ReviewedBy = &reviewerID
	detail.ReviewedAt = &now

	s.audit.Record(ctx, &reviewerID, models.AuditActionVoid, "enrollment_request", &requestID,
		fmt.Sprintf("voided enrollment request %d", requestID))
	return detail, nil
}

// queryer returns a non-transactional Queryer when the tx beginner is a real
// database handle; reads outside the approval transaction use it.
func (s *ApprovalService) queryer() repository.Queryer {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db
	}
	return nil
}
