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

type classroomResolver interface {
	ResolveOrCreate(ctx context.Context, sectionID int64) (*models.Classroom, error)
}

type rosterStore interface {
	FindMembership(ctx context.Context, q repository.Queryer, classroomID, studentID int64) (*models.ClassroomStudent, error)
	InsertMembership(ctx context.Context, q repository.Queryer, membership *models.ClassroomStudent) error
	DeleteMembership(ctx context.Context, q repository.Queryer, classroomID, studentID int64) (bool, error)
	CountDistinctStudents(ctx context.Context, q repository.Queryer, classroomID int64) (int, error)
	ListRoster(ctx context.Context, classroomID int64) ([]models.RosterEntry, error)
}

type sectionStore interface {
	FindByID(ctx context.Context, id int64) (*models.Section, error)
	UpdateCurrentStudents(ctx context.Context, q repository.Queryer, id int64, count int) error
}

type placementWriter interface {
	UpdatePlacement(ctx context.Context, q repository.Queryer, id int64, section, yearLevel string) error
}

// MembershipResult reports the outcome of a roster mutation together with
// the message/severity pair the admin UI renders.
type MembershipResult struct {
	Classroom *models.Classroom            `json:"classroom,omitempty"`
	Warnings  []models.PrerequisiteWarning `json:"warnings,omitempty"`
	Message   string                       `json:"-"`
	Severity  string                       `json:"-"`
}

// MembershipService manages classroom rosters. Roster mutations are
// transactional: the membership write, the count recompute and the student's
// denormalized placement commit together or not at all. Enrollment markers
// are materialized best-effort after commit and never fail the assignment.
type MembershipService struct {
	db            txBeginner
	resolver      classroomResolver
	rosters       rosterStore
	sections      sectionStore
	schedules     scheduleReader
	markers       markerStore
	students      placementWriter
	prerequisites PrerequisiteChecker
	audit         auditRecorder
	logger        *zap.Logger
}

// NewMembershipService constructs MembershipService.
func NewMembershipService(db txBeginner, resolver classroomResolver, rosters rosterStore, sections sectionStore, schedules scheduleReader, markers markerStore, students placementWriter, prerequisites PrerequisiteChecker, audit auditRecorder, logger *zap.Logger) *MembershipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipService{
		db:            db,
		resolver:      resolver,
		rosters:       rosters,
		sections:      sections,
		schedules:     schedules,
		markers:       markers,
		students:      students,
		prerequisites: prerequisites,
		audit:         audit,
		logger:        logger,
	}
}

// AddStudent places a student on a section's classroom roster. A student
// already on the roster is a warning no-op, not an error. The membership
// insert, the count recompute and the placement update share one
// transaction.
func (s *MembershipService) AddStudent(ctx context.Context, sectionID, studentID, actorID int64) (*MembershipResult, error) {
	classroom, err := s.resolver.ResolveOrCreate(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.rosters.FindMembership(ctx, s.queryer(), classroom.ID, studentID); err == nil {
		return &MembershipResult{
			Classroom: classroom,
			Message:   "student is already in this section",
			Severity:  "warning",
		}, nil
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roster membership")
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	var warnings []models.PrerequisiteWarning
	if s.prerequisites != nil {
		warnings = s.prerequisites.WarningsForProgram(ctx, studentID, classroom.Program, classroom.YearLevel)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin roster transaction")
	}
	if err := s.addInTx(ctx, tx, classroom.ID, section, studentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit roster assignment")
	}

	// Auto-enrollment is subordinate to the roster assignment: marker
	// failures after commit are logged, the membership stands.
	s.autoEnroll(ctx, section, studentID)

	s.audit.Record(ctx, &actorID, models.AuditActionSectionAdd, "section", &sectionID,
		fmt.Sprintf("added student %d to section %d", studentID, sectionID))

	message := fmt.Sprintf("student added to section %s", section.SectionName)
	if len(warnings) > 0 {
		message = fmt.Sprintf("%s (%d prerequisite warning(s))", message, len(warnings))
	}
	return &MembershipResult{Classroom: classroom, Warnings: warnings, Message: message, Severity: "success"}, nil
}

func (s *MembershipService) addInTx(ctx context.Context, tx *sqlx.Tx, classroomID int64, section *models.Section, studentID int64) error {
	membership := &models.ClassroomStudent{ClassroomID: classroomID, StudentID: studentID, EnrollmentStatus: "enrolled"}
	if err := s.rosters.InsertMembership(ctx, tx, membership); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add student to section")
	}
	if err := s.recomputeRoster(ctx, tx, classroomID, section.ID); err != nil {
		return err
	}
	if err := s.students.UpdatePlacement(ctx, tx, studentID, section.SectionName, section.YearLevel); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student placement")
	}
	return nil
}

// RemoveStudent takes a student off the roster and recomputes the count,
// both in one transaction. Enrollment markers created earlier are retained:
// they are append-only records of participation, not roster state.
func (s *MembershipService) RemoveStudent(ctx context.Context, sectionID, studentID, actorID int64) (*MembershipResult, error) {
	classroom, err := s.resolver.ResolveOrCreate(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin roster transaction")
	}

	deleted, err := s.rosters.DeleteMembership(ctx, tx, classroom.ID, studentID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student from section")
	}
	if !deleted {
		tx.Rollback() //nolint:errcheck
		return &MembershipResult{
			Classroom: classroom,
			Message:   "student is not in this section",
			Severity:  "warning",
		}, nil
	}

	if err := s.recomputeRoster(ctx, tx, classroom.ID, sectionID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit roster removal")
	}

	s.audit.Record(ctx, &actorID, models.AuditActionSectionRemove, "section", &sectionID,
		fmt.Sprintf("removed student %d from section %d", studentID, sectionID))

	return &MembershipResult{Classroom: classroom, Message: "student removed from section", Severity: "success"}, nil
}

// Roster lists the classroom roster for a section.
func (s *MembershipService) Roster(ctx context.Context, sectionID int64) ([]models.RosterEntry, error) {
	classroom, err := s.resolver.ResolveOrCreate(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	roster, err := s.rosters.ListRoster(ctx, classroom.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}
	return roster, nil
}

// autoEnroll creates missing enrollment markers for every distinct active
// (subject, teacher) pair scheduled to the section. Runs after the roster
// transaction commits; failures leave a marker gap, never a broken roster.
func (s *MembershipService) autoEnroll(ctx context.Context, section *models.Section, studentID int64) {
	q := s.queryer()
	pairs, err := s.schedules.DistinctActivePairs(ctx, q, section.ID)
	if err != nil {
		s.logger.Warn("auto-enroll schedule lookup failed", zap.Int64("section_id", section.ID), zap.Error(err))
		return
	}
	now := time.Now().UTC()
	for _, pair := range pairs {
		exists, err := s.markers.MarkerExists(ctx, q, studentID, pair.SubjectID, section.AcademicYear, section.Semester)
		if err != nil {
			s.logger.Warn("auto-enroll marker check failed",
				zap.Int64("student_id", studentID),
				zap.Int64("subject_id", pair.SubjectID),
				zap.Error(err))
			continue
		}
		if exists {
			continue
		}
		marker := &models.GradeEnrollmentMarker{
			StudentID:    studentID,
			SubjectID:    pair.SubjectID,
			TeacherID:    pair.TeacherID,
			AcademicYear: section.AcademicYear,
			Semester:     section.Semester,
			GradeType:    models.GradeTypeParticipation,
			Grade:        0,
			CreatedAt:    now,
		}
		if err := s.markers.InsertMarker(ctx, q, marker); err != nil {
			s.logger.Warn("auto-enroll marker insert failed",
				zap.Int64("student_id", studentID),
				zap.Int64("subject_id", pair.SubjectID),
				zap.Error(err))
		}
	}
}

// recomputeRoster rewrites current_students from COUNT(DISTINCT student_id)
// over the roster, tolerating any prior drift.
func (s *MembershipService) recomputeRoster(ctx context.Context, q repository.Queryer, classroomID, sectionID int64) error {
	count, err := s.rosters.CountDistinctStudents(ctx, q, classroomID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recount roster")
	}
	if err := s.sections.UpdateCurrentStudents(ctx, q, sectionID, count); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section count")
	}
	return nil
}

// queryer returns a non-transactional Queryer when the tx beginner is a real
// database handle; reads and post-commit marker writes use it.
func (s *MembershipService) queryer() repository.Queryer {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db
	}
	return nil
}
