package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-enroll-api/internal/models"
)

// PrerequisiteChecker produces advisory warnings consulted before roster
// assignment. Warnings never block the operation.
type PrerequisiteChecker interface {
	Check(ctx context.Context, studentID, subjectID int64) (models.PrerequisiteWarning, error)
	WarningsForProgram(ctx context.Context, studentID int64, program, yearLevel string) []models.PrerequisiteWarning
}

type prerequisiteStore interface {
	ListProgramSubjects(ctx context.Context, program, yearLevel string) ([]models.Subject, error)
	FindSubject(ctx context.Context, subjectID int64) (*models.Subject, error)
	SubjectName(ctx context.Context, subjectID int64) (string, error)
	HasPassingGrade(ctx context.Context, studentID, subjectID int64) (bool, error)
}

// PrerequisiteService is the SQL-backed default checker: a prerequisite is
// met when the subject declares none, or when the student holds a passing
// grade for the declared prerequisite in any prior term.
type PrerequisiteService struct {
	repo   prerequisiteStore
	logger *zap.Logger
}

// NewPrerequisiteService constructs PrerequisiteService.
func NewPrerequisiteService(repo prerequisiteStore, logger *zap.Logger) *PrerequisiteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrerequisiteService{repo: repo, logger: logger}
}

// Check evaluates a single subject's prerequisite for the student.
func (s *PrerequisiteService) Check(ctx context.Context, studentID, subjectID int64) (models.PrerequisiteWarning, error) {
	warning := models.PrerequisiteWarning{SubjectID: subjectID, Met: true}

	subject, err := s.repo.FindSubject(ctx, subjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return warning, nil
		}
		return warning, err
	}
	if subject.PrerequisiteID == nil {
		return warning, nil
	}

	passed, err := s.repo.HasPassingGrade(ctx, studentID, *subject.PrerequisiteID)
	if err != nil {
		return warning, err
	}
	if passed {
		return warning, nil
	}

	name, err := s.repo.SubjectName(ctx, *subject.PrerequisiteID)
	if err != nil {
		name = fmt.Sprintf("subject %d", *subject.PrerequisiteID)
	}
	warning.Met = false
	warning.Message = fmt.Sprintf("%s requires %s, which has not been passed", subject.Name, name)
	return warning, nil
}

// WarningsForProgram checks every subject scoped to the program/year level
// and collects unmet prerequisites. Checker failures are logged and skipped;
// the result is advisory.
func (s *PrerequisiteService) WarningsForProgram(ctx context.Context, studentID int64, program, yearLevel string) []models.PrerequisiteWarning {
	subjects, err := s.repo.ListProgramSubjects(ctx, program, yearLevel)
	if err != nil {
		s.logger.Warn("prerequisite subject listing failed",
			zap.String("program", program),
			zap.String("year_level", yearLevel),
			zap.Error(err))
		return nil
	}

	var warnings []models.PrerequisiteWarning
	for _, subject := range subjects {
		warning, err := s.Check(ctx, studentID, subject.ID)
		if err != nil {
			s.logger.Warn("prerequisite check failed",
				zap.Int64("student_id", studentID),
				zap.Int64("subject_id", subject.ID),
				zap.Error(err))
			continue
		}
		if !warning.Met {
			warnings = append(warnings, warning)
		}
	}
	return warnings
}
