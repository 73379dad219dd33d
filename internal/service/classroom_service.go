package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-enroll-api/internal/models"
	appErrors "github.com/noah-isme/sis-enroll-api/pkg/errors"
)

type sectionByIDReader interface {
	FindByID(ctx context.Context, id int64) (*models.Section, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type classroomStore interface {
	FindByKey(ctx context.Context, sectionName, program, yearLevel string) (*models.Classroom, error)
	Create(ctx context.Context, classroom *models.Classroom) error
}

type advisoryLocker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ClassroomService resolves a section to its roster-bearing classroom,
// creating the classroom lazily on first assignment. Creation for the same
// (section, program, year level) triple is serialized through a redis
// advisory lock; if redis is unavailable the service degrades to lock-free
// get-or-create.
type ClassroomService struct {
	sections   sectionByIDReader
	courses    courseReader
	classrooms classroomStore
	locker     advisoryLocker
	lockTTL    time.Duration
	defaultCap int
	logger     *zap.Logger
}

// NewClassroomService constructs ClassroomService.
func NewClassroomService(sections sectionByIDReader, courses courseReader, classrooms classroomStore, locker advisoryLocker, lockTTL time.Duration, defaultCapacity int, logger *zap.Logger) *ClassroomService {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	if defaultCapacity <= 0 {
		defaultCapacity = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{
		sections:   sections,
		courses:    courses,
		classrooms: classrooms,
		locker:     locker,
		lockTTL:    lockTTL,
		defaultCap: defaultCapacity,
		logger:     logger,
	}
}

// ResolveOrCreate maps a section to its classroom via the denormalized
// (section name, program, year level) triple, creating the row on demand.
func (s *ClassroomService) ResolveOrCreate(ctx context.Context, sectionID int64) (*models.Classroom, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	course, err := s.courses.FindByID(ctx, section.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	lockKey := fmt.Sprintf("classroom:lock:%s|%s|%s", section.SectionName, course.Name, section.YearLevel)
	locked := s.acquireLock(ctx, lockKey)
	if locked {
		defer s.releaseLock(ctx, lockKey)
	}

	classroom, err := s.classrooms.FindByKey(ctx, section.SectionName, course.Name, section.YearLevel)
	if err == nil {
		return classroom, nil
	}
	if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up classroom")
	}

	maxStudents := section.MaxStudents
	if maxStudents <= 0 {
		maxStudents = s.defaultCap
	}
	classroom = &models.Classroom{
		Name:         fmt.Sprintf("%s %s - Section %s", course.Code, section.YearLevel, section.SectionName),
		Description:  fmt.Sprintf("Auto-created classroom for %s section %s", course.Name, section.SectionName),
		Program:      course.Name,
		YearLevel:    section.YearLevel,
		Section:      section.SectionName,
		AcademicYear: section.AcademicYear,
		Semester:     section.Semester,
		TeacherID:    section.TeacherID,
		MaxStudents:  maxStudents,
		Status:       "active",
	}
	if err := s.classrooms.Create(ctx, classroom); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
	}
	return classroom, nil
}

// acquireLock polls for the advisory lock until acquired or the TTL budget
// is spent. Redis errors log a warning and fall through unlocked: the lock
// narrows a race window, it is not a correctness dependency.
func (s *ClassroomService) acquireLock(ctx context.Context, key string) bool {
	if s.locker == nil {
		return false
	}
	deadline := time.Now().Add(s.lockTTL)
	for {
		ok, err := s.locker.SetNX(ctx, key, 1, s.lockTTL).Result()
		if err != nil {
			s.logger.Warn("classroom lock unavailable", zap.String("key", key), zap.Error(err))
			return false
		}
		if ok {
			return true
		}
		if time.Now().After(deadline) {
			s.logger.Warn("classroom lock contention timeout", zap.String("key", key))
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (s *ClassroomService) releaseLock(ctx context.Context, key string) {
	if err := s.locker.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("classroom lock release failed", zap.String("key", key), zap.Error(err))
	}
}
