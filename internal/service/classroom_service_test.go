package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-enroll-api/internal/models"
	appErrors "github.com/noah-isme/sis-enroll-api/pkg/errors"
)

type mockSectionByID struct {
	sections map[int64]*models.Section
}

func (m *mockSectionByID) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	if s, ok := m.sections[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseReader struct {
	courses map[int64]*models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type mockClassroomStore struct {
	byKey   map[string]*models.Classroom
	created []models.Classroom
}

func classroomKey(section, program, yearLevel string) string {
	return section + "|" + program + "|" + yearLevel
}

func (m *mockClassroomStore) FindByKey(ctx context.Context, sectionName, program, yearLevel string) (*models.Classroom, error) {
	if c, ok := m.byKey[classroomKey(sectionName, program, yearLevel)]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassroomStore) Create(ctx context.Context, classroom *models.Classroom) error {
	classroom.ID = int64(len(m.created) + 1)
	if m.byKey == nil {
		m.byKey = make(map[string]*models.Classroom)
	}
	m.byKey[classroomKey(classroom.Section, classroom.Program, classroom.YearLevel)] = classroom
	m.created = append(m.created, *classroom)
	return nil
}

func classroomFixtures() (*mockSectionByID, *mockCourseReader) {
	sections := &mockSectionByID{sections: map[int64]*models.Section{
		5: {ID: 5, CourseID: 100, SectionName: "A", YearLevel: "2nd Year", AcademicYear: "2025-2026", Semester: models.SemesterFirst, MaxStudents: 40},
	}}
	courses := &mockCourseReader{courses: map[int64]*models.Course{
		100: {ID: 100, Name: "BSIT", Code: "BSIT"},
	}}
	return sections, courses
}

func TestClassroomServiceResolveCreatesOnFirstUse(t *testing.T) {
	sections, courses := classroomFixtures()
	store := &mockClassroomStore{}
	svc := NewClassroomService(sections, courses, store, nil, time.Second, 50, zap.NewNop())

	classroom, err := svc.ResolveOrCreate(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, "BSIT 2nd Year - Section A", classroom.Name)
	assert.Equal(t, "BSIT", classroom.Program)
	assert.Equal(t, "A", classroom.Section)
	assert.Equal(t, 40, classroom.MaxStudents)
	assert.Equal(t, "active", classroom.Status)
}

func TestClassroomServiceResolveIsStable(t *testing.T) {
	sections, courses := classroomFixtures()
	store := &mockClassroomStore{}
	svc := NewClassroomService(sections, courses, store, nil, time.Second, 50, zap.NewNop())

	first, err := svc.ResolveOrCreate(context.Background(), 5)
	require.NoError(t, err)
	second, err := svc.ResolveOrCreate(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.created, 1)
}

func TestClassroomServiceDefaultCapacity(t *testing.T) {
	sections, courses := classroomFixtures()
	sections.sections[5].MaxStudents = 0
	store := &mockClassroomStore{}
	svc := NewClassroomService(sections, courses, store, nil, time.Second, 35, zap.NewNop())

	classroom, err := svc.ResolveOrCreate(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 35, classroom.MaxStudents)
}

func TestClassroomServiceSectionNotFound(t *testing.T) {
	sections, courses := classroomFixtures()
	svc := NewClassroomService(sections, courses, &mockClassroomStore{}, nil, time.Second, 50, zap.NewNop())

	_, err := svc.ResolveOrCreate(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassroomServiceCourseNotFound(t *testing.T) {
	sections, _ := classroomFixtures()
	courses := &mockCourseReader{}
	svc := NewClassroomService(sections, courses, &mockClassroomStore{}, nil, time.Second, 50, zap.NewNop())

	_, err := svc.ResolveOrCreate(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
