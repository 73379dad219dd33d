package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-enroll-api/internal/models"
	"github.com/noah-isme/sis-enroll-api/internal/repository"
	appErrors "github.com/noah-isme/sis-enroll-api/pkg/errors"
)

func newTxMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

type mockRequestStore struct {
	requests map[int64]models.RequestDetail
	approved []int64
	rejected []int64
	voided   []int64
}

func (m *mockRequestStore) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, int, error) {
	var list []models.RequestDetail
	for _, r := range m.requests {
		list = append(list, r)
	}
	return list, len(list), nil
}

func (m *mockRequestStore) FindDetailByID(ctx context.Context, q repository.Queryer, id int64) (*models.RequestDetail, error) {
	if r, ok := m.requests[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRequestStore) MarkApproved(ctx context.Context, q repository.Queryer, id, reviewerID int64, reviewedAt time.Time) error {
	m.approved = append(m.approved, id)
	return nil
}

func (m *mockRequestStore) MarkRejected(ctx context.Context, id, reviewerID int64, reason string, reviewedAt time.Time) error {
	m.rejected = append(m.rejected, id)
	if r, ok := m.requests[id]; ok {
		r.Status = models.RequestStatusRejected
		m.requests[id] = r
	}
	return nil
}

func (m *mockRequestStore) MarkVoided(ctx context.Context, id, reviewerID int64, reviewedAt time.Time) error {
	m.voided = append(m.voided, id)
	return nil
}

type mockSectionFinder struct {
	byTerm  []models.Section
	byShape *models.Section
}

func (m *mockSectionFinder) FindByTerm(ctx context.Context, q repository.Queryer, courseID int64, academicYear string, semester models.Semester) ([]models.Section, error) {
	return m.byTerm, nil
}

func (m *mockSectionFinder) FindByShape(ctx context.Context, q repository.Queryer, courseID int64, academicYear string, semester models.Semester, sectionName, yearLevel string) (*models.Section, error) {
	if m.byShape == nil {
		return nil, sql.ErrNoRows
	}
	return m.byShape, nil
}

type mockShapeReader struct {
	shape *models.MembershipShape
}

func (m *mockShapeReader) LatestEnrolledShape(ctx context.Context, q repository.Queryer, studentID int64) (*models.MembershipShape, error) {
	if m.shape == nil {
		return nil, sql.ErrNoRows
	}
	return m.shape, nil
}

type mockScheduleReader struct {
	pairs map[int64][]models.SubjectTeacher
}

func (m *mockScheduleReader) DistinctActivePairs(ctx context.Context, q repository.Queryer, sectionID int64) ([]models.SubjectTeacher, error) {
	return m.pairs[sectionID], nil
}

type mockMarkerStore struct {
	existing  map[string]bool
	inserted  []models.GradeEnrollmentMarker
	insertErr error
}

func markerKey(studentID, subjectID int64, year string, semester models.Semester) string {
	return fmt.Sprintf("%d|%d|%s|%s", studentID, subjectID, year, semester)
}

func (m *mockMarkerStore) MarkerExists(ctx context.Context, q repository.Queryer, studentID, subjectID int64, academicYear string, semester models.Semester) (bool, error) {
	return m.existing[markerKey(studentID, subjectID, academicYear, semester)], nil
}

func (m *mockMarkerStore) InsertMarker(ctx context.Context, q repository.Queryer, marker *models.GradeEnrollmentMarker) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.existing == nil {
		m.existing = make(map[string]bool)
	}
	m.existing[markerKey(marker.StudentID, marker.SubjectID, marker.AcademicYear, marker.Semester)] = true
	m.inserted = append(m.inserted, *marker)
	return nil
}

type mockStudentReader struct {
	students map[int64]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, q repository.Queryer, id int64) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockAuditRecorder struct {
	actions []string
}

func (m *mockAuditRecorder) Record(ctx context.Context, actorID *int64, action, resource string, resourceID *int64, description string) {
	m.actions = append(m.actions, action)
}

func pendingRequest(id, studentID, courseID int64) models.RequestDetail {
	return models.RequestDetail{
		EnrollmentRequest: models.EnrollmentRequest{
			ID:                 id,
			StudentID:          studentID,
			CourseID:           courseID,
			EnrollmentPeriodID: 1,
			AcademicYear:       "2025-2026",
			Semester:           models.SemesterFirst,
			Status:             models.RequestStatusPending,
		},
		PeriodCourseID: courseID,
	}
}

func TestApprovalServiceApproveRequiresVerification(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	requests := &mockRequestStore{requests: map[int64]models.RequestDetail{1: pendingRequest(1, 10, 100)}}
	audit := &mockAuditRecorder{}
	svc := NewApprovalService(db, requests, &mockSectionFinder{}, &mockShapeReader{}, &mockScheduleReader{}, &mockMarkerStore{}, &mockStudentReader{}, audit, zap.NewNop())

	_, err := svc.Approve(context.Background(), 1, 99, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, requests.approved)
	assert.Empty(t, audit.actions)
	// The guard fires before any transaction starts.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalServiceApproveNotFound(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	requests := &mockRequestStore{requests: map[int64]models.RequestDetail{}}
	svc := NewApprovalService(db, requests, &mockSectionFinder{}, &mockShapeReader{}, &mockScheduleReader{}, &mockMarkerStore{}, &mockStudentReader{}, &mockAuditRecorder{}, zap.NewNop())

	_, err := svc.Approve(context.Background(), 42, 99, true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalServiceApproveFansOutMarkers(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	courseID := int64(100)
	requests := &mockRequestStore{requests: map[int64]models.RequestDetail{1: pendingRequest(1, 10, courseID)}}
	sections := &mockSectionFinder{byTerm: []models.Section{{ID: 5, CourseID: courseID}}}
	schedules := &mockScheduleReader{pairs: map[int64][]models.SubjectTeacher{
		5: {{SubjectID: 201, TeacherID: 301}, {SubjectID: 202, TeacherID: 302}},
	}}
	markers := &mockMarkerStore{}
	students := &mockStudentReader{students: map[int64]*models.Student{10: {ID: 10, CourseID: &courseID}}}
	audit := &mockAuditRecorder{}
	svc := NewApprovalService(db, requests, sections, &mockShapeReader{}, schedules, markers, students, audit, zap.NewNop())

	detail, err := svc.Approve(context.Background(), 1, 99, true)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, detail.Status)
	assert.True(t, detail.RequirementsVerified)
	assert.Len(t, markers.inserted, 2)
	for _, marker := range markers.inserted {
		assert.Equal(t, models.GradeTypeParticipation, marker.GradeType)
		assert.Zero(t, marker.Grade)
		assert.Equal(t, "2025-2026", marker.AcademicYear)
	}
	assert.Contains(t, audit.actions, models.AuditActionApprove)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalServiceApproveSkipsExistingMarkers(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	courseID := int64(100)
	requests := &mockRequestStore{requests: map[int64]models.RequestDetail{1: pendingRequest(1, 10, courseID)}}
	sections := &mockSectionFinder{byTerm: []models.Section{{ID: 5, CourseID: courseID}}}
	schedules := &mockScheduleReader{pairs: map[int64][]models.SubjectTeacher{
		5: {{SubjectID: 201, TeacherID: 301}, {SubjectID: 202, TeacherID: 302}},
	}}
	markers := &mockMarkerStore{existing: map[string]bool{
		markerKey(10, 201, "2025-2026", models.SemesterFirst): true,
	}}
	students := &mockStudentReader{students: map[int64]*models.Student{10: {ID: 10, CourseID: &courseID}}}
	svc := NewApprovalService(db, requests, sections, &mockShapeReader{}, schedules, markers, students, &mockAuditRecorder{}, zap.NewNop())

	_, err := svc.Approve(context.Background(), 1, 99, true)
	require.NoError(t, err)
	require.Len(t, markers.inserted, 1)
	assert.Equal(t, int64(202), markers.inserted[0].SubjectID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalServiceApproveWithoutSectionsStillApproves(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	courseID := int64(100)
	requests := &mockRequestStore{requests: map[int64]models.RequestDetail{1: pendingRequest(1, 10, courseID)}}
	students := &mockStudentReader{students: map[int64]*models.Student{10: {ID: 10, CourseID: &courseID}}}
	markers := &mockMarkerStore{}
	svc := NewApprovalService(db, requests, &mockSectionFinder{}, &mockShapeReader{}, &mockScheduleReader{}, markers, students, &mockAuditRecorder{}, zap.NewNop())

	detail, err := svc.Approve(context.Background(), 1, 99, true)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, detail.Status)
	assert.Empty(t, markers.inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalServiceApproveCarryForwardShape(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	courseID := int64(100)
	requests := &mockRequestStore{requests: map[int64]models.RequestDetail{1: pendingRequest(1, 10, courseID)}}
	sections := &mockSectionFinder{byShape: &models.Section{ID: 7, CourseID: courseID}}
	shapes := &mockShapeReader{shape: &models.MembershipShape{SectionName: "A", YearLevel: "2nd Year", Program: "BSIT"}}
	schedules := &mockScheduleReader{pairs: map[int64][]models.SubjectTeacher{
		7: {{SubjectID: 210, TeacherID: 310}},
	}}
	markers := &mockMarkerStore{}
	students := &mockStudentReader{students: map[int64]*models.Student{10: {ID: 10, CourseID: &courseID}}}
	svc := NewApprovalService(db, requests, sections, shapes, schedules, markers, students, &mockAuditRecorder{}, zap.NewNop())

	_, err := svc.Approve(context.Background(), 1, 99, true)
	require.NoError(t, err)
	require.Len(t, markers.inserted, 1)
	assert.Equal(t, int64(210), markers.inserted[0].SubjectID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalServiceApproveMarkerFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	courseID := int64(100)
	requests := &mockRequestStore{requests: map[int64]models.RequestDetail{1: pendingRequest(1, 10, courseID)}}
	sections := &mockSectionFinder{byTerm: []models.Section{{ID: 5, CourseID: courseID}}}
	schedules := &mockScheduleReader{pairs: map[int64][]models.SubjectTeacher{
		5: {{SubjectID: 201, TeacherID: 301}},
	}}
	markers := &mockMarkerStore{insertErr: errors.New("disk full")}
	students := &mockStudentReader{students: map[int64]*models.Student{10: {ID: 10, CourseID: &courseID}}}
	audit := &mockAuditRecorder{}
	svc := NewApprovalService(db, requests, sections, &mockShapeReader{}, schedules, markers, students, audit, zap.NewNop())

	_, err := svc.Approve(context.Background(), 1, 99, true)
	require.Error(t, err)
	assert.Empty(t, audit.actions)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalServiceApproveStudentWithoutCourse(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	requests := &mockRequestStore{requests: map[int64]models.RequestDetail{1: pendingRequest(1, 10, 100)}}
	markers := &mockMarkerStore{}
	students := &mockStudentReader{students: map[int64]*models.Student{10: {ID: 10}}}
	svc := NewApprovalService(db, requests, &mockSectionFinder{}, &mockShapeReader{}, &mockScheduleReader{}, markers, students, &mockAuditRecorder{}, zap.NewNop())

	detail, err := svc.Approve(context.Background(), 1, 99, true)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, detail.Status)
	assert.Empty(t, markers.inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalServiceRejectAcceptsEmptyReason(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()
	requests := &mockRequestStore{requests: map[int64]models.RequestDetail{1: pendingRequest(1, 10, 100)}}
	audit := &mockAuditRecorder{}
	svc := NewApprovalService(db, requests, &mockSectionFinder{}, &mockShapeReader{}, &mockScheduleReader{}, &mockMarkerStore{}, &mockStudentReader{}, audit, zap.NewNop())

	detail, err := svc.Reject(context.Background(), 1, 99, "")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, detail.Status)
	assert.Contains(t, requests.rejected, int64(1))
	assert.Contains(t, audit.actions, models.AuditActionReject)
}

func TestApprovalServiceVoidOnlyPending(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()
	approved := pendingRequest(2, 11, 100)
	approved.Status = models.RequestStatusApproved
	requests := &mockRequestStore{requests: map[int64]models.RequestDetail{
		1: pendingRequest(1, 10, 100),
		2: approved,
	}}
	svc := NewApprovalService(db, requests, &mockSectionFinder{}, &mockShapeReader{}, &mockScheduleReader{}, &mockMarkerStore{}, &mockStudentReader{}, &mockAuditRecorder{}, zap.NewNop())

	detail, err := svc.Void(context.Background(), 1, 99)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusVoided, detail.Status)

	_, err = svc.Void(context.Background(), 2, 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
