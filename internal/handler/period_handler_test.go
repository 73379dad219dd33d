package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-enroll-api/internal/middleware"
	"github.com/noah-isme/sis-enroll-api/internal/models"
	"github.com/noah-isme/sis-enroll-api/internal/service"
)

type periodRepoStub struct {
	periods  map[int64]models.EnrollmentPeriod
	existing bool
	nextID   int64
}

func (m *periodRepoStub) List(ctx context.Context, filter models.PeriodFilter) ([]models.EnrollmentPeriod, int, error) {
	var list []models.EnrollmentPeriod
	for _, p := range m.periods {
		list = append(list, p)
	}
	return list, len(list), nil
}

func (m *periodRepoStub) FindByID(ctx context.Context, id int64) (*models.EnrollmentPeriod, error) {
	if p, ok := m.periods[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *periodRepoStub) Exists(ctx context.Context, courseID int64, academicYear string, semester models.Semester) (bool, error) {
	return m.existing, nil
}

func (m *periodRepoStub) Create(ctx context.Context, period *models.EnrollmentPeriod) error {
	m.nextID++
	period.ID = m.nextID
	if m.periods == nil {
		m.periods = make(map[int64]models.EnrollmentPeriod)
	}
	m.periods[period.ID] = *period
	return nil
}

func (m *periodRepoStub) Update(ctx context.Context, period *models.EnrollmentPeriod) error {
	if _, ok := m.periods[period.ID]; !ok {
		return sql.ErrNoRows
	}
	m.periods[period.ID] = *period
	return nil
}

func (m *periodRepoStub) Delete(ctx context.Context, id int64) error {
	if _, ok := m.periods[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.periods, id)
	return nil
}

func (m *periodRepoStub) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type auditStub struct{}

func (auditStub) Record(ctx context.Context, actorID *int64, action, resource string, resourceID *int64, description string) {
}

func newPeriodTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 99, Role: models.RoleAdmin})
	return c, w
}

func TestPeriodHandlerCreate(t *testing.T) {
	repo := &periodRepoStub{}
	h := NewPeriodHandler(service.NewPeriodService(repo, auditStub{}, nil, zap.NewNop()))

	start := time.Now().UTC().Add(24 * time.Hour)
	payload, _ := json.Marshal(service.CreatePeriodRequest{
		CourseID:     100,
		AcademicYear: "2025-2026",
		Semester:     models.SemesterFirst,
		StartDate:    start,
		EndDate:      start.Add(7 * 24 * time.Hour),
		AutoClose:    true,
	})
	c, w := newPeriodTestContext(t, http.MethodPost, "/enrollment/periods", payload)

	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.EnrollmentPeriod `json:"data"`
		Meta map[string]interface{}  `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, int64(99), envelope.Data.CreatedBy)
	assert.Equal(t, "success", envelope.Meta["severity"])
	assert.Equal(t, "enrollment period created", envelope.Meta["message"])
}

func TestPeriodHandlerCreateConflict(t *testing.T) {
	repo := &periodRepoStub{existing: true}
	h := NewPeriodHandler(service.NewPeriodService(repo, auditStub{}, nil, zap.NewNop()))

	start := time.Now().UTC()
	payload, _ := json.Marshal(service.CreatePeriodRequest{
		CourseID:     100,
		AcademicYear: "2025-2026",
		Semester:     models.SemesterFirst,
		StartDate:    start,
		EndDate:      start.Add(time.Hour),
	})
	c, w := newPeriodTestContext(t, http.MethodPost, "/enrollment/periods", payload)

	h.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestPeriodHandlerGetInvalidID(t *testing.T) {
	h := NewPeriodHandler(service.NewPeriodService(&periodRepoStub{}, auditStub{}, nil, zap.NewNop()))

	c, w := newPeriodTestContext(t, http.MethodGet, "/enrollment/periods/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPeriodHandlerGetNotFound(t *testing.T) {
	h := NewPeriodHandler(service.NewPeriodService(&periodRepoStub{}, auditStub{}, nil, zap.NewNop()))

	c, w := newPeriodTestContext(t, http.MethodGet, "/enrollment/periods/404", nil)
	c.Params = gin.Params{{Key: "id", Value: "404"}}

	h.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPeriodHandlerDelete(t *testing.T) {
	repo := &periodRepoStub{periods: map[int64]models.EnrollmentPeriod{5: {ID: 5}}}
	h := NewPeriodHandler(service.NewPeriodService(repo, auditStub{}, nil, zap.NewNop()))

	c, w := newPeriodTestContext(t, http.MethodDelete, fmt.Sprintf("/enrollment/periods/%d", 5), nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	h.Delete(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, repo.periods)
}
