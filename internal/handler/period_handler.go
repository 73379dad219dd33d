package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-enroll-api/internal/models"
	"github.com/noah-isme/sis-enroll-api/internal/service"
	appErrors "github.com/noah-isme/sis-enroll-api/pkg/errors"
	"github.com/noah-isme/sis-enroll-api/pkg/response"
)

// PeriodHandler exposes enrollment period endpoints.
type PeriodHandler struct {
	periods *service.PeriodService
}

// NewPeriodHandler constructs PeriodHandler.
func NewPeriodHandler(periods *service.PeriodService) *PeriodHandler {
	return &PeriodHandler{periods: periods}
}

// List godoc
// @Summary List enrollment periods
// @Tags Enrollment Periods
// @Produce json
// @Param courseId query int false "Filter by course"
// @Param academicYear query string false "Filter by academic year"
// @Param semester query string false "Filter by semester"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollment/periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	var filter models.PeriodFilter
	if courseID, err := strconv.ParseInt(c.Query("courseId"), 10, 64); err == nil {
		filter.CourseID = courseID
	}
	filter.AcademicYear = c.Query("academicYear")
	filter.Semester = models.Semester(c.Query("semester"))
	filter.Status = models.PeriodStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	periods, pagination, err := h.periods.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, pagination)
}

// Get godoc
// @Summary Get an enrollment period
// @Tags Enrollment Periods
// @Produce json
// @Param id path int true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /enrollment/periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid period id"))
		return
	}
	period, err := h.periods.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Create godoc
// @Summary Create an enrollment period
// @Tags Enrollment Periods
// @Accept json
// @Produce json
// @Param payload body service.CreatePeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Router /enrollment/periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req service.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.periods.Create(c.Request.Context(), req, actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Flash(c, http.StatusCreated, period, "enrollment period created", response.SeveritySuccess)
}

// Update godoc
// @Summary Update an enrollment period
// @Tags Enrollment Periods
// @Accept json
// @Produce json
// @Param id path int true "Period ID"
// @Param payload body service.UpdatePeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Router /enrollment/periods/{id} [put]
func (h *PeriodHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid period id"))
		return
	}
	var req service.UpdatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.periods.Update(c.Request.Context(), id, req, actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Flash(c, http.StatusOK, period, "enrollment period updated", response.SeveritySuccess)
}

// Delete godoc
// @Summary Delete an enrollment period
// @Tags Enrollment Periods
// @Produce json
// @Param id path int true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /enrollment/periods/{id} [delete]
func (h *PeriodHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid period id"))
		return
	}
	if err := h.periods.Delete(c.Request.Context(), id, actorIDFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Flash(c, http.StatusOK, nil, "enrollment period deleted", response.SeveritySuccess)
}
