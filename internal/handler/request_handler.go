package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-enroll-api/internal/models"
	"github.com/noah-isme/sis-enroll-api/internal/service"
	appErrors "github.com/noah-isme/sis-enroll-api/pkg/errors"
	"github.com/noah-isme/sis-enroll-api/pkg/response"
)

// ApproveRequestPayload carries the reviewing admin's verification flag.
type ApproveRequestPayload struct {
	RequirementsVerified bool `json:"requirements_verified"`
}

// RejectRequestPayload carries the rejection reason. An empty reason is
// accepted.
type RejectRequestPayload struct {
	Reason string `json:"reason"`
}

// RequestHandler exposes enrollment request review endpoints.
type RequestHandler struct {
	approvals *service.ApprovalService
	metrics   *service.MetricsService
}

// NewRequestHandler constructs RequestHandler.
func NewRequestHandler(approvals *service.ApprovalService, metrics *service.MetricsService) *RequestHandler {
	return &RequestHandler{approvals: approvals, metrics: metrics}
}

// List godoc
// @Summary List enrollment requests
// @Tags Enrollment Requests
// @Produce json
// @Param studentId query int false "Filter by student"
// @Param periodId query int false "Filter by period"
// @Param status query string false "Filter by status"
// @Param academicYear query string false "Filter by academic year"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollment/requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	var filter models.RequestFilter
	if studentID, err := strconv.ParseInt(c.Query("studentId"), 10, 64); err == nil {
		filter.StudentID = studentID
	}
	if periodID, err := strconv.ParseInt(c.Query("periodId"), 10, 64); err == nil {
		filter.EnrollmentPeriodID = periodID
	}
	filter.Status = models.RequestStatus(c.Query("status"))
	filter.AcademicYear = c.Query("academicYear")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	requests, pagination, err := h.approvals.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get an enrollment request
// @Tags Enrollment Requests
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /enrollment/requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request id"))
		return
	}
	detail, err := h.approvals.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Approve godoc
// @Summary Approve an enrollment request
// @Tags Enrollment Requests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body ApproveRequestPayload true "Approval payload"
// @Success 200 {object} response.Envelope
// @Router /enrollment/requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request id"))
		return
	}
	var payload ApproveRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	detail, err := h.approvals.Approve(c.Request.Context(), id, actorIDFromContext(c), payload.RequirementsVerified)
	if err != nil {
		h.metrics.CountReview("approve_failed")
		response.Error(c, err)
		return
	}
	h.metrics.CountReview("approved")
	response.Flash(c, http.StatusOK, detail, fmt.Sprintf("enrollment request %d approved", id), response.SeveritySuccess)
}

// Reject godoc
// @Summary Reject an enrollment request
// @Tags Enrollment Requests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body RejectRequestPayload true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Router /enrollment/requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request id"))
		return
	}
	var payload RejectRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	detail, err := h.approvals.Reject(c.Request.Context(), id, actorIDFromContext(c), payload.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountReview("rejected")
	response.Flash(c, http.StatusOK, detail, fmt.Sprintf("enrollment request %d rejected", id), response.SeveritySuccess)
}

// Void godoc
// @Summary Void a pending enrollment request
// @Tags Enrollment Requests
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /enrollment/requests/{id}/void [post]
func (h *RequestHandler) Void(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request id"))
		return
	}
	detail, err := h.approvals.Void(c.Request.Context(), id, actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountReview("voided")
	response.Flash(c, http.StatusOK, detail, fmt.Sprintf("enrollment request %d voided", id), response.SeveritySuccess)
}
