package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-enroll-api/internal/service"
	appErrors "github.com/noah-isme/sis-enroll-api/pkg/errors"
	"github.com/noah-isme/sis-enroll-api/pkg/response"
)

// AddStudentPayload identifies the student to place on the roster.
type AddStudentPayload struct {
	StudentID int64 `json:"student_id" binding:"required"`
}

// SectionHandler exposes section roster endpoints.
type SectionHandler struct {
	memberships *service.MembershipService
}

// NewSectionHandler constructs SectionHandler.
func NewSectionHandler(memberships *service.MembershipService) *SectionHandler {
	return &SectionHandler{memberships: memberships}
}

// Roster godoc
// @Summary List a section's classroom roster
// @Tags Sections
// @Produce json
// @Param id path int true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/students [get]
func (h *SectionHandler) Roster(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid section id"))
		return
	}
	roster, err := h.memberships.Roster(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// AddStudent godoc
// @Summary Add a student to a section's roster
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path int true "Section ID"
// @Param payload body AddStudentPayload true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/students [post]
func (h *SectionHandler) AddStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid section id"))
		return
	}
	var payload AddStudentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.memberships.AddStudent(c.Request.Context(), id, payload.StudentID, actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Flash(c, http.StatusOK, result, result.Message, result.Severity)
}

// RemoveStudent godoc
// @Summary Remove a student from a section's roster
// @Tags Sections
// @Produce json
// @Param id path int true "Section ID"
// @Param studentId path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/students/{studentId} [delete]
func (h *SectionHandler) RemoveStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid section id"))
		return
	}
	studentID, ok := pathID(c, "studentId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student id"))
		return
	}

	result, err := h.memberships.RemoveStudent(c.Request.Context(), id, studentID, actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Flash(c, http.StatusOK, result, result.Message, result.Severity)
}
