package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-academic-api/internal/dto"
	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/internal/repository"
	"github.com/noah-isme/school-academic-api/pkg/response"
)

type enrollmentManager interface {
	List(ctx context.Context, filter repository.EnrollmentFilter) ([]models.Enrollment, error)
	Enroll(ctx context.Context, req dto.EnrollStudentRequest) (*models.Enrollment, error)
}

// EnrollmentHandler manages enrollment endpoints.
type EnrollmentHandler struct {
	service enrollmentManager
}

// NewEnrollmentHandler constructs handler.
func NewEnrollmentHandler(svc enrollmentManager) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param periodId query string false "Filter by academic period"
// @Param sectionId query string false "Filter by section"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := repository.EnrollmentFilter{
		StudentID:        c.Query("studentId"),
		AcademicPeriodID: c.Query("periodId"),
		SectionID:        c.Query("sectionId"),
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Enroll godoc
// @Summary Enroll student in an academic period
// @Description When study_year_id is omitted the study year is resolved from the student's history.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.EnrollStudentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req dto.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	enrollment, err := h.service.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}
