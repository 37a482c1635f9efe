package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-academic-api/internal/middleware"
	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/internal/service"
	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
	"github.com/noah-isme/school-academic-api/pkg/response"
)

type studentRecords interface {
	LapseScore(ctx context.Context, actor service.Actor, studentID, courseID, periodID, lapseID string) (*models.LapseResult, error)
	CourseFinal(ctx context.Context, actor service.Actor, studentID, courseID, periodID string) (*models.CourseScore, error)
	ReportCard(ctx context.Context, actor service.Actor, studentID, periodID string) (*models.ReportCard, bool, error)
	Progression(ctx context.Context, actor service.Actor, studentID string) (*models.ProgressionDecision, bool, error)
}

// StudentRecordHandler serves computed scores, report cards and progression previews.
type StudentRecordHandler struct {
	records studentRecords
}

// NewStudentRecordHandler constructs the handler.
func NewStudentRecordHandler(records studentRecords) *StudentRecordHandler {
	return &StudentRecordHandler{records: records}
}

// LapseScore godoc
// @Summary Weighted score of a student in one lapse of a course
// @Tags Scores
// @Produce json
// @Param id path string true "Student ID"
// @Param courseId query string true "Course ID"
// @Param periodId query string true "Academic period ID"
// @Param lapseId query string true "Lapse ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/scores [get]
func (h *StudentRecordHandler) LapseScore(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	courseID := strings.TrimSpace(c.Query("courseId"))
	periodID := strings.TrimSpace(c.Query("periodId"))
	lapseID := strings.TrimSpace(c.Query("lapseId"))
	if courseID == "" || periodID == "" || lapseID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "courseId, periodId and lapseId are required"))
		return
	}
	result, err := h.records.LapseScore(c.Request.Context(), actor, c.Param("id"), courseID, periodID, lapseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CourseFinal godoc
// @Summary Final score and approval of a student in a course
// @Tags Scores
// @Produce json
// @Param id path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Param periodId query string true "Academic period ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/courses/{courseId}/final [get]
func (h *StudentRecordHandler) CourseFinal(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	periodID := strings.TrimSpace(c.Query("periodId"))
	if periodID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "periodId is required"))
		return
	}
	score, err := h.records.CourseFinal(c.Request.Context(), actor, c.Param("id"), c.Param("courseId"), periodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// ReportCard godoc
// @Summary Report card of a student for an academic period
// @Tags Scores
// @Produce json
// @Param id path string true "Student ID"
// @Param periodId query string true "Academic period ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/report-card [get]
func (h *StudentRecordHandler) ReportCard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	periodID := strings.TrimSpace(c.Query("periodId"))
	if periodID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "periodId is required"))
		return
	}
	card, cacheHit, err := h.records.ReportCard(c.Request.Context(), actor, c.Param("id"), periodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, card, nil, middleware.ExtractMeta(c))
}

// Progression godoc
// @Summary Study year the student would be placed in next
// @Tags Progression
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/progression [get]
func (h *StudentRecordHandler) Progression(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	decision, cacheHit, err := h.records.Progression(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, decision, nil, middleware.ExtractMeta(c))
}
