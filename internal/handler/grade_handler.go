package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-academic-api/internal/dto"
	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/internal/service"
	"github.com/noah-isme/school-academic-api/pkg/response"
)

type gradeEntry interface {
	List(ctx context.Context, actor service.Actor, assignmentID string) ([]models.Grade, error)
	Upsert(ctx context.Context, actor service.Actor, assignmentID, studentID string, req dto.UpsertGradeRequest) (*models.Grade, error)
	BulkUpsert(ctx context.Context, actor service.Actor, assignmentID string, req dto.BulkGradeRequest) ([]models.Grade, error)
}

// GradeHandler exposes grade entry endpoints nested under assignments.
type GradeHandler struct {
	grades gradeEntry
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades gradeEntry) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// List godoc
// @Summary List grades of an assignment
// @Tags Grades
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	grades, err := h.grades.List(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// Upsert godoc
// @Summary Upsert a student's grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.UpsertGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /assignments/{id}/grades/{studentId} [put]
func (h *GradeHandler) Upsert(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.UpsertGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	grade, err := h.grades.Upsert(c.Request.Context(), actor, c.Param("id"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Bulk godoc
// @Summary Bulk upsert grades of an assignment
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.BulkGradeRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/grades [post]
func (h *GradeHandler) Bulk(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.BulkGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	result, err := h.grades.BulkUpsert(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
