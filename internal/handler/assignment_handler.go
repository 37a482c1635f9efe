package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-academic-api/internal/dto"
	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/internal/service"
	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
	"github.com/noah-isme/school-academic-api/pkg/response"
)

type assignmentManager interface {
	List(ctx context.Context, actor service.Actor, filter models.AssignmentFilter) ([]models.Assignment, error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.Assignment, error)
	Create(ctx context.Context, actor service.Actor, req dto.CreateAssignmentRequest) (*models.Assignment, error)
	Update(ctx context.Context, actor service.Actor, id string, req dto.UpdateAssignmentRequest) (*models.Assignment, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// AssignmentHandler exposes weighted assignment endpoints.
type AssignmentHandler struct {
	assignments assignmentManager
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(assignments assignmentManager) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// List godoc
// @Summary List assignments of an academic load
// @Tags Assignments
// @Produce json
// @Param academicLoadId query string true "Academic load ID"
// @Param lapseId query string false "Filter by lapse"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	filter := models.AssignmentFilter{
		AcademicLoadID: strings.TrimSpace(c.Query("academicLoadId")),
		LapseID:        strings.TrimSpace(c.Query("lapseId")),
	}
	if filter.AcademicLoadID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "academicLoadId is required"))
		return
	}
	items, err := h.assignments.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	item, err := h.assignments.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	item, err := h.assignments.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.UpdateAssignmentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [put]
func (h *AssignmentHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	item, err := h.assignments.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete assignment
// @Tags Assignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.assignments.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
