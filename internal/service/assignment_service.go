package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-academic-api/internal/dto"
	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/internal/repository"
	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
)

type assignmentStore interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	CreateWithinCap(ctx context.Context, assignment *models.Assignment, limit int) error
	UpdateWithinCap(ctx context.Context, assignment *models.Assignment, limit int) error
	Delete(ctx context.Context, id string) error
}

type academicLoadFinder interface {
	FindByID(ctx context.Context, id string) (*models.AcademicLoad, error)
}

type lapseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Lapse, error)
}

type assignmentGradeLister interface {
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Grade, error)
}

// AssignmentService manages gradable work and keeps lapse weights within bounds.
type AssignmentService struct {
	assignments assignmentStore
	loads       academicLoadFinder
	lapses      lapseFinder
	grades      assignmentGradeLister
	access      *AccessPolicy
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(assignments assignmentStore, loads academicLoadFinder, lapses lapseFinder, grades assignmentGradeLister, access *AccessPolicy, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		assignments: assignments,
		loads:       loads,
		lapses:      lapses,
		grades:      grades,
		access:      access,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// List returns the assignments of an academic load, optionally narrowed to one lapse.
func (s *AssignmentService) List(ctx context.Context, actor Actor, filter models.AssignmentFilter) ([]models.Assignment, error) {
	if filter.AcademicLoadID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic_load_id is required")
	}
	if _, err := s.ownedLoad(ctx, actor, filter.AcademicLoadID); err != nil {
		return nil, err
	}
	items, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return items, nil
}

// Get returns a single assignment.
func (s *AssignmentService) Get(ctx context.Context, actor Actor, id string) (*models.Assignment, error) {
	assignment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedLoad(ctx, actor, assignment.AcademicLoadID); err != nil {
		return nil, err
	}
	return assignment, nil
}

// Create adds an assignment when the lapse still has room for its weight.
func (s *AssignmentService) Create(ctx context.Context, actor Actor, req dto.CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.ownedLoad(ctx, actor, req.AcademicLoadID); err != nil {
		return nil, err
	}
	if _, err := s.lapses.FindByID(ctx, req.LapseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lapse not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lapse")
	}

	assignment := &models.Assignment{
		AcademicLoadID: req.AcademicLoadID,
		LapseID:        req.LapseID,
		Description:    req.Description,
		Weight:         req.Weight,
	}
	if err := s.assignments.CreateWithinCap(ctx, assignment, models.MaxWeight); err != nil {
		if errors.Is(err, repository.ErrWeightCapExceeded) {
			return nil, weightCapError(err)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic load not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	s.logger.Info("assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("academic_load_id", assignment.AcademicLoadID),
		zap.Int("weight", assignment.Weight),
	)
	return assignment, nil
}

// Update changes description and weight. Cached results of graded students are dropped when the weight moves.
func (s *AssignmentService) Update(ctx context.Context, actor Actor, id string, req dto.UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	assignment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedLoad(ctx, actor, assignment.AcademicLoadID); err != nil {
		return nil, err
	}
	weightChanged := assignment.Weight != req.Weight
	assignment.Description = req.Description
	assignment.Weight = req.Weight
	if err := s.assignments.UpdateWithinCap(ctx, assignment, models.MaxWeight); err != nil {
		if errors.Is(err, repository.ErrWeightCapExceeded) {
			return nil, weightCapError(err)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	if weightChanged {
		s.invalidateGraded(ctx, assignment.ID)
	}
	return assignment, nil
}

// Delete removes the assignment together with its grades.
func (s *AssignmentService) Delete(ctx context.Context, actor Actor, id string) error {
	assignment, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.ownedLoad(ctx, actor, assignment.AcademicLoadID); err != nil {
		return err
	}
	// Collect graded students before the grades are gone.
	graded := s.gradedStudents(ctx, assignment.ID)
	if err := s.assignments.Delete(ctx, assignment.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	s.invalidateStudents(ctx, graded)
	return nil
}

func (s *AssignmentService) find(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

func (s *AssignmentService) ownedLoad(ctx context.Context, actor Actor, loadID string) (*models.AcademicLoad, error) {
	load, err := s.loads.FindByID(ctx, loadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic load not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic load")
	}
	if err := s.access.EnsureLoadOwner(ctx, actor, load); err != nil {
		return nil, err
	}
	return load, nil
}

func weightCapError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrInvalidWeights.Code, appErrors.ErrInvalidWeights.Status,
		fmt.Sprintf("weights of a lapse cannot exceed %d", models.MaxWeight))
}

func (s *AssignmentService) gradedStudents(ctx context.Context, assignmentID string) []string {
	grades, err := s.grades.ListByAssignment(ctx, assignmentID)
	if err != nil {
		s.logger.Warn("failed to list graded students", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil
	}
	ids := make([]string, 0, len(grades))
	for _, grade := range grades {
		ids = append(ids, grade.StudentID)
	}
	return ids
}

func (s *AssignmentService) invalidateGraded(ctx context.Context, assignmentID string) {
	s.invalidateStudents(ctx, s.gradedStudents(ctx, assignmentID))
}

func (s *AssignmentService) invalidateStudents(ctx context.Context, studentIDs []string) {
	for _, id := range studentIDs {
		if err := s.cache.InvalidateStudent(ctx, id); err != nil {
			s.logger.Warn("failed to invalidate student cache", zap.String("student_id", id), zap.Error(err))
		}
	}
}
