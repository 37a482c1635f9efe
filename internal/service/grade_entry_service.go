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
	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
)

type assignmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
}

type periodEnrollmentFinder interface {
	FindByStudentAndPeriod(ctx context.Context, studentID, periodID string) (*models.Enrollment, error)
}

type gradeWriter interface {
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Grade, error)
	Upsert(ctx context.Context, grade *models.Grade) error
	BulkUpsert(ctx context.Context, grades []models.Grade) error
}

// GradeEntryService records assignment scores on the 1..20 scale.
type GradeEntryService struct {
	assignments assignmentFinder
	loads       academicLoadFinder
	enrollments periodEnrollmentFinder
	grades      gradeWriter
	access      *AccessPolicy
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeEntryService constructs GradeEntryService.
func NewGradeEntryService(assignments assignmentFinder, loads academicLoadFinder, enrollments periodEnrollmentFinder, grades gradeWriter, access *AccessPolicy, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GradeEntryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeEntryService{
		assignments: assignments,
		loads:       loads,
		enrollments: enrollments,
		grades:      grades,
		access:      access,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// List returns every grade recorded for the assignment.
func (s *GradeEntryService) List(ctx context.Context, actor Actor, assignmentID string) ([]models.Grade, error) {
	if _, err := s.scope(ctx, actor, assignmentID); err != nil {
		return nil, err
	}
	grades, err := s.grades.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// Upsert records or replaces one student's score on an assignment.
func (s *GradeEntryService) Upsert(ctx context.Context, actor Actor, assignmentID, studentID string, req dto.UpsertGradeRequest) (*models.Grade, error) {
	if err := checkScore(req.Score); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	load, err := s.scope(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEnrolled(ctx, studentID, load.AcademicPeriodID); err != nil {
		return nil, err
	}

	grade := &models.Grade{StudentID: studentID, AssignmentID: assignmentID, Score: req.Score, Note: req.Note}
	if err := s.grades.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert grade")
	}
	s.invalidate(ctx, studentID)
	return grade, nil
}

// BulkUpsert records the scores of many students on one assignment atomically.
func (s *GradeEntryService) BulkUpsert(ctx context.Context, actor Actor, assignmentID string, req dto.BulkGradeRequest) ([]models.Grade, error) {
	for _, item := range req.Grades {
		if err := checkScore(item.Score); err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidScore, fmt.Sprintf("score for student %s must be between %d and %d", item.StudentID, models.MinScore, models.MaxScore))
		}
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk grade payload")
	}
	load, err := s.scope(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(req.Grades))
	grades := make([]models.Grade, 0, len(req.Grades))
	for _, item := range req.Grades {
		if _, dup := seen[item.StudentID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s listed more than once", item.StudentID))
		}
		seen[item.StudentID] = struct{}{}
		if err := s.ensureEnrolled(ctx, item.StudentID, load.AcademicPeriodID); err != nil {
			return nil, err
		}
		grades = append(grades, models.Grade{StudentID: item.StudentID, AssignmentID: assignmentID, Score: item.Score, Note: item.Note})
	}

	if err := s.grades.BulkUpsert(ctx, grades); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk upsert grades")
	}
	for _, grade := range grades {
		s.invalidate(ctx, grade.StudentID)
	}
	s.logger.Info("grades recorded", zap.String("assignment_id", assignmentID), zap.Int("count", len(grades)))
	return grades, nil
}

func (s *GradeEntryService) scope(ctx context.Context, actor Actor, assignmentID string) (*models.AcademicLoad, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	load, err := s.loads.FindByID(ctx, assignment.AcademicLoadID)
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

func (s *GradeEntryService) ensureEnrolled(ctx context.Context, studentID, periodID string) error {
	if _, err := s.enrollments.FindByStudentAndPeriod(ctx, studentID, periodID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("student %s is not enrolled in the academic period", studentID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	return nil
}

func (s *GradeEntryService) invalidate(ctx context.Context, studentID string) {
	if err := s.cache.InvalidateStudent(ctx, studentID); err != nil {
		s.logger.Warn("failed to invalidate student cache", zap.String("student_id", studentID), zap.Error(err))
	}
}

func checkScore(score float64) error {
	if score < models.MinScore || score > models.MaxScore {
		return appErrors.Clone(appErrors.ErrInvalidScore, fmt.Sprintf("score must be between %d and %d", models.MinScore, models.MaxScore))
	}
	return nil
}
