package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-academic-api/internal/dto"
	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/internal/repository"
	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter repository.EnrollmentFilter) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type periodReader interface {
	FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error)
}

type sectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

// EnrollmentService places students in study years, resolving the year through progression when omitted.
type EnrollmentService struct {
	repo        enrollmentRepository
	students    studentReader
	periods     periodReader
	years       studyYearFinder
	sections    sectionReader
	progression progressionEvaluator
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// EnrollmentDeps groups the collaborators of EnrollmentService.
type EnrollmentDeps struct {
	Repo        enrollmentRepository
	Students    studentReader
	Periods     periodReader
	Years       studyYearFinder
	Sections    sectionReader
	Progression progressionEvaluator
	Cache       *CacheService
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(deps EnrollmentDeps) *EnrollmentService {
	validate := deps.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:        deps.Repo,
		students:    deps.Students,
		periods:     deps.Periods,
		years:       deps.Years,
		sections:    deps.Sections,
		progression: deps.Progression,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		validator:   validate,
		logger:      logger,
	}
}

// List returns enrollments matching the filter.
func (s *EnrollmentService) List(ctx context.Context, filter repository.EnrollmentFilter) ([]models.Enrollment, error) {
	enrollments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Enroll registers a student in an academic period.
func (s *EnrollmentService) Enroll(ctx context.Context, req dto.EnrollStudentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student is inactive")
	}
	period, err := s.periods.FindByID(ctx, req.AcademicPeriodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic period")
	}

	year, err := s.studyYearFor(ctx, student.ID, req.StudyYearID)
	if err != nil {
		return nil, err
	}

	if req.SectionID != nil {
		section, err := s.sections.FindByID(ctx, *req.SectionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
		}
		if section.StudyYearID != year.ID || section.AcademicPeriodID != period.ID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "section does not belong to the study year and academic period")
		}
	}

	enrollment := &models.Enrollment{
		StudentID:        student.ID,
		StudyYearID:      year.ID,
		AcademicPeriodID: period.ID,
		SectionID:        req.SectionID,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicateEnrollment) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in the academic period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	if err := s.cache.InvalidateStudent(ctx, student.ID); err != nil {
		s.logger.Warn("failed to invalidate student cache", zap.String("student_id", student.ID), zap.Error(err))
	}

	s.logger.Info("student enrolled",
		zap.String("student_id", student.ID),
		zap.String("study_year_id", year.ID),
		zap.String("academic_period_id", period.ID),
	)
	return enrollment, nil
}

func (s *EnrollmentService) studyYearFor(ctx context.Context, studentID, requested string) (*models.StudyYear, error) {
	if requested != "" {
		year, err := s.years.FindByID(ctx, requested)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "study year not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study year")
		}
		return year, nil
	}

	decision, err := s.progression.Evaluate(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve study year")
	}
	s.metrics.RecordProgression(decision.Reason)
	if decision.StudyYear == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no study year available for the student")
	}
	return decision.StudyYear, nil
}
