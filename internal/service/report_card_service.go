package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-academic-api/internal/models"
	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
)

type courseScorer interface {
	LapseScore(ctx context.Context, studentID, courseID, periodID, lapseID string) (float64, error)
	CourseBreakdown(ctx context.Context, studentID, courseID, periodID string) (*models.CourseScore, error)
}

type courseCatalog interface {
	ListCoursesByStudyYear(ctx context.Context, studyYearID string) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type studyYearFinder interface {
	FindByID(ctx context.Context, id string) (*models.StudyYear, error)
}

type progressionEvaluator interface {
	Evaluate(ctx context.Context, studentID string) (*models.ProgressionDecision, error)
}

// ReportCardService exposes computed scores, report cards and progression previews to callers.
type ReportCardService struct {
	scorer      courseScorer
	courses     courseCatalog
	enrollments periodEnrollmentFinder
	years       studyYearFinder
	lapses      lapseFinder
	progression progressionEvaluator
	access      *AccessPolicy
	cache       *CacheService
	metrics     *MetricsService
	ttl         time.Duration
	logger      *zap.Logger
}

// ReportCardDeps groups the collaborators of ReportCardService.
type ReportCardDeps struct {
	Scorer      courseScorer
	Courses     courseCatalog
	Enrollments periodEnrollmentFinder
	Years       studyYearFinder
	Lapses      lapseFinder
	Progression progressionEvaluator
	Access      *AccessPolicy
	Cache       *CacheService
	Metrics     *MetricsService
	CacheTTL    time.Duration
	Logger      *zap.Logger
}

// NewReportCardService constructs ReportCardService.
func NewReportCardService(deps ReportCardDeps) *ReportCardService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCardService{
		scorer:      deps.Scorer,
		courses:     deps.Courses,
		enrollments: deps.Enrollments,
		years:       deps.Years,
		lapses:      deps.Lapses,
		progression: deps.Progression,
		access:      deps.Access,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		ttl:         deps.CacheTTL,
		logger:      logger,
	}
}

// LapseScore returns the student's score for one lapse of a course.
func (s *ReportCardService) LapseScore(ctx context.Context, actor Actor, studentID, courseID, periodID, lapseID string) (*models.LapseResult, error) {
	if courseID == "" || periodID == "" || lapseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseId, periodId and lapseId are required")
	}
	if err := s.access.CanViewStudent(ctx, actor, studentID); err != nil {
		return nil, err
	}
	lapse, err := s.lapses.FindByID(ctx, lapseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lapse not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lapse")
	}
	score, err := s.scorer.LapseScore(ctx, studentID, courseID, periodID, lapseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute lapse score")
	}
	return &models.LapseResult{LapseID: lapse.ID, LapseName: lapse.Name, Score: score}, nil
}

// CourseFinal returns the lapse breakdown, final score and approval of one course.
func (s *ReportCardService) CourseFinal(ctx context.Context, actor Actor, studentID, courseID, periodID string) (*models.CourseScore, error) {
	if courseID == "" || periodID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseId and periodId are required")
	}
	if err := s.access.CanViewStudent(ctx, actor, studentID); err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	result, err := s.scorer.CourseBreakdown(ctx, studentID, courseID, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute final score")
	}
	result.CourseName = course.Name
	s.metrics.RecordFinalScore(result.Approved)
	return result, nil
}

// ReportCard returns the student's report card for a period. The bool reports a cache hit.
func (s *ReportCardService) ReportCard(ctx context.Context, actor Actor, studentID, periodID string) (*models.ReportCard, bool, error) {
	if periodID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "periodId is required")
	}
	if err := s.access.CanViewStudent(ctx, actor, studentID); err != nil {
		return nil, false, err
	}

	key := ReportCardCacheKey(studentID, periodID)
	var cached models.ReportCard
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	card, err := s.BuildReportCard(ctx, studentID, periodID)
	if err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, key, card, s.ttl)
	return card, false, nil
}

// BuildReportCard computes a report card without access checks or caching.
func (s *ReportCardService) BuildReportCard(ctx context.Context, studentID, periodID string) (*models.ReportCard, error) {
	enrollment, err := s.enrollments.FindByStudentAndPeriod(ctx, studentID, periodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in the academic period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	year, err := s.years.FindByID(ctx, enrollment.StudyYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study year")
	}
	courses, err := s.courses.ListCoursesByStudyYear(ctx, enrollment.StudyYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	card := &models.ReportCard{
		StudentID: studentID,
		PeriodID:  periodID,
		StudyYear: *year,
		Courses:   make([]models.CourseScore, 0, len(courses)),
		Approved:  true,
	}
	for _, course := range courses {
		result, err := s.scorer.CourseBreakdown(ctx, studentID, course.ID, periodID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute final score")
		}
		result.CourseName = course.Name
		card.Courses = append(card.Courses, *result)
		card.Approved = card.Approved && result.Approved
		s.metrics.RecordFinalScore(result.Approved)
	}
	return card, nil
}

// Progression previews the study year the student would be enrolled in next. The bool reports a cache hit.
func (s *ReportCardService) Progression(ctx context.Context, actor Actor, studentID string) (*models.ProgressionDecision, bool, error) {
	if err := s.access.CanViewStudent(ctx, actor, studentID); err != nil {
		return nil, false, err
	}

	key := ProgressionCacheKey(studentID)
	var cached models.ProgressionDecision
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	decision, err := s.progression.Evaluate(ctx, studentID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate progression")
	}
	s.metrics.RecordProgression(decision.Reason)
	s.logger.Debug("progression evaluated",
		zap.String("student_id", studentID),
		zap.String("reason", string(decision.Reason)),
	)
	// Closing a period writes nothing that invalidates the student, so this answer is not kept.
	if decision.Reason != models.ProgressionNoClosedPeriod {
		_ = s.cache.Set(ctx, key, decision, s.ttl)
	}
	return decision, false, nil
}
