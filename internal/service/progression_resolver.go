package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/noah-isme/school-academic-api/internal/models"
)

type studyYearLister interface {
	ListStudyYears(ctx context.Context) ([]models.StudyYear, error)
}

type courseLister interface {
	ListCoursesByStudyYear(ctx context.Context, studyYearID string) ([]models.Course, error)
}

type studentEnrollmentLister interface {
	ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]models.StudentEnrollment, error)
}

type closedPeriodFinder interface {
	FindClosedPeriod(ctx context.Context, reference time.Time) (*models.AcademicPeriod, error)
}

type courseFinalScorer interface {
	CourseFinalScore(ctx context.Context, studentID, courseID, periodID string) (int, error)
}

// ProgressionOptions tunes ProgressionResolver.
type ProgressionOptions struct {
	// StrictNextYear sends approved students to the first study year with a strictly greater ordinal.
	StrictNextYear bool
	// Now supplies the reference date for the closed period lookup. Defaults to time.Now.
	Now func() time.Time
}

// ProgressionResolver decides the study year a student enters in a new academic period.
type ProgressionResolver struct {
	years       studyYearLister
	courses     courseLister
	enrollments studentEnrollmentLister
	periods     closedPeriodFinder
	scorer      courseFinalScorer
	strict      bool
	now         func() time.Time
}

// NewProgressionResolver constructs a ProgressionResolver.
func NewProgressionResolver(years studyYearLister, courses courseLister, enrollments studentEnrollmentLister, periods closedPeriodFinder, scorer courseFinalScorer, opts ProgressionOptions) *ProgressionResolver {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ProgressionResolver{
		years:       years,
		courses:     courses,
		enrollments: enrollments,
		periods:     periods,
		scorer:      scorer,
		strict:      opts.StrictNextYear,
		now:         now,
	}
}

// Resolve returns the study year for the student's next enrollment, or nil when no study years exist.
func (r *ProgressionResolver) Resolve(ctx context.Context, studentID string) (*models.StudyYear, error) {
	decision, err := r.Evaluate(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return decision.StudyYear, nil
}

// Evaluate runs the progression rules and returns the full decision trace.
func (r *ProgressionResolver) Evaluate(ctx context.Context, studentID string) (*models.ProgressionDecision, error) {
	years, err := r.years.ListStudyYears(ctx)
	if err != nil {
		return nil, err
	}
	years = sortedYears(years)

	decision := &models.ProgressionDecision{StudentID: studentID}

	enrollments, err := r.enrollments.ListEnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		decision.Reason = models.ProgressionNoEnrollments
		decision.StudyYear = firstYear(years)
		return decision, nil
	}

	if _, err := r.periods.FindClosedPeriod(ctx, r.now()); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		decision.Reason = models.ProgressionNoClosedPeriod
		decision.StudyYear = firstYear(years)
		return decision, nil
	}

	reference := referenceEnrollment(enrollments)
	decision.Reference = &reference

	courses, err := r.courses.ListCoursesByStudyYear(ctx, reference.StudyYearID)
	if err != nil {
		return nil, err
	}

	approved := true
	decision.Courses = make([]models.CourseOutcome, 0, len(courses))
	for _, course := range courses {
		final, err := r.scorer.CourseFinalScore(ctx, studentID, course.ID, reference.AcademicPeriodID)
		if err != nil {
			return nil, err
		}
		ok := IsApproved(final)
		approved = approved && ok
		decision.Courses = append(decision.Courses, models.CourseOutcome{
			CourseID:   course.ID,
			CourseName: course.Name,
			FinalScore: final,
			Approved:   ok,
		})
	}
	decision.Approved = approved

	if len(years) == 0 {
		decision.Reason = reasonFor(approved)
		return decision, nil
	}

	if !approved {
		decision.Reason = models.ProgressionNotApproved
		decision.StudyYear = sameYear(years, reference)
		return decision, nil
	}

	decision.Reason = models.ProgressionApproved
	decision.StudyYear = r.nextYear(years, reference.StudyYearOrdinal)
	return decision, nil
}

// nextYear returns the first year whose ordinal is >= the reference, or > in strict mode.
func (r *ProgressionResolver) nextYear(years []models.StudyYear, ordinal int) *models.StudyYear {
	for i := range years {
		if years[i].Year > ordinal || (!r.strict && years[i].Year == ordinal) {
			year := years[i]
			return &year
		}
	}
	return nil
}

// referenceEnrollment picks the enrollment with the lowest study year ordinal; ties keep the first.
func referenceEnrollment(enrollments []models.StudentEnrollment) models.StudentEnrollment {
	ref := enrollments[0]
	for _, e := range enrollments[1:] {
		if e.StudyYearOrdinal < ref.StudyYearOrdinal {
			ref = e
		}
	}
	return ref
}

func sameYear(years []models.StudyYear, reference models.StudentEnrollment) *models.StudyYear {
	for i := range years {
		if years[i].ID == reference.StudyYearID {
			year := years[i]
			return &year
		}
	}
	return &models.StudyYear{ID: reference.StudyYearID, Year: reference.StudyYearOrdinal}
}

func firstYear(years []models.StudyYear) *models.StudyYear {
	if len(years) == 0 {
		return nil
	}
	year := years[0]
	return &year
}

func sortedYears(years []models.StudyYear) []models.StudyYear {
	sorted := make([]models.StudyYear, len(years))
	copy(sorted, years)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })
	return sorted
}

func reasonFor(approved bool) models.ProgressionReason {
	if approved {
		return models.ProgressionApproved
	}
	return models.ProgressionNotApproved
}
