package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/noah-isme/school-academic-api/internal/models"
)

// gradeStore is an in-memory implementation of the grading query interfaces.
type gradeStore struct {
	lapses      []models.Lapse
	years       []models.StudyYear
	courses     map[string][]models.Course
	enrollments map[string][]models.StudentEnrollment
	closed      *models.AcademicPeriod
	// scores is keyed by student|course|period|lapse.
	scores map[string][]models.WeightedScore

	err       error
	gradeErr  error
	gradeHits int
}

func newGradeStore() *gradeStore {
	return &gradeStore{
		courses:     map[string][]models.Course{},
		enrollments: map[string][]models.StudentEnrollment{},
		scores:      map[string][]models.WeightedScore{},
	}
}

func scoreKey(studentID, courseID, periodID, lapseID string) string {
	return studentID + "|" + courseID + "|" + periodID + "|" + lapseID
}

func (s *gradeStore) addScore(studentID, courseID, periodID, lapseID string, score, weight float64) {
	key := scoreKey(studentID, courseID, periodID, lapseID)
	s.scores[key] = append(s.scores[key], models.WeightedScore{Score: score, Weight: weight})
}

func (s *gradeStore) FindLapseGrades(ctx context.Context, studentID, courseID, periodID, lapseID string) ([]models.WeightedScore, error) {
	s.gradeHits++
	if s.gradeErr != nil {
		return nil, s.gradeErr
	}
	return s.scores[scoreKey(studentID, courseID, periodID, lapseID)], nil
}

func (s *gradeStore) ListLapses(ctx context.Context) ([]models.Lapse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.lapses, nil
}

func (s *gradeStore) ListStudyYears(ctx context.Context) ([]models.StudyYear, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.years, nil
}

func (s *gradeStore) ListCoursesByStudyYear(ctx context.Context, studyYearID string) ([]models.Course, error) {
	return s.courses[studyYearID], nil
}

func (s *gradeStore) ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]models.StudentEnrollment, error) {
	return s.enrollments[studentID], nil
}

func (s *gradeStore) FindClosedPeriod(ctx context.Context, reference time.Time) (*models.AcademicPeriod, error) {
	if s.closed == nil {
		return nil, sql.ErrNoRows
	}
	return s.closed, nil
}

func threeLapses() []models.Lapse {
	return []models.Lapse{
		{ID: "l1", Name: "First", DisplayOrder: 1},
		{ID: "l2", Name: "Second", DisplayOrder: 2},
		{ID: "l3", Name: "Third", DisplayOrder: 3},
	}
}

func fiveYears() []models.StudyYear {
	return []models.StudyYear{
		{ID: "y1", Name: "1st year", Year: 1},
		{ID: "y2", Name: "2nd year", Year: 2},
		{ID: "y3", Name: "3rd year", Year: 3},
		{ID: "y4", Name: "4th year", Year: 4},
		{ID: "y5", Name: "5th year", Year: 5},
	}
}
