package service

import (
	"context"
	"math"

	"github.com/noah-isme/school-academic-api/internal/models"
)

type lapseGradeReader interface {
	FindLapseGrades(ctx context.Context, studentID, courseID, periodID, lapseID string) ([]models.WeightedScore, error)
}

type lapseLister interface {
	ListLapses(ctx context.Context) ([]models.Lapse, error)
}

// roundingSlack absorbs float drift in weighted sums so x.5 always rounds up.
const roundingSlack = 1e-9

// AssignmentGrade converts a score into its weighted contribution: score*weight/20.
func AssignmentGrade(score, weight float64) float64 {
	return score * weight / models.MaxScore
}

// LapseScoreOf sums the weighted contributions and rescales them to the 20 point scale.
// An empty slice yields 0.
func LapseScoreOf(scores []models.WeightedScore) float64 {
	var sum float64
	for _, s := range scores {
		sum += AssignmentGrade(s.Score, s.Weight)
	}
	return sum * models.MaxScore / models.MaxWeight
}

// RoundHalfUp rounds to the nearest integer with halves going up.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5 + roundingSlack))
}

// AverageLapseScores returns the rounded arithmetic mean, or 0 for no lapses.
func AverageLapseScores(scores []float64) int {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return RoundHalfUp(sum / float64(len(scores)))
}

// IsApproved reports whether a final score reaches the approval threshold.
func IsApproved(finalScore int) bool {
	return finalScore >= models.ApprovalThreshold
}

// GradeAggregator computes lapse and course scores from stored grades.
// It performs no validation and no writes; store errors are returned as-is.
type GradeAggregator struct {
	grades lapseGradeReader
	lapses lapseLister
}

// NewGradeAggregator constructs a GradeAggregator.
func NewGradeAggregator(grades lapseGradeReader, lapses lapseLister) *GradeAggregator {
	return &GradeAggregator{grades: grades, lapses: lapses}
}

// LapseScore returns the student's score for one lapse of a course in a period.
func (a *GradeAggregator) LapseScore(ctx context.Context, studentID, courseID, periodID, lapseID string) (float64, error) {
	scores, err := a.grades.FindLapseGrades(ctx, studentID, courseID, periodID, lapseID)
	if err != nil {
		return 0, err
	}
	return LapseScoreOf(scores), nil
}

// CourseFinalScore averages the lapse scores of every known lapse, including lapses without grades.
func (a *GradeAggregator) CourseFinalScore(ctx context.Context, studentID, courseID, periodID string) (int, error) {
	breakdown, err := a.CourseBreakdown(ctx, studentID, courseID, periodID)
	if err != nil {
		return 0, err
	}
	return breakdown.FinalScore, nil
}

// CourseBreakdown returns every lapse score together with the final score and approval.
func (a *GradeAggregator) CourseBreakdown(ctx context.Context, studentID, courseID, periodID string) (*models.CourseScore, error) {
	lapses, err := a.lapses.ListLapses(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.CourseScore{
		StudentID: studentID,
		CourseID:  courseID,
		PeriodID:  periodID,
		Lapses:    make([]models.LapseResult, 0, len(lapses)),
	}
	scores := make([]float64, 0, len(lapses))
	for _, lapse := range lapses {
		score, err := a.LapseScore(ctx, studentID, courseID, periodID, lapse.ID)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
		result.Lapses = append(result.Lapses, models.LapseResult{LapseID: lapse.ID, LapseName: lapse.Name, Score: score})
	}

	result.FinalScore = AverageLapseScores(scores)
	result.Approved = IsApproved(result.FinalScore)
	return result, nil
}
