package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-academic-api/internal/models"
)

func TestAssignmentGrade(t *testing.T) {
	assert.Equal(t, 20.0, AssignmentGrade(20, 20))
	assert.Equal(t, 5.0, AssignmentGrade(10, 10))
	assert.InDelta(t, 0.05, AssignmentGrade(1, 1), 1e-12)

	for weight := 1.0; weight <= 100; weight++ {
		for score := 1.0; score < 20; score++ {
			assert.Less(t, AssignmentGrade(score, weight), AssignmentGrade(score+1, weight))
			if weight < 100 {
				assert.Less(t, AssignmentGrade(score, weight), AssignmentGrade(score, weight+1))
			}
		}
	}
}

func TestLapseScoreOf(t *testing.T) {
	assert.Equal(t, 0.0, LapseScoreOf(nil))
	assert.Equal(t, 20.0, LapseScoreOf([]models.WeightedScore{{Score: 20, Weight: 100}}))
	// 15*30/20 + 10*70/20 = 22.5 + 35 = 57.5 -> 11.5
	assert.InDelta(t, 11.5, LapseScoreOf([]models.WeightedScore{{Score: 15, Weight: 30}, {Score: 10, Weight: 70}}), 1e-9)
	// weights below 100 cap the reachable score
	assert.InDelta(t, 10.0, LapseScoreOf([]models.WeightedScore{{Score: 20, Weight: 50}}), 1e-9)
}

func TestRoundHalfUp(t *testing.T) {
	cases := map[float64]int{
		0:        0,
		6.6667:   7,
		9.5:      10,
		9.49:     9,
		10.5:     11,
		11.4999:  11,
		20:       20,
		-0.4:     0,
		57.5 / 5: 12,
	}
	for in, want := range cases {
		assert.Equal(t, want, RoundHalfUp(in), "round(%v)", in)
	}
}

func TestAverageLapseScores(t *testing.T) {
	assert.Equal(t, 0, AverageLapseScores(nil))
	assert.Equal(t, 7, AverageLapseScores([]float64{20, 0, 0}))
	assert.Equal(t, 10, AverageLapseScores([]float64{9.5, 9.5, 9.5}))
}

func TestIsApproved(t *testing.T) {
	assert.True(t, IsApproved(10))
	assert.True(t, IsApproved(20))
	assert.False(t, IsApproved(9))
	assert.False(t, IsApproved(0))
}

func TestGradeAggregatorLapseScore(t *testing.T) {
	store := newGradeStore()
	store.addScore("s1", "math", "p1", "l1", 20, 100)
	agg := NewGradeAggregator(store, store)

	score, err := agg.LapseScore(context.Background(), "s1", "math", "p1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 20.0, score)

	score, err = agg.LapseScore(context.Background(), "s1", "math", "p1", "l2")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestGradeAggregatorCourseFinalScoreAveragesEveryLapse(t *testing.T) {
	store := newGradeStore()
	store.lapses = threeLapses()
	store.addScore("s1", "math", "p1", "l1", 20, 100)
	agg := NewGradeAggregator(store, store)

	final, err := agg.CourseFinalScore(context.Background(), "s1", "math", "p1")
	require.NoError(t, err)
	assert.Equal(t, 7, final)

	again, err := agg.CourseFinalScore(context.Background(), "s1", "math", "p1")
	require.NoError(t, err)
	assert.Equal(t, final, again)
}

func TestGradeAggregatorNoLapses(t *testing.T) {
	store := newGradeStore()
	store.addScore("s1", "math", "p1", "l1", 20, 100)
	agg := NewGradeAggregator(store, store)

	final, err := agg.CourseFinalScore(context.Background(), "s1", "math", "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, final)
	assert.Zero(t, store.gradeHits)
}

func TestGradeAggregatorCourseBreakdown(t *testing.T) {
	store := newGradeStore()
	store.lapses = threeLapses()
	store.addScore("s1", "math", "p1", "l1", 12, 40)
	store.addScore("s1", "math", "p1", "l1", 14, 60)
	store.addScore("s1", "math", "p1", "l2", 10, 100)
	store.addScore("s1", "math", "p1", "l3", 11, 100)
	agg := NewGradeAggregator(store, store)

	breakdown, err := agg.CourseBreakdown(context.Background(), "s1", "math", "p1")
	require.NoError(t, err)
	require.Len(t, breakdown.Lapses, 3)
	assert.Equal(t, "First", breakdown.Lapses[0].LapseName)
	assert.InDelta(t, 13.2, breakdown.Lapses[0].Score, 1e-9)
	assert.InDelta(t, 10.0, breakdown.Lapses[1].Score, 1e-9)
	assert.InDelta(t, 11.0, breakdown.Lapses[2].Score, 1e-9)
	assert.Equal(t, 11, breakdown.FinalScore)
	assert.True(t, breakdown.Approved)
}

func TestGradeAggregatorPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")

	store := newGradeStore()
	store.err = boom
	_, err := NewGradeAggregator(store, store).CourseFinalScore(context.Background(), "s1", "math", "p1")
	assert.Same(t, boom, err)

	store = newGradeStore()
	store.lapses = threeLapses()
	store.gradeErr = boom
	_, err = NewGradeAggregator(store, store).LapseScore(context.Background(), "s1", "math", "p1", "l1")
	assert.Same(t, boom, err)
	_, err = NewGradeAggregator(store, store).CourseFinalScore(context.Background(), "s1", "math", "p1")
	assert.Same(t, boom, err)
}
