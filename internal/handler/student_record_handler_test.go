package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-academic-api/internal/middleware"
	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/internal/service"
	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
)

type studentRecordsStub struct {
	cacheHit  bool
	err       error
	lapseArgs []string
}

func (s *studentRecordsStub) LapseScore(_ context.Context, _ service.Actor, studentID, courseID, periodID, lapseID string) (*models.LapseResult, error) {
	s.lapseArgs = []string{studentID, courseID, periodID, lapseID}
	if s.err != nil {
		return nil, s.err
	}
	return &models.LapseResult{LapseID: lapseID, Score: 14.5}, nil
}

func (s *studentRecordsStub) CourseFinal(_ context.Context, _ service.Actor, studentID, courseID, periodID string) (*models.CourseScore, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.CourseScore{StudentID: studentID, CourseID: courseID, PeriodID: periodID, FinalScore: 15, Approved: true}, nil
}

func (s *studentRecordsStub) ReportCard(_ context.Context, _ service.Actor, studentID, periodID string) (*models.ReportCard, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	return &models.ReportCard{StudentID: studentID, PeriodID: periodID, Approved: true}, s.cacheHit, nil
}

func (s *studentRecordsStub) Progression(_ context.Context, _ service.Actor, studentID string) (*models.ProgressionDecision, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	return &models.ProgressionDecision{StudentID: studentID, Reason: models.ProgressionNoEnrollments}, s.cacheHit, nil
}

func TestStudentRecordHandlerLapseScoreRequiresQuery(t *testing.T) {
	handler := NewStudentRecordHandler(&studentRecordsStub{})

	c, w := newGinContext(http.MethodGet, "/students/stu-1/scores?courseId=math-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	asUser(c, "admin-1", models.RoleAdmin)
	handler.LapseScore(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudentRecordHandlerLapseScore(t *testing.T) {
	stub := &studentRecordsStub{}
	handler := NewStudentRecordHandler(stub)

	c, w := newGinContext(http.MethodGet, "/students/stu-1/scores?courseId=math-1&periodId=p1&lapseId=l1", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	asUser(c, "admin-1", models.RoleAdmin)
	handler.LapseScore(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"stu-1", "math-1", "p1", "l1"}, stub.lapseArgs)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"score":14.5`)
}

func TestStudentRecordHandlerCourseFinal(t *testing.T) {
	handler := NewStudentRecordHandler(&studentRecordsStub{})

	c, w := newGinContext(http.MethodGet, "/students/stu-1/courses/math-1/final?periodId=p1", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}, {Key: "courseId", Value: "math-1"}}
	asUser(c, "user-stu-1", models.RoleStudent)
	handler.CourseFinal(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"approved":true`)
}

func TestStudentRecordHandlerReportCardCacheHeader(t *testing.T) {
	handler := NewStudentRecordHandler(&studentRecordsStub{cacheHit: true})

	c, w := newGinContext(http.MethodGet, "/students/stu-1/report-card?periodId=p1", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	asUser(c, "admin-1", models.RoleAdmin)
	handler.ReportCard(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get(middleware.CacheHeader))
	assert.Equal(t, true, decodeEnvelope(t, w).Meta["cache_hit"])
}

func TestStudentRecordHandlerProgressionForbidden(t *testing.T) {
	handler := NewStudentRecordHandler(&studentRecordsStub{err: appErrors.ErrForbidden})

	c, w := newGinContext(http.MethodGet, "/students/stu-2/progression", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-2"}}
	asUser(c, "user-stu-1", models.RoleStudent)
	handler.Progression(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStudentRecordHandlerProgressionMiss(t *testing.T) {
	handler := NewStudentRecordHandler(&studentRecordsStub{})

	c, w := newGinContext(http.MethodGet, "/students/stu-1/progression", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	asUser(c, "admin-1", models.RoleAdmin)
	handler.Progression(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get(middleware.CacheHeader))
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"reason":"NO_ENROLLMENTS"`)
}
