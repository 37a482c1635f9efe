package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-academic-api/internal/dto"
	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/internal/service"
	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
)

type gradeEntryStub struct {
	assignmentID string
	studentID    string
	bulk         dto.BulkGradeRequest
	err          error
}

func (s *gradeEntryStub) List(_ context.Context, _ service.Actor, assignmentID string) ([]models.Grade, error) {
	s.assignmentID = assignmentID
	return []models.Grade{{AssignmentID: assignmentID, StudentID: "stu-1", Score: 15}}, s.err
}

func (s *gradeEntryStub) Upsert(_ context.Context, _ service.Actor, assignmentID, studentID string, req dto.UpsertGradeRequest) (*models.Grade, error) {
	s.assignmentID = assignmentID
	s.studentID = studentID
	if s.err != nil {
		return nil, s.err
	}
	return &models.Grade{AssignmentID: assignmentID, StudentID: studentID, Score: req.Score}, nil
}

func (s *gradeEntryStub) BulkUpsert(_ context.Context, _ service.Actor, assignmentID string, req dto.BulkGradeRequest) ([]models.Grade, error) {
	s.assignmentID = assignmentID
	s.bulk = req
	return make([]models.Grade, len(req.Grades)), s.err
}

func TestGradeHandlerUpsert(t *testing.T) {
	stub := &gradeEntryStub{}
	handler := NewGradeHandler(stub)

	c, w := newGinContext(http.MethodPut, "/assignments/asg-1/grades/stu-1", mustJSON(t, dto.UpsertGradeRequest{Score: 17}))
	c.Params = gin.Params{{Key: "id", Value: "asg-1"}, {Key: "studentId", Value: "stu-1"}}
	asUser(c, "user-teacher-1", models.RoleTeacher)
	handler.Upsert(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "asg-1", stub.assignmentID)
	assert.Equal(t, "stu-1", stub.studentID)
}

func TestGradeHandlerUpsertNotEnrolled(t *testing.T) {
	handler := NewGradeHandler(&gradeEntryStub{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "student is not enrolled")})

	c, w := newGinContext(http.MethodPut, "/assignments/asg-1/grades/stu-9", mustJSON(t, dto.UpsertGradeRequest{Score: 12}))
	c.Params = gin.Params{{Key: "id", Value: "asg-1"}, {Key: "studentId", Value: "stu-9"}}
	asUser(c, "user-teacher-1", models.RoleTeacher)
	handler.Upsert(c)

	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestGradeHandlerBulkAndList(t *testing.T) {
	stub := &gradeEntryStub{}
	handler := NewGradeHandler(stub)

	payload := mustJSON(t, dto.BulkGradeRequest{Grades: []dto.BulkGradeItem{{StudentID: "stu-1", Score: 10}, {StudentID: "stu-2", Score: 18}}})
	c, w := newGinContext(http.MethodPost, "/assignments/asg-1/grades", payload)
	c.Params = gin.Params{{Key: "id", Value: "asg-1"}}
	asUser(c, "admin-1", models.RoleAdmin)
	handler.Bulk(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, stub.bulk.Grades, 2)

	c, w = newGinContext(http.MethodGet, "/assignments/asg-1/grades", nil)
	c.Params = gin.Params{{Key: "id", Value: "asg-1"}}
	asUser(c, "admin-1", models.RoleAdmin)
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"student_id":"stu-1"`)
}
