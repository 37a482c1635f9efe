package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-academic-api/internal/dto"
	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/internal/repository"
	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
)

type assignmentRepoStub struct {
	mu      sync.Mutex
	items   map[string]models.Assignment
	seq     int
	deleted []string
}

func newAssignmentRepoStub(items ...models.Assignment) *assignmentRepoStub {
	stub := &assignmentRepoStub{items: map[string]models.Assignment{}}
	for _, item := range items {
		stub.items[item.ID] = item
	}
	return stub
}

func (s *assignmentRepoStub) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	var result []models.Assignment
	for _, item := range s.items {
		if item.AcademicLoadID != filter.AcademicLoadID {
			continue
		}
		if filter.LapseID != "" && item.LapseID != filter.LapseID {
			continue
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *assignmentRepoStub) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (s *assignmentRepoStub) lapseWeight(academicLoadID, lapseID, excludeID string) int {
	total := 0
	for _, item := range s.items {
		if item.AcademicLoadID == academicLoadID && item.LapseID == lapseID && item.ID != excludeID {
			total += item.Weight
		}
	}
	return total
}

// CreateWithinCap checks and writes under one lock, like the row locks of the real repository.
func (s *assignmentRepoStub) CreateWithinCap(ctx context.Context, assignment *models.Assignment, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lapseWeight(assignment.AcademicLoadID, assignment.LapseID, "")+assignment.Weight > limit {
		return repository.ErrWeightCapExceeded
	}
	s.seq++
	assignment.ID = fmt.Sprintf("asg-new-%d", s.seq)
	assignment.CreatedAt = time.Now()
	s.items[assignment.ID] = *assignment
	return nil
}

func (s *assignmentRepoStub) UpdateWithinCap(ctx context.Context, assignment *models.Assignment, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lapseWeight(assignment.AcademicLoadID, assignment.LapseID, assignment.ID)+assignment.Weight > limit {
		return repository.ErrWeightCapExceeded
	}
	s.items[assignment.ID] = *assignment
	return nil
}

func (s *assignmentRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.items, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type catalogStub struct {
	loads  map[string]models.AcademicLoad
	lapses map[string]models.Lapse
}

func newCatalogStub() *catalogStub {
	return &catalogStub{
		loads: map[string]models.AcademicLoad{
			"load-1": {ID: "load-1", TeacherID: "teacher-1", CourseID: "math-1", AcademicPeriodID: "period-2024"},
		},
		lapses: map[string]models.Lapse{"lapse-1": {ID: "lapse-1", Name: "First", DisplayOrder: 1}},
	}
}

func (c *catalogStub) loadFinder() academicLoadFinder { return loadFinderFunc(c.findLoad) }

func (c *catalogStub) findLoad(ctx context.Context, id string) (*models.AcademicLoad, error) {
	load, ok := c.loads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &load, nil
}

func (c *catalogStub) FindByID(ctx context.Context, id string) (*models.Lapse, error) {
	lapse, ok := c.lapses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &lapse, nil
}

type loadFinderFunc func(ctx context.Context, id string) (*models.AcademicLoad, error)

func (f loadFinderFunc) FindByID(ctx context.Context, id string) (*models.AcademicLoad, error) {
	return f(ctx, id)
}

type gradeListStub struct {
	grades map[string][]models.Grade
}

func (g *gradeListStub) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Grade, error) {
	return g.grades[assignmentID], nil
}

var (
	teacherOne = Actor{UserID: "user-teacher-1", Role: models.RoleTeacher}
	teacherTwo = Actor{UserID: "user-teacher-2", Role: models.RoleTeacher}
)

func newTestAssignmentService(repo *assignmentRepoStub, grades *gradeListStub, cache *CacheService) *AssignmentService {
	catalog := newCatalogStub()
	dir := newDirectoryStub()
	if grades == nil {
		grades = &gradeListStub{}
	}
	return NewAssignmentService(repo, catalog.loadFinder(), catalog, grades, NewAccessPolicy(dir, dir), cache, nil, nil)
}

func TestAssignmentServiceCreate(t *testing.T) {
	repo := newAssignmentRepoStub(models.Assignment{ID: "asg-1", AcademicLoadID: "load-1", LapseID: "lapse-1", Weight: 60})
	svc := newTestAssignmentService(repo, nil, nil)

	created, err := svc.Create(context.Background(), teacherOne, dto.CreateAssignmentRequest{
		AcademicLoadID: "load-1", LapseID: "lapse-1", Description: "Quiz", Weight: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, "asg-new-1", created.ID)
	assert.Equal(t, 40, created.Weight)
}

func TestAssignmentServiceCreateRejectsOverweight(t *testing.T) {
	repo := newAssignmentRepoStub(models.Assignment{ID: "asg-1", AcademicLoadID: "load-1", LapseID: "lapse-1", Weight: 70})
	svc := newTestAssignmentService(repo, nil, nil)

	_, err := svc.Create(context.Background(), teacherOne, dto.CreateAssignmentRequest{
		AcademicLoadID: "load-1", LapseID: "lapse-1", Description: "Exam", Weight: 31,
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidWeights)
	assert.Len(t, repo.items, 1)
}

func TestAssignmentServiceConcurrentCreatesKeepLapseCap(t *testing.T) {
	repo := newAssignmentRepoStub(models.Assignment{ID: "asg-1", AcademicLoadID: "load-1", LapseID: "lapse-1", Weight: 60})
	svc := newTestAssignmentService(repo, nil, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), teacherOne, dto.CreateAssignmentRequest{
				AcademicLoadID: "load-1", LapseID: "lapse-1", Description: "Quiz", Weight: 40,
			})
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, appErrors.ErrInvalidWeights)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 100, repo.lapseWeight("load-1", "lapse-1", ""))
}

func TestAssignmentServiceCreateValidation(t *testing.T) {
	svc := newTestAssignmentService(newAssignmentRepoStub(), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, teacherOne, dto.CreateAssignmentRequest{AcademicLoadID: "load-1", LapseID: "lapse-1", Description: "Quiz", Weight: 0})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, teacherOne, dto.CreateAssignmentRequest{AcademicLoadID: "load-1", LapseID: "lapse-9", Description: "Quiz", Weight: 10})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Create(ctx, teacherOne, dto.CreateAssignmentRequest{AcademicLoadID: "load-9", LapseID: "lapse-1", Description: "Quiz", Weight: 10})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Create(ctx, teacherTwo, dto.CreateAssignmentRequest{AcademicLoadID: "load-1", LapseID: "lapse-1", Description: "Quiz", Weight: 10})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestAssignmentServiceUpdateExcludesItself(t *testing.T) {
	repo := newAssignmentRepoStub(
		models.Assignment{ID: "asg-1", AcademicLoadID: "load-1", LapseID: "lapse-1", Weight: 50},
		models.Assignment{ID: "asg-2", AcademicLoadID: "load-1", LapseID: "lapse-1", Weight: 50},
	)
	cacheRepo := newMemoryCache()
	_ = cacheRepo.Set(context.Background(), ReportCardCacheKey("stu-1", "period-2024"), map[string]int{"x": 1}, time.Minute)
	grades := &gradeListStub{grades: map[string][]models.Grade{"asg-1": {{StudentID: "stu-1", AssignmentID: "asg-1", Score: 15}}}}
	svc := newTestAssignmentService(repo, grades, NewCacheService(cacheRepo, nil, time.Minute, nil, true))
	ctx := context.Background()

	updated, err := svc.Update(ctx, teacherOne, "asg-1", dto.UpdateAssignmentRequest{Description: "Exam", Weight: 40})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Weight)
	assert.Empty(t, cacheRepo.items)

	_, err = svc.Update(ctx, teacherOne, "asg-1", dto.UpdateAssignmentRequest{Description: "Exam", Weight: 51})
	assert.ErrorIs(t, err, appErrors.ErrInvalidWeights)

	_, err = svc.Update(ctx, teacherOne, "missing", dto.UpdateAssignmentRequest{Description: "Exam", Weight: 10})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAssignmentServiceDeleteInvalidatesGradedStudents(t *testing.T) {
	repo := newAssignmentRepoStub(models.Assignment{ID: "asg-1", AcademicLoadID: "load-1", LapseID: "lapse-1", Weight: 50})
	cacheRepo := newMemoryCache()
	grades := &gradeListStub{grades: map[string][]models.Grade{"asg-1": {{StudentID: "stu-1"}, {StudentID: "stu-2"}}}}
	svc := newTestAssignmentService(repo, grades, NewCacheService(cacheRepo, nil, time.Minute, nil, true))

	require.NoError(t, svc.Delete(context.Background(), Actor{Role: models.RoleAdmin}, "asg-1"))
	assert.Equal(t, []string{"asg-1"}, repo.deleted)
	assert.Contains(t, cacheRepo.deleted, ReportCardCacheKey("stu-2", "*"))
	assert.Contains(t, cacheRepo.deleted, ProgressionCacheKey("stu-1"))
}

func TestAssignmentServiceList(t *testing.T) {
	repo := newAssignmentRepoStub(
		models.Assignment{ID: "asg-1", AcademicLoadID: "load-1", LapseID: "lapse-1", Weight: 50},
		models.Assignment{ID: "asg-2", AcademicLoadID: "load-1", LapseID: "lapse-2", Weight: 20},
	)
	svc := newTestAssignmentService(repo, nil, nil)
	ctx := context.Background()

	items, err := svc.List(ctx, teacherOne, models.AssignmentFilter{AcademicLoadID: "load-1", LapseID: "lapse-2"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "asg-2", items[0].ID)

	_, err = svc.List(ctx, teacherOne, models.AssignmentFilter{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.List(ctx, Actor{UserID: "user-stu-1", Role: models.RoleStudent}, models.AssignmentFilter{AcademicLoadID: "load-1"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
