package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-academic-api/internal/models"
)

// CourseRepository reads the courses taught in each study year.
type CourseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListCoursesByStudyYear returns the courses of one study year ordered by name.
func (r *CourseRepository) ListCoursesByStudyYear(ctx context.Context, studyYearID string) ([]models.Course, error) {
	const query = `SELECT id, name, study_year_id FROM courses WHERE study_year_id = $1 ORDER BY name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studyYearID); err != nil {
		return nil, fmt.Errorf("list courses by study year: %w", err)
	}
	return courses, nil
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, name, study_year_id FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}
