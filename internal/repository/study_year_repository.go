package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-academic-api/internal/models"
)

// StudyYearRepository reads grade levels.
type StudyYearRepository struct {
	db *sqlx.DB
}

func NewStudyYearRepository(db *sqlx.DB) *StudyYearRepository {
	return &StudyYearRepository{db: db}
}

// ListStudyYears returns every study year in ascending ordinal order.
func (r *StudyYearRepository) ListStudyYears(ctx context.Context) ([]models.StudyYear, error) {
	const query = `SELECT id, name, year FROM study_years ORDER BY year ASC`
	var years []models.StudyYear
	if err := r.db.SelectContext(ctx, &years, query); err != nil {
		return nil, fmt.Errorf("list study years: %w", err)
	}
	return years, nil
}

func (r *StudyYearRepository) FindByID(ctx context.Context, id string) (*models.StudyYear, error) {
	const query = `SELECT id, name, year FROM study_years WHERE id = $1`
	var year models.StudyYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, fmt.Errorf("find study year: %w", err)
	}
	return &year, nil
}
