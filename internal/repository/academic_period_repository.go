package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-academic-api/internal/models"
)

// AcademicPeriodRepository reads school years.
type AcademicPeriodRepository struct {
	db *sqlx.DB
}

func NewAcademicPeriodRepository(db *sqlx.DB) *AcademicPeriodRepository {
	return &AcademicPeriodRepository{db: db}
}

const findClosedPeriodQuery = `SELECT id, name, start_date, end_date FROM academic_periods
WHERE NOT ($1::date BETWEEN start_date AND end_date)
ORDER BY end_date DESC LIMIT 1`

// FindClosedPeriod returns the latest period whose date range excludes the reference date.
// sql.ErrNoRows is wrapped when none exists.
func (r *AcademicPeriodRepository) FindClosedPeriod(ctx context.Context, reference time.Time) (*models.AcademicPeriod, error) {
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, findClosedPeriodQuery, reference); err != nil {
		return nil, fmt.Errorf("find closed academic period: %w", err)
	}
	return &period, nil
}

func (r *AcademicPeriodRepository) FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	const query = `SELECT id, name, start_date, end_date FROM academic_periods WHERE id = $1`
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, fmt.Errorf("find academic period: %w", err)
	}
	return &period, nil
}
