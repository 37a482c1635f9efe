package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-academic-api/internal/models"
)

// LapseRepository reads grading sub-periods.
type LapseRepository struct {
	db *sqlx.DB
}

func NewLapseRepository(db *sqlx.DB) *LapseRepository {
	return &LapseRepository{db: db}
}

// ListLapses returns every lapse ordered for display.
func (r *LapseRepository) ListLapses(ctx context.Context) ([]models.Lapse, error) {
	const query = `SELECT id, name, display_order FROM lapses ORDER BY display_order ASC, name ASC`
	var lapses []models.Lapse
	if err := r.db.SelectContext(ctx, &lapses, query); err != nil {
		return nil, fmt.Errorf("list lapses: %w", err)
	}
	return lapses, nil
}

func (r *LapseRepository) FindByID(ctx context.Context, id string) (*models.Lapse, error) {
	const query = `SELECT id, name, display_order FROM lapses WHERE id = $1`
	var lapse models.Lapse
	if err := r.db.GetContext(ctx, &lapse, query, id); err != nil {
		return nil, fmt.Errorf("find lapse: %w", err)
	}
	return &lapse, nil
}
