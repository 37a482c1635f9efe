package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-academic-api/internal/models"
)

// AcademicLoadRepository reads teacher course assignments.
type AcademicLoadRepository struct {
	db *sqlx.DB
}

func NewAcademicLoadRepository(db *sqlx.DB) *AcademicLoadRepository {
	return &AcademicLoadRepository{db: db}
}

func (r *AcademicLoadRepository) FindByID(ctx context.Context, id string) (*models.AcademicLoad, error) {
	const query = `SELECT id, teacher_id, course_id, academic_period_id, section_id FROM academic_loads WHERE id = $1`
	var load models.AcademicLoad
	if err := r.db.GetContext(ctx, &load, query, id); err != nil {
		return nil, fmt.Errorf("find academic load: %w", err)
	}
	return &load, nil
}

// FindByAssignment returns the academic load that owns an assignment.
func (r *AcademicLoadRepository) FindByAssignment(ctx context.Context, assignmentID string) (*models.AcademicLoad, error) {
	const query = `SELECT al.id, al.teacher_id, al.course_id, al.academic_period_id, al.section_id
FROM academic_loads al JOIN assignments a ON a.academic_load_id = al.id WHERE a.id = $1`
	var load models.AcademicLoad
	if err := r.db.GetContext(ctx, &load, query, assignmentID); err != nil {
		return nil, fmt.Errorf("find academic load by assignment: %w", err)
	}
	return &load, nil
}
