package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-academic-api/internal/models"
)

// GradeRepository manages assignment scores.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const findLapseGradesQuery = `SELECT g.score, a.weight
FROM grades g
JOIN assignments a ON a.id = g.assignment_id
JOIN academic_loads al ON al.id = a.academic_load_id
WHERE g.student_id = $1 AND al.course_id = $2 AND al.academic_period_id = $3 AND a.lapse_id = $4`

// FindLapseGrades returns the student's scored assignments of one lapse for a course in a period.
func (r *GradeRepository) FindLapseGrades(ctx context.Context, studentID, courseID, periodID, lapseID string) ([]models.WeightedScore, error) {
	var scores []models.WeightedScore
	if err := r.db.SelectContext(ctx, &scores, findLapseGradesQuery, studentID, courseID, periodID, lapseID); err != nil {
		return nil, fmt.Errorf("find lapse grades: %w", err)
	}
	return scores, nil
}

// ListByAssignment returns every grade recorded for an assignment.
func (r *GradeRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Grade, error) {
	const query = `SELECT id, student_id, assignment_id, score, note, created_at, updated_at FROM grades WHERE assignment_id = $1 ORDER BY student_id`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list grades by assignment: %w", err)
	}
	return grades, nil
}

const upsertGradeQuery = `INSERT INTO grades (id, student_id, assignment_id, score, note, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (student_id, assignment_id) DO UPDATE SET score = EXCLUDED.score, note = EXCLUDED.note, updated_at = EXCLUDED.updated_at
RETURNING id, created_at, updated_at`

// Upsert inserts or replaces the score of a student on an assignment.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	return upsertGrade(ctx, r.db, grade)
}

// BulkUpsert writes all grades in a single transaction.
func (r *GradeRepository) BulkUpsert(ctx context.Context, grades []models.Grade) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grade tx: %w", err)
	}
	for i := range grades {
		if err := upsertGrade(ctx, tx, &grades[i]); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade tx: %w", err)
	}
	return nil
}

func upsertGrade(ctx context.Context, q sqlx.QueryerContext, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	row := q.QueryRowxContext(ctx, upsertGradeQuery, grade.ID, grade.StudentID, grade.AssignmentID, grade.Score, grade.Note, now)
	if err := row.Scan(&grade.ID, &grade.CreatedAt, &grade.UpdatedAt); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}
