package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-academic-api/internal/models"
)

// StudentRepository reads student records and their account links.
type StudentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, user_id, full_name, active FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ListByIDs returns the students with the given ids keyed by id.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []string) (map[string]models.Student, error) {
	result := make(map[string]models.Student, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`SELECT id, user_id, full_name, active FROM students WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build students query: %w", err)
	}
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list students by ids: %w", err)
	}
	for _, s := range students {
		result[s.ID] = s
	}
	return result, nil
}

// IsOwnedByUser reports whether the student record is linked to the account.
func (r *StudentRepository) IsOwnedByUser(ctx context.Context, studentID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE id = $1 AND user_id = $2)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, studentID, userID); err != nil {
		return false, fmt.Errorf("check student owner: %w", err)
	}
	return ok, nil
}

// IsRepresentedBy reports whether the account is a registered representative of the student.
func (r *StudentRepository) IsRepresentedBy(ctx context.Context, studentID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM student_representatives WHERE student_id = $1 AND representative_user_id = $2)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, studentID, userID); err != nil {
		return false, fmt.Errorf("check student representative: %w", err)
	}
	return ok, nil
}
