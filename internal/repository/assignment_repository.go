package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-academic-api/internal/models"
)

// AssignmentRepository persists gradable work.
type AssignmentRepository struct {
	db *sqlx.DB
}

func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, academic_load_id, lapse_id, description, weight, created_at, updated_at`

// List returns assignments of an academic load, optionally narrowed to one lapse.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	var conditions []string
	var args []interface{}
	if filter.AcademicLoadID != "" {
		args = append(args, filter.AcademicLoadID)
		conditions = append(conditions, fmt.Sprintf("academic_load_id = $%d", len(args)))
	}
	if filter.LapseID != "" {
		args = append(args, filter.LapseID)
		conditions = append(conditions, fmt.Sprintf("lapse_id = $%d", len(args)))
	}

	query := "SELECT " + assignmentColumns + " FROM assignments"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC"

	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM assignments WHERE id = $1"
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// ErrWeightCapExceeded is returned when a write would push the weights of a lapse past the cap.
var ErrWeightCapExceeded = errors.New("assignment weights exceed lapse cap")

// CreateWithinCap inserts the assignment only if the weights of its lapse stay within limit.
// The academic load row and the lapse's assignments are locked until commit, so concurrent
// writers for the same load are serialized.
func (r *AssignmentRepository) CreateWithinCap(ctx context.Context, assignment *models.Assignment, limit int) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	used, err := lockLapseWeights(ctx, tx, assignment.AcademicLoadID, assignment.LapseID, "")
	if err != nil {
		return err
	}
	if used+assignment.Weight > limit {
		return fmt.Errorf("%w: %d used, %d requested", ErrWeightCapExceeded, used, assignment.Weight)
	}

	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, academic_load_id, lapse_id, description, weight, created_at, updated_at)
VALUES (:id, :academic_load_id, :lapse_id, :description, :weight, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment create: %w", err)
	}
	return nil
}

// UpdateWithinCap rewrites description and weight under the same locking as CreateWithinCap.
// The assignment's own current weight is not counted against the cap.
func (r *AssignmentRepository) UpdateWithinCap(ctx context.Context, assignment *models.Assignment, limit int) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	used, err := lockLapseWeights(ctx, tx, assignment.AcademicLoadID, assignment.LapseID, assignment.ID)
	if err != nil {
		return err
	}
	if used+assignment.Weight > limit {
		return fmt.Errorf("%w: %d used, %d requested", ErrWeightCapExceeded, used, assignment.Weight)
	}

	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET description = :description, weight = :weight, updated_at = :updated_at WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment update: %w", err)
	}
	return nil
}

// lockLapseWeights locks the academic load and the lapse's assignments, then returns their
// summed weight ignoring excludeID. Locking the load row also covers a lapse with no rows yet.
func lockLapseWeights(ctx context.Context, tx *sqlx.Tx, academicLoadID, lapseID, excludeID string) (int, error) {
	var loadID string
	if err := tx.GetContext(ctx, &loadID, "SELECT id FROM academic_loads WHERE id = $1 FOR UPDATE", academicLoadID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		return 0, fmt.Errorf("lock academic load: %w", err)
	}

	var rows []struct {
		ID     string `db:"id"`
		Weight int    `db:"weight"`
	}
	const query = `SELECT id, weight FROM assignments WHERE academic_load_id = $1 AND lapse_id = $2 FOR UPDATE`
	if err := tx.SelectContext(ctx, &rows, query, academicLoadID, lapseID); err != nil {
		return 0, fmt.Errorf("lock lapse assignments: %w", err)
	}
	total := 0
	for _, row := range rows {
		if row.ID == excludeID {
			continue
		}
		total += row.Weight
	}
	return total, nil
}

// Delete removes the assignment together with its grades.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM grades WHERE assignment_id = $1", id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete assignment grades: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1", id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete assignment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment delete: %w", err)
	}
	return nil
}
