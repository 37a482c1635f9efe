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
	"github.com/lib/pq"

	"github.com/noah-isme/school-academic-api/internal/models"
)

// ErrDuplicateEnrollment is returned when a student is already enrolled in the period.
var ErrDuplicateEnrollment = errors.New("student already enrolled in academic period")

const uniqueViolation = "23505"

// EnrollmentRepository manages student enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, student_id, study_year_id, academic_period_id, section_id, created_at`

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	StudentID        string
	AcademicPeriodID string
	SectionID        string
}

// List returns enrollments matching the filter, newest first.
func (r *EnrollmentRepository) List(ctx context.Context, filter EnrollmentFilter) ([]models.Enrollment, error) {
	var conditions []string
	var args []interface{}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.AcademicPeriodID != "" {
		args = append(args, filter.AcademicPeriodID)
		conditions = append(conditions, fmt.Sprintf("academic_period_id = $%d", len(args)))
	}
	if filter.SectionID != "" {
		args = append(args, filter.SectionID)
		conditions = append(conditions, fmt.Sprintf("section_id = $%d", len(args)))
	}

	query := "SELECT " + enrollmentColumns + " FROM enrollments"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

const listStudentEnrollmentsQuery = `SELECT e.study_year_id, sy.year AS study_year_ordinal, e.academic_period_id
FROM enrollments e
JOIN study_years sy ON sy.id = e.study_year_id
WHERE e.student_id = $1
ORDER BY sy.year ASC, e.created_at ASC`

// ListEnrollmentsByStudent returns the student's enrollments in ascending study year order.
func (r *EnrollmentRepository) ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]models.StudentEnrollment, error) {
	var enrollments []models.StudentEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, listStudentEnrollmentsQuery, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// FindByStudentAndPeriod returns the enrollment of a student in one academic period.
func (r *EnrollmentRepository) FindByStudentAndPeriod(ctx context.Context, studentID, periodID string) (*models.Enrollment, error) {
	query := "SELECT " + enrollmentColumns + " FROM enrollments WHERE student_id = $1 AND academic_period_id = $2"
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, periodID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment by student and period: %w", err)
	}
	return &enrollment, nil
}

// Create persists a new enrollment. A unique violation maps to ErrDuplicateEnrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, study_year_id, academic_period_id, section_id, created_at)
VALUES (:id, :student_id, :study_year_id, :academic_period_id, :section_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEnrollment
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}
