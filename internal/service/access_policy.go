package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/school-academic-api/internal/models"
	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   models.UserRole
}

// ActorFromClaims builds an Actor from access token claims.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, Role: claims.Role}
}

type studentAccessReader interface {
	IsOwnedByUser(ctx context.Context, studentID, userID string) (bool, error)
	IsRepresentedBy(ctx context.Context, studentID, userID string) (bool, error)
}

type teacherByUserFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

// AccessPolicy answers record-level questions that route guards cannot.
type AccessPolicy struct {
	students studentAccessReader
	teachers teacherByUserFinder
}

// NewAccessPolicy constructs an AccessPolicy.
func NewAccessPolicy(students studentAccessReader, teachers teacherByUserFinder) *AccessPolicy {
	return &AccessPolicy{students: students, teachers: teachers}
}

// CanViewStudent allows staff and teachers, the student themself and linked representatives.
func (p *AccessPolicy) CanViewStudent(ctx context.Context, actor Actor, studentID string) error {
	var (
		ok  bool
		err error
	)
	switch actor.Role {
	case models.RoleAdmin, models.RoleCoordinator, models.RoleTeacher:
		return nil
	case models.RoleStudent:
		ok, err = p.students.IsOwnedByUser(ctx, studentID, actor.UserID)
	case models.RoleRepresentative:
		ok, err = p.students.IsRepresentedBy(ctx, studentID, actor.UserID)
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student access")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "student records not accessible")
	}
	return nil
}

// EnsureLoadOwner allows staff, or the teacher the academic load is assigned to.
func (p *AccessPolicy) EnsureLoadOwner(ctx context.Context, actor Actor, load *models.AcademicLoad) error {
	if actor.Role.IsStaff() {
		return nil
	}
	if actor.Role != models.RoleTeacher {
		return appErrors.Clone(appErrors.ErrForbidden, "only teachers manage academic loads")
	}
	teacher, err := p.teachers.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a teacher")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.ID != load.TeacherID {
		return appErrors.Clone(appErrors.ErrForbidden, "academic load belongs to another teacher")
	}
	return nil
}
