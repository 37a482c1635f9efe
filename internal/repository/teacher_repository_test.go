package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeacherRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, full_name FROM teachers WHERE user_id = $1")).
		WithArgs("user-teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "full_name"}).AddRow("teacher-1", "user-teacher-1", "Marta Gil"))

	teacher, err := repo.FindByUserID(context.Background(), "user-teacher-1")
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", teacher.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE user_id = $1")).
		WithArgs("user-x").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByUserID(context.Background(), "user-x")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}
