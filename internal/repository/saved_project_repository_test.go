package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavedProjectRepository_Save(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSavedProjectRepository(db)
	user, project := uuid.New(), uuid.New()

	mock.ExpectQuery(`INSERT INTO saved_projects`).
		WithArgs(user, project).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "project_id", "created_at"}).
			AddRow(user.String(), project.String(), time.Now()))

	saved, err := repo.Save(context.Background(), user, project)
	require.NoError(t, err)
	assert.Equal(t, project, saved.ProjectID)

	mock.ExpectQuery(`INSERT INTO saved_projects`).WillReturnError(&pq.Error{Code: "23505"})
	_, err = repo.Save(context.Background(), user, project)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSavedProjectRepository_RemoveMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSavedProjectRepository(db)

	mock.ExpectExec(`DELETE FROM saved_projects`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Remove(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrSavedProjectNotFound)
}

func TestUserRepository_DeleteAllSessionsExcept(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	user := uuid.New()

	mock.ExpectExec(`DELETE FROM sessions WHERE user_id = \$1 AND refresh_token <> \$2`).
		WithArgs(user, "keep").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteAllSessionsExcept(context.Background(), user, "keep")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
