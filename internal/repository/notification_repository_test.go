package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
)

func TestNotificationRepository_CreateBatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	list := []*models.Notification{
		{UserID: uuid.New(), Type: models.NotificationTypeBidRejected, Title: "t1", Content: "c1"},
		{UserID: uuid.New(), Type: models.NotificationTypeBidAccepted, Title: "t2", Content: "c2"},
	}

	mock.ExpectExec(`INSERT INTO notifications .* VALUES \(\$1, .*\$9\), \(\$10, .*\$18\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.CreateBatch(context.Background(), db, list))
	for _, n := range list {
		assert.NotEqual(t, uuid.Nil, n.ID)
		assert.False(t, n.CreatedAt.IsZero())
	}
}

func TestNotificationRepository_MarkAsReadForeign(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE WHERE id = \$1 AND user_id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkAsRead(context.Background(), uuid.New(), uuid.New()), ErrNotificationNotFound)
}

func TestNotificationRepository_ListUnreadOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM notifications WHERE user_id = \$1 AND is_read = FALSE ORDER BY created_at DESC LIMIT \$2`).
		WithArgs(userID, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))

	list, err := repo.List(context.Background(), userID, 20, 0, true)
	require.NoError(t, err)
	assert.Empty(t, list)
}
