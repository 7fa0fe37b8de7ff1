package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
)

func newProposalConnection() *models.Connection {
	now := time.Now()
	expires := now.Add(7 * 24 * time.Hour)
	convID := uuid.New()
	return &models.Connection{
		InitiatorID:         uuid.New(),
		RecipientID:         uuid.New(),
		ConnectionType:      models.ConversationTypeProjectProposal,
		Status:              models.ConnectionStatusPending,
		ConversationID:      &convID,
		InitiatorUnlockedAt: &now,
		ExpiresAt:           &expires,
	}
}

func TestConnectionRepository_InsertFresh(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConnectionRepository(db)
	conn := newProposalConnection()
	id := uuid.New()

	mock.ExpectQuery(`INSERT INTO user_connections .* ON CONFLICT .* DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id.String(), time.Now(), time.Now()))

	require.NoError(t, repo.Insert(context.Background(), db, conn, time.Now()))
	assert.Equal(t, id, conn.ID)
}

func TestConnectionRepository_InsertReplacesTornDown(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConnectionRepository(db)
	conn := newProposalConnection()
	id := uuid.New()

	mock.ExpectQuery(`INSERT INTO user_connections`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))
	mock.ExpectQuery(`UPDATE user_connections uc .* uc.conversation_id IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id.String(), time.Now(), time.Now()))

	require.NoError(t, repo.Insert(context.Background(), db, conn, time.Now()))
	assert.Equal(t, id, conn.ID)
}

func TestConnectionRepository_InsertActiveConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConnectionRepository(db)

	mock.ExpectQuery(`INSERT INTO user_connections`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))
	mock.ExpectQuery(`UPDATE user_connections uc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))
	mock.ExpectQuery(`SELECT status FROM user_connections`).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.ConnectionStatusPending))

	err := repo.Insert(context.Background(), db, newProposalConnection(), time.Now())
	assert.ErrorIs(t, err, ErrConnectionActive)
}

func TestConnectionRepository_InsertKeepsEstablished(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConnectionRepository(db)
	conn := newProposalConnection()

	mock.ExpectQuery(`INSERT INTO user_connections`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))
	mock.ExpectQuery(`UPDATE user_connections uc .* uc.status <> 'connected'`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))
	mock.ExpectQuery(`SELECT status FROM user_connections`).
		WithArgs(conn.InitiatorID, conn.RecipientID, conn.ConnectionType).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.ConnectionStatusConnected))

	err := repo.Insert(context.Background(), db, conn, time.Now())
	assert.ErrorIs(t, err, ErrConnectionEstablished)
	assert.Equal(t, uuid.Nil, conn.ID)
}

func TestConnectionRepository_InsertDBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConnectionRepository(db)

	mock.ExpectQuery(`INSERT INTO user_connections`).WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), db, newProposalConnection(), time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConnectionActive)
}

func TestConnectionRepository_MarkRecipientUnlocked(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConnectionRepository(db)
	convID := uuid.New()

	mock.ExpectExec(`UPDATE user_connections .* expires_at = NULL`).
		WithArgs(convID, sqlmock.AnyArg(), models.ConnectionStatusConnected).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkRecipientUnlocked(context.Background(), db, convID, time.Now()))

	mock.ExpectExec(`UPDATE user_connections`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkRecipientUnlocked(context.Background(), db, convID, time.Now())
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestConnectionRepository_DeleteByConversationsEmpty(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewConnectionRepository(db)

	n, err := repo.DeleteByConversations(context.Background(), db, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
