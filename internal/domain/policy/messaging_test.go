package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
)

func proposalAccess(unlocked bool) (ConversationAccess, uuid.UUID, uuid.UUID) {
	initiator, recipient := uuid.New(), uuid.New()
	return ConversationAccess{
		Type:        models.ConversationTypeProjectProposal,
		InitiatorID: initiator,
		RecipientID: recipient,
		IsUnlocked:  unlocked,
	}, initiator, recipient
}

func TestCanSend_LockedProposal(t *testing.T) {
	access, initiator, recipient := proposalAccess(false)

	err := CanSend(access, initiator)
	assert.True(t, apperror.IsLocked(err))
	assert.Contains(t, err.Error(), "дождитесь")

	err = CanSend(access, recipient)
	assert.True(t, apperror.IsLocked(err))
	assert.Contains(t, err.Error(), "разблокируйте")
}

func TestCanSend_Unlocked(t *testing.T) {
	access, initiator, recipient := proposalAccess(true)

	assert.NoError(t, CanSend(access, initiator))
	assert.NoError(t, CanSend(access, recipient))
}

func TestCanSend_DirectNeverLocked(t *testing.T) {
	access, initiator, _ := proposalAccess(false)
	access.Type = models.ConversationTypeDirect

	assert.NoError(t, CanSend(access, initiator))
}

func TestCanSend_OutsiderForbiddenRegardlessOfLock(t *testing.T) {
	for _, unlocked := range []bool{false, true} {
		access, _, _ := proposalAccess(unlocked)
		assert.True(t, apperror.IsForbidden(CanSend(access, uuid.New())))
	}
}

func TestCanRead_RecipientBeforeUnlock(t *testing.T) {
	access, _, recipient := proposalAccess(false)
	assert.NoError(t, CanRead(access, recipient))
}
