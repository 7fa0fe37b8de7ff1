package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func next(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no event queued")
		return envelope{}
	}
}

func TestClient_PingGetsPong(t *testing.T) {
	c := NewClient(nil, NewHub(), uuid.New())

	c.handleFrame(context.Background(), []byte(`{"type":"ping"}`))

	env := next(t, c)
	assert.Equal(t, EventPong, env.Type)
	assert.Contains(t, string(env.Data), "server_time")
}

func TestClient_RejectsBadFrames(t *testing.T) {
	c := NewClient(nil, NewHub(), uuid.New())

	c.handleFrame(context.Background(), []byte(`not json`))
	assert.Equal(t, EventError, next(t, c).Type)

	c.handleFrame(context.Background(), []byte(`{"type":"message","content":"hi"}`))
	env := next(t, c)
	assert.Equal(t, EventError, env.Type)
	assert.Contains(t, string(env.Data), "message")

	c.handleFrame(context.Background(), []byte(`{"type":"typing"}`))
	assert.Contains(t, string(next(t, c).Data), "conversation_id")
}

func TestClient_RelaysTypingToPeer(t *testing.T) {
	hub := startHub(t)
	author, peer := uuid.New(), uuid.New()
	conv := uuid.New()
	hub.SetTypingResolver(func(ctx context.Context, conversationID, userID uuid.UUID) (uuid.UUID, error) {
		if conversationID == conv && userID == author {
			return peer, nil
		}
		return uuid.Nil, apperror.New(apperror.ErrCodeLocked, "диалог заблокирован")
	})

	sender := NewClient(nil, hub, author)
	receiver := NewClient(nil, hub, peer)
	hub.Register(sender)
	hub.Register(receiver)

	sender.handleFrame(context.Background(), []byte(`{"type":"typing","conversation_id":"`+conv.String()+`"}`))

	env := next(t, receiver)
	assert.Equal(t, EventTyping, env.Type)
	var typing TypingEvent
	require.NoError(t, json.Unmarshal(env.Data, &typing))
	assert.Equal(t, conv, typing.ConversationID)
	assert.Equal(t, author, typing.UserID)

	// в закрытый диалог typing не пересылается, отправитель получает причину
	sender.handleFrame(context.Background(), []byte(`{"type":"typing","conversation_id":"`+uuid.NewString()+`"}`))
	env = next(t, sender)
	assert.Equal(t, EventError, env.Type)
	assert.Contains(t, string(env.Data), "диалог заблокирован")
	select {
	case <-receiver.send:
		t.Fatal("typing leaked into a locked conversation")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClient_TypingResolverFailureIsSilent(t *testing.T) {
	hub := NewHub()
	hub.SetTypingResolver(func(context.Context, uuid.UUID, uuid.UUID) (uuid.UUID, error) {
		return uuid.Nil, errors.New("db down")
	})
	c := NewClient(nil, hub, uuid.New())

	c.handleFrame(context.Background(), []byte(`{"type":"typing","conversation_id":"`+uuid.NewString()+`"}`))

	assert.Empty(t, c.send)
}

func TestClient_ReplyDropsWhenQueueFull(t *testing.T) {
	c := NewClient(nil, NewHub(), uuid.New())
	for i := 0; i < sendQueueSize+5; i++ {
		c.reply(EventPong, nil)
	}
	assert.Len(t, c.send, sendQueueSize)
}
