package client

import (
	"context"
	"testing"

	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conv(id string, temperature float64, msgs ...string) entity.Conversation {
	c := entity.Conversation{ID: id, Name: id, Temperature: temperature, Messages: []entity.ChatTurn{}}
	for i, m := range msgs {
		role := entity.RoleUser
		if i%2 == 1 {
			role = entity.RoleAssistant
		}
		c.Messages = append(c.Messages, entity.ChatTurn{Role: role, Content: m})
	}
	return c
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	start := State{Conversations: []entity.Conversation{conv("a", 0.5, "q")}}

	next := Apply(start,
		SetLoading(true),
		SetStreaming(true),
		UpsertConversation(conv("a", 0.5, "q", "answer")),
	)

	assert.False(t, start.Loading)
	assert.Len(t, start.Conversations[0].Messages, 1)

	assert.True(t, next.Loading)
	assert.True(t, next.MessageIsStreaming)
	assert.Len(t, next.Conversations[0].Messages, 2)
}

func TestUpsertConversation(t *testing.T) {
	a := conv("a", 0.5)
	b := conv("b", 0.5)
	s := Apply(State{}, SetConversations([]entity.Conversation{a, b}), SetSelected(b))

	updated := conv("b", 0.5, "hi")
	s = Apply(s, UpsertConversation(updated))

	require.Len(t, s.Conversations, 2)
	assert.Equal(t, "a", s.Conversations[0].ID)
	assert.Equal(t, updated, s.Conversations[1])
	require.NotNil(t, s.Selected)
	assert.Equal(t, updated, *s.Selected)

	s = Apply(s, UpsertConversation(conv("c", 0.5)))
	assert.Len(t, s.Conversations, 3)
	assert.Equal(t, "b", s.Selected.ID)
}

func TestNewConversation(t *testing.T) {
	s := Apply(State{Loading: true}, NewConversation("fresh"))

	require.NotNil(t, s.Selected)
	assert.Equal(t, "fresh", s.Selected.ID)
	assert.Equal(t, entity.DefaultConversationName, s.Selected.Name)
	assert.Equal(t, entity.DefaultSystemPrompt, s.Selected.Prompt)
	assert.Equal(t, entity.DefaultTemperature, s.Selected.Temperature)
	assert.Empty(t, s.Selected.Messages)
	assert.False(t, s.Loading)

	s = Apply(s, UpsertConversation(conv("fresh", 0.2)), NewConversation("second"))
	assert.Equal(t, 0.2, s.Selected.Temperature)
	assert.Len(t, s.Conversations, 2)
}

func TestCanceller(t *testing.T) {
	c := NewCanceller()
	assert.False(t, c.Stopped())

	ctx, cancel := context.WithCancel(context.Background())
	c.bind(cancel)
	c.Stop()

	assert.True(t, c.Stopped())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	c.Reset()
	assert.False(t, c.Stopped())

	c.unbind()
	c.Stop()
	assert.True(t, c.Stopped())
}
