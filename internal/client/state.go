package client

import (
	"github.com/neuraltalk/chat-backend/internal/entity"
)

// State is the client-side view of the chat
type State struct {
	Conversations      []entity.Conversation
	Selected           *entity.Conversation
	Loading            bool
	MessageIsStreaming bool
}

// Action is a pure state transition
type Action func(State) State

// Apply runs actions in order and returns the resulting state.
// The input state is never modified.
func Apply(s State, actions ...Action) State {
	for _, a := range actions {
		s = a(s)
	}
	return s
}

func SetLoading(v bool) Action {
	return func(s State) State {
		s.Loading = v
		return s
	}
}

func SetStreaming(v bool) Action {
	return func(s State) State {
		s.MessageIsStreaming = v
		return s
	}
}

func SetSelected(c entity.Conversation) Action {
	return func(s State) State {
		clone := c.Clone()
		s.Selected = &clone
		return s
	}
}

func SetConversations(list []entity.Conversation) Action {
	return func(s State) State {
		s.Conversations = cloneList(list)
		return s
	}
}

// UpsertConversation swaps c into the list by id and selects it when it is the selected one
func UpsertConversation(c entity.Conversation) Action {
	return func(s State) State {
		list := make([]entity.Conversation, 0, len(s.Conversations)+1)
		found := false
		for _, existing := range s.Conversations {
			if existing.ID == c.ID {
				list = append(list, c.Clone())
				found = true
				continue
			}
			list = append(list, existing)
		}
		if !found {
			list = append(list, c.Clone())
		}
		s.Conversations = list

		if s.Selected != nil && s.Selected.ID == c.ID {
			clone := c.Clone()
			s.Selected = &clone
		}
		return s
	}
}

// NewConversation appends an empty conversation and selects it.
// The temperature is inherited from the last conversation.
func NewConversation(id string) Action {
	return func(s State) State {
		temperature := entity.DefaultTemperature
		if n := len(s.Conversations); n > 0 {
			temperature = s.Conversations[n-1].Temperature
		}

		conv := entity.Conversation{
			ID:          id,
			Name:        entity.DefaultConversationName,
			Messages:    []entity.ChatTurn{},
			Prompt:      entity.DefaultSystemPrompt,
			Temperature: temperature,
		}

		s.Conversations = append(cloneList(s.Conversations), conv)
		clone := conv.Clone()
		s.Selected = &clone
		s.Loading = false
		return s
	}
}

func cloneList(list []entity.Conversation) []entity.Conversation {
	if list == nil {
		return nil
	}
	out := make([]entity.Conversation, len(list))
	for i, c := range list {
		out[i] = c.Clone()
	}
	return out
}
