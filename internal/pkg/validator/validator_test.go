package validator

import (
	"strings"
	"testing"

	"github.com/neuraltalk/chat-backend/internal/config"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/stretchr/testify/assert"
)

func newValidator() *Validator {
	return New(config.DocumentConfig{MaxDocuments: 2, MaxDocumentSize: 10})
}

func TestValidateNamespace(t *testing.T) {
	assert.NoError(t, ValidateNamespace("acme-docs_v2"))
	assert.NoError(t, ValidateNamespace("acme:tg42"))
	assert.ErrorIs(t, ValidateNamespace(""), entity.ErrMissingField)
	assert.ErrorIs(t, ValidateNamespace("has space"), entity.ErrInvalidFormat)
	assert.ErrorIs(t, ValidateNamespace("-leading"), entity.ErrInvalidFormat)
	assert.ErrorIs(t, ValidateNamespace(strings.Repeat("a", 129)), entity.ErrInvalidFormat)
}

func TestValidateChatRequest(t *testing.T) {
	v := newValidator()

	assert.NoError(t, v.ValidateChatRequest(&entity.ChatRequest{Question: "What is X?"}))
	assert.NoError(t, v.ValidateChatRequest(&entity.ChatRequest{Question: "What is X?", Namespace: "acme"}))
	assert.ErrorIs(t, v.ValidateChatRequest(&entity.ChatRequest{}), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateChatRequest(&entity.ChatRequest{Question: " \n "}), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateChatRequest(&entity.ChatRequest{Question: "q", Namespace: "a b"}), entity.ErrInvalidFormat)
}

func TestValidateUpsertConversation(t *testing.T) {
	v := newValidator()
	ok := &entity.UpsertConversationRequest{
		Namespace:   "acme",
		Temperature: 0.7,
		Messages: []entity.ChatTurn{
			{Role: entity.RoleUser, Content: "q"},
			{Role: entity.RoleAssistant, Content: "a"},
			{Role: entity.RoleUser, Content: "q2"},
		},
	}
	assert.NoError(t, v.ValidateUpsertConversation(ok))

	swapped := *ok
	swapped.Messages = []entity.ChatTurn{{Role: entity.RoleAssistant, Content: "a"}}
	assert.ErrorIs(t, v.ValidateUpsertConversation(&swapped), entity.ErrInvalidConversation)

	unknown := *ok
	unknown.Messages = []entity.ChatTurn{{Role: "system", Content: "x"}}
	assert.ErrorIs(t, v.ValidateUpsertConversation(&unknown), entity.ErrInvalidConversation)

	hot := *ok
	hot.Temperature = 3
	assert.ErrorIs(t, v.ValidateUpsertConversation(&hot), entity.ErrInvalidParameter)
}

func TestValidateIndexDocuments(t *testing.T) {
	v := newValidator()

	assert.ErrorIs(t, v.ValidateIndexDocuments(&entity.IndexDocumentsRequest{}), entity.ErrNoDocuments)
	assert.NoError(t, v.ValidateIndexDocuments(&entity.IndexDocumentsRequest{
		Documents: []entity.Document{{Content: "short"}},
	}))
	assert.ErrorIs(t, v.ValidateIndexDocuments(&entity.IndexDocumentsRequest{
		Documents: []entity.Document{{Content: "a"}, {Content: "b"}, {Content: "c"}},
	}), entity.ErrTooManyDocuments)
	assert.ErrorIs(t, v.ValidateIndexDocuments(&entity.IndexDocumentsRequest{
		Documents: []entity.Document{{Content: "way too long text"}},
	}), entity.ErrDocumentTooLarge)
	assert.ErrorIs(t, v.ValidateIndexDocuments(&entity.IndexDocumentsRequest{
		Documents: []entity.Document{{Title: "empty"}},
	}), entity.ErrMissingField)
}
