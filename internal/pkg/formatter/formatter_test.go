package formatter

import (
	"bytes"
	"testing"

	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transcript() entity.Conversation {
	return entity.Conversation{
		ID:   "c1",
		Name: "What is X?",
		Messages: []entity.ChatTurn{
			{Role: entity.RoleUser, Content: "What is X?"},
			{Role: entity.RoleAssistant, Content: "X is a product."},
		},
	}
}

func TestFactory(t *testing.T) {
	f := NewFactory()

	for format, ext := range map[entity.ResultFormat]string{
		entity.FormatMarkdown: ".md",
		entity.FormatPDF:      ".pdf",
		entity.FormatDOCX:     ".docx",
	} {
		fm, err := f.Create(format)
		require.NoError(t, err)
		assert.Equal(t, ext, fm.FileExtension())
	}

	_, err := f.Create("html")
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
}

func TestMarkdownFormatter(t *testing.T) {
	out, err := NewMarkdownFormatter().Format(transcript())
	require.NoError(t, err)

	assert.Equal(t,
		"# What is X?\n\n**User:**\n\nWhat is X?\n\n**Assistant:**\n\nX is a product.\n",
		string(out))
}

func TestMarkdownFormatter_DefaultTitle(t *testing.T) {
	out, err := NewMarkdownFormatter().Format(entity.Conversation{})
	require.NoError(t, err)
	assert.Equal(t, "# New Conversation\n", string(out))
}

func TestPDFFormatter(t *testing.T) {
	out, err := NewPDFFormatter().Format(transcript())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", NewPDFFormatter().ContentType())
}
