package formatter

import (
	"fmt"

	"github.com/neuraltalk/chat-backend/internal/entity"
)

// Formatter renders a conversation transcript as a downloadable file
type Formatter interface {
	Format(conv entity.Conversation) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, format)
	}
}

func speaker(role entity.Role) string {
	if role == entity.RoleAssistant {
		return "Assistant"
	}
	return "User"
}

func title(conv entity.Conversation) string {
	if conv.Name == "" {
		return entity.DefaultConversationName
	}
	return conv.Name
}
