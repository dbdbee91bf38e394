package entity

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

type CreateUserRequest struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type CreateChatbotRequest struct {
	Name        string `json:"name"`
	Namespace   string `json:"namespace"`
	Description string `json:"description"`
	// UserID links the new chatbot to an existing user
	UserID *string `json:"user_id,omitempty"`
}

type UpsertConversationRequest struct {
	UserID      *string    `json:"user_id,omitempty"`
	ChatbotID   *string    `json:"chatbot_id,omitempty"`
	Namespace   string     `json:"namespace"`
	Name        string     `json:"name"`
	Messages    []ChatTurn `json:"messages"`
	Prompt      string     `json:"prompt"`
	Temperature float64    `json:"temperature"`
	FolderID    *string    `json:"folderId,omitempty"`
}

type IndexDocumentsRequest struct {
	Documents []Document `json:"documents"`
}

type IndexDocumentsResponse struct {
	Namespace string `json:"namespace"`
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
}

// ExportedFile is a rendered conversation transcript
type ExportedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
