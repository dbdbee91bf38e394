package validator

import (
	"fmt"
	"regexp"

	"github.com/neuraltalk/chat-backend/internal/config"
	"github.com/neuraltalk/chat-backend/internal/entity"
)

const maxNamespaceLength = 128

var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:\-]*$`)

// Validator checks request payloads before they reach a usecase
type Validator struct {
	cfg config.DocumentConfig
}

func New(cfg config.DocumentConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateNamespace accepts letters, digits and _ . : - up to 128 characters
func ValidateNamespace(namespace string) error {
	if namespace == "" {
		return fmt.Errorf("%w: namespace", entity.ErrMissingField)
	}
	if len(namespace) > maxNamespaceLength || !namespacePattern.MatchString(namespace) {
		return fmt.Errorf("%w: namespace %q", entity.ErrInvalidFormat, namespace)
	}
	return nil
}

// ValidateChatRequest requires a non-blank question. An empty namespace is allowed
// here; whether unscoped retrieval is permitted is decided by the chat usecase.
func (v *Validator) ValidateChatRequest(req *entity.ChatRequest) error {
	if entity.SanitizeQuestion(req.Question) == "" {
		return fmt.Errorf("%w: question", entity.ErrMissingField)
	}
	if req.Namespace != "" {
		if err := ValidateNamespace(req.Namespace); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) ValidateCreateUser(req *entity.CreateUserRequest) error {
	if req.ID == "" {
		return fmt.Errorf("%w: id", entity.ErrMissingField)
	}
	if req.Email == "" {
		return fmt.Errorf("%w: email", entity.ErrMissingField)
	}
	return nil
}

func (v *Validator) ValidateCreateChatbot(req *entity.CreateChatbotRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: name", entity.ErrMissingField)
	}
	return ValidateNamespace(req.Namespace)
}

// ValidateUpsertConversation checks roles and that turns alternate starting with the user
func (v *Validator) ValidateUpsertConversation(req *entity.UpsertConversationRequest) error {
	if err := ValidateNamespace(req.Namespace); err != nil {
		return err
	}
	if req.Temperature < 0 || req.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be within [0, 2]", entity.ErrInvalidParameter)
	}

	for i, m := range req.Messages {
		if err := m.Role.Validate(); err != nil {
			return fmt.Errorf("%w: message %d: %v", entity.ErrInvalidConversation, i, err)
		}
		want := entity.RoleUser
		if i%2 == 1 {
			want = entity.RoleAssistant
		}
		if m.Role != want {
			return fmt.Errorf("%w: message %d must be from %s", entity.ErrInvalidConversation, i, want)
		}
	}

	return nil
}

// ValidateIndexDocuments enforces the configured count and size limits
func (v *Validator) ValidateIndexDocuments(req *entity.IndexDocumentsRequest) error {
	if len(req.Documents) == 0 {
		return entity.ErrNoDocuments
	}
	if len(req.Documents) > v.cfg.MaxDocuments {
		return fmt.Errorf("%w: maximum %d documents allowed, got %d", entity.ErrTooManyDocuments, v.cfg.MaxDocuments, len(req.Documents))
	}

	for i, d := range req.Documents {
		if d.Content == "" {
			return fmt.Errorf("%w: documents[%d].content", entity.ErrMissingField, i)
		}
		if len(d.Content) > v.cfg.MaxDocumentSize {
			return fmt.Errorf("%w: document %d is %d bytes (max %d)", entity.ErrDocumentTooLarge, i, len(d.Content), v.cfg.MaxDocumentSize)
		}
	}

	return nil
}
