package entity

import "errors"

// Domain errors
var (
	// Conversation errors
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidConversation  = errors.New("invalid conversation data")

	// Tenant errors
	ErrChatbotNotFound   = errors.New("chatbot not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrNamespaceRequired = errors.New("namespace is required")

	// Chat errors
	ErrNoQuestion = errors.New("no question in the request")

	// Streaming errors
	ErrStreamAborted = errors.New("stream aborted")
	ErrEmptyAnswer   = errors.New("language model returned an empty answer")

	// Document errors
	ErrNoDocuments      = errors.New("no documents provided")
	ErrDocumentTooLarge = errors.New("document too large")
	ErrTooManyDocuments = errors.New("too many documents")

	// Validation errors
	ErrMissingField      = errors.New("required field is missing")
	ErrInvalidFormat     = errors.New("invalid format")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrUnsupportedFormat = errors.New("unsupported format")
)
