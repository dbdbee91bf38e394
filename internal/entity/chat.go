package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// HistoryPair is a [userContent, assistantContent] pair fed to the
// condensation stage. It is never persisted in this form.
type HistoryPair [2]string

func (p HistoryPair) User() string      { return p[0] }
func (p HistoryPair) Assistant() string { return p[1] }

// BuildChatHistory pairs every even-indexed turn with the turn that follows
// it. The final turn is never the first element of a pair, so a trailing
// unanswered question is excluded.
func BuildChatHistory(messages []ChatTurn) []HistoryPair {
	pairs := make([]HistoryPair, 0, len(messages)/2)
	for i := 0; i < len(messages)-1; i += 2 {
		pairs = append(pairs, HistoryPair{messages[i].Content, messages[i+1].Content})
	}
	return pairs
}

// ChatRequest is the body of the streaming chat endpoint
type ChatRequest struct {
	Question    string        `json:"question"`
	ChatHistory []HistoryPair `json:"chat_history"`
	Namespace   string        `json:"namespace,omitempty"`
}

// UnmarshalJSON accepts the legacy "history" key as an alias of "chat_history"
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Question    string        `json:"question"`
		ChatHistory []HistoryPair `json:"chat_history"`
		History     []HistoryPair `json:"history"`
		Namespace   string        `json:"namespace"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Question = raw.Question
	r.Namespace = raw.Namespace
	r.ChatHistory = raw.ChatHistory
	if r.ChatHistory == nil {
		r.ChatHistory = raw.History
	}
	return nil
}

// SanitizeQuestion trims the question and replaces newlines with spaces
func SanitizeQuestion(question string) string {
	return strings.ReplaceAll(strings.TrimSpace(question), "\n", " ")
}

// FormatChatHistory renders pairs the way the condensation prompt expects them
func FormatChatHistory(history []HistoryPair) string {
	var sb strings.Builder
	for i, pair := range history {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Human: %s\nAssistant: %s", pair.User(), pair.Assistant())
	}
	return sb.String()
}

// StreamStatus is reported in the X-Stream-Status trailer of a chat response
type StreamStatus string

const (
	StreamStatusComplete StreamStatus = "complete"
	StreamStatusError    StreamStatus = "error"
	StreamStatusAborted  StreamStatus = "aborted"
)

const StreamStatusTrailer = "X-Stream-Status"
