package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alternating(n int) []ChatTurn {
	turns := make([]ChatTurn, 0, n)
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		turns = append(turns, ChatTurn{Role: role, Content: fmt.Sprintf("m%d", i)})
	}
	return turns
}

func TestBuildChatHistory_PairCount(t *testing.T) {
	for n := 0; n <= 9; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			history := BuildChatHistory(alternating(n))

			want := 0
			if n > 0 {
				want = (n - 1) / 2
			}
			require.Len(t, history, want)
			for k, pair := range history {
				i := 2 * k
				assert.Equal(t, fmt.Sprintf("m%d", i), pair.User())
				assert.Equal(t, fmt.Sprintf("m%d", i+1), pair.Assistant())
			}
		})
	}
}

func TestBuildChatHistory_ExcludesPendingQuestion(t *testing.T) {
	messages := []ChatTurn{
		{Role: RoleUser, Content: "what is go?"},
		{Role: RoleAssistant, Content: "a language"},
		{Role: RoleUser, Content: "who made it?"},
	}

	history := BuildChatHistory(messages)

	assert.Equal(t, []HistoryPair{{"what is go?", "a language"}}, history)
}

func TestNameFromMessage(t *testing.T) {
	long := strings.Repeat("abcdefghi ", 4) + "abcde"
	require.Len(t, long, 45)

	assert.Equal(t, long[:30]+"...", NameFromMessage(long))
	assert.Equal(t, "short text", NameFromMessage("short text"))
	assert.Equal(t, strings.Repeat("x", 30), NameFromMessage(strings.Repeat("x", 30)))
}

func TestNameFromMessage_CountsRunes(t *testing.T) {
	content := strings.Repeat("ж", 31)

	assert.Equal(t, strings.Repeat("ж", 30)+"...", NameFromMessage(content))
}

func TestChatRequest_UnmarshalJSON(t *testing.T) {
	t.Run("chat_history", func(t *testing.T) {
		var req ChatRequest
		err := json.Unmarshal([]byte(`{"question":"q","chat_history":[["a","b"]],"namespace":"acme"}`), &req)
		require.NoError(t, err)
		assert.Equal(t, "q", req.Question)
		assert.Equal(t, "acme", req.Namespace)
		assert.Equal(t, []HistoryPair{{"a", "b"}}, req.ChatHistory)
	})

	t.Run("legacy history key", func(t *testing.T) {
		var req ChatRequest
		err := json.Unmarshal([]byte(`{"question":"q","history":[["c","d"]]}`), &req)
		require.NoError(t, err)
		assert.Equal(t, []HistoryPair{{"c", "d"}}, req.ChatHistory)
		assert.Empty(t, req.Namespace)
	})

	t.Run("malformed", func(t *testing.T) {
		var req ChatRequest
		assert.Error(t, json.Unmarshal([]byte(`{"question":`), &req))
	})
}

func TestSanitizeQuestion(t *testing.T) {
	assert.Equal(t, "line one line two", SanitizeQuestion("  line one\nline two \n"))
}

func TestFormatChatHistory(t *testing.T) {
	got := FormatChatHistory([]HistoryPair{{"hi", "hello"}, {"how", "fine"}})

	assert.Equal(t, "Human: hi\nAssistant: hello\nHuman: how\nAssistant: fine", got)
}

func TestConversationClone(t *testing.T) {
	folder := "f1"
	original := Conversation{ID: "1", Messages: []ChatTurn{{Role: RoleUser, Content: "a"}}, FolderID: &folder}

	clone := original.Clone()
	clone.Messages[0].Content = "changed"
	*clone.FolderID = "f2"

	assert.Equal(t, "a", original.Messages[0].Content)
	assert.Equal(t, "f1", *original.FolderID)
}
