package vectorstore

import (
	"testing"

	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/stretchr/testify/assert"
)

func TestMerge_KeepsHigherScore(t *testing.T) {
	similar := []entity.RetrievedChunk{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.4},
	}
	keyword := []entity.RetrievedChunk{
		{ID: "b", Score: 0.7},
		{ID: "c", Score: 0.1},
	}

	merged := Merge(similar, keyword)

	assert.Len(t, merged, 3)
	scores := map[string]float64{}
	for _, c := range merged {
		scores[c.ID] = c.Score
	}
	assert.Equal(t, 0.9, scores["a"])
	assert.Equal(t, 0.7, scores["b"])
	assert.Equal(t, 0.1, scores["c"])
}

func TestRank_SortsAndTruncates(t *testing.T) {
	chunks := make([]entity.RetrievedChunk, 0, 12)
	for i := 0; i < 12; i++ {
		chunks = append(chunks, entity.RetrievedChunk{ID: string(rune('a' + i)), Score: float64(i)})
	}

	ranked := Rank(chunks, DefaultTopK)

	assert.Len(t, ranked, DefaultTopK)
	assert.Equal(t, "l", ranked[0].ID)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil, DefaultTopK))
}

func TestDocumentMetadata(t *testing.T) {
	doc := entity.Document{Title: "Guide", Metadata: map[string]string{"source": "wiki", entity.MetadataNamespace: "other"}}

	md := DocumentMetadata("acme", doc)

	assert.Equal(t, "acme", md[entity.MetadataNamespace])
	assert.Equal(t, "wiki", md["source"])
	assert.Equal(t, "Guide", md["title"])
	assert.Equal(t, "other", doc.Metadata[entity.MetadataNamespace], "input metadata must not be mutated")
}
