package document

import (
	"context"
	"strings"
	"testing"

	"github.com/neuraltalk/chat-backend/internal/config"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIndexer struct {
	added   map[string][]entity.Document
	deleted []string
}

func (f *fakeIndexer) AddDocuments(ctx context.Context, namespace string, docs []entity.Document) error {
	f.added[namespace] = append(f.added[namespace], docs...)
	return nil
}

func (f *fakeIndexer) DeleteNamespace(ctx context.Context, namespace string) error {
	f.deleted = append(f.deleted, namespace)
	return nil
}

func newUsecase() (*DocumentUsecase, *fakeIndexer) {
	idx := &fakeIndexer{added: map[string][]entity.Document{}}
	v := validator.New(config.DocumentConfig{MaxDocuments: 4, MaxDocumentSize: 10_000})
	return NewUsecase(idx, v, Config{ChunkSize: 100, ChunkOverlap: 0}, zap.NewNop()), idx
}

func TestIndexDocuments_SplitsIntoChunks(t *testing.T) {
	uc, idx := newUsecase()

	para := strings.Repeat("word ", 15) // 75 bytes
	content := para + "\n\n" + para + "\n\n" + para

	resp, err := uc.IndexDocuments(context.Background(), "acme", &entity.IndexDocumentsRequest{
		Documents: []entity.Document{
			{ID: "handbook", Title: "Handbook", Content: content, Metadata: map[string]string{"lang": "en"}},
			{Title: "Short", Content: "tiny"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "acme", resp.Namespace)
	assert.Equal(t, 2, resp.Documents)
	assert.Equal(t, len(idx.added["acme"]), resp.Chunks)
	assert.Greater(t, resp.Chunks, 2)

	first := idx.added["acme"][0]
	assert.Equal(t, "Handbook", first.Title)
	assert.Equal(t, "en", first.Metadata["lang"])
	assert.Equal(t, "handbook", first.Metadata[metadataSource])
	assert.Equal(t, "0", first.Metadata[metadataChunk])
	for _, c := range idx.added["acme"] {
		assert.LessOrEqual(t, len(c.Content), 100)
	}
}

func TestIndexDocuments_StableChunkIDs(t *testing.T) {
	uc, idx := newUsecase()
	req := &entity.IndexDocumentsRequest{Documents: []entity.Document{{ID: "doc", Content: "hello"}}}

	_, err := uc.IndexDocuments(context.Background(), "acme", req)
	require.NoError(t, err)
	_, err = uc.IndexDocuments(context.Background(), "acme", req)
	require.NoError(t, err)

	require.Len(t, idx.added["acme"], 2)
	assert.Equal(t, idx.added["acme"][0].ID, idx.added["acme"][1].ID)
}

func TestIndexDocuments_Rejects(t *testing.T) {
	uc, idx := newUsecase()

	_, err := uc.IndexDocuments(context.Background(), "", &entity.IndexDocumentsRequest{})
	assert.ErrorIs(t, err, entity.ErrMissingField)

	_, err = uc.IndexDocuments(context.Background(), "acme", &entity.IndexDocumentsRequest{})
	assert.ErrorIs(t, err, entity.ErrNoDocuments)

	assert.Empty(t, idx.added)
}

func TestDeleteDocuments(t *testing.T) {
	uc, idx := newUsecase()

	require.NoError(t, uc.DeleteDocuments(context.Background(), "acme"))
	assert.Equal(t, []string{"acme"}, idx.deleted)

	assert.Error(t, uc.DeleteDocuments(context.Background(), "bad namespace"))
}
