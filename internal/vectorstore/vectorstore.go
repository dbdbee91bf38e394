package vectorstore

import (
	"context"
	"sort"

	"github.com/neuraltalk/chat-backend/internal/entity"
)

// DefaultTopK is the number of chunks handed to the answer stage
const DefaultTopK = 8

// Retriever returns the chunks most relevant to a query.
// A non-empty namespace restricts results to that tenant. An empty namespace searches everything.
type Retriever interface {
	Retrieve(ctx context.Context, query, namespace string) ([]entity.RetrievedChunk, error)
}

// Indexer writes documents into the index under a namespace
type Indexer interface {
	AddDocuments(ctx context.Context, namespace string, docs []entity.Document) error
	DeleteNamespace(ctx context.Context, namespace string) error
}

// Store is a backend that can both search and ingest
type Store interface {
	Retriever
	Indexer
}

// Embedder turns text into vectors
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Rank orders chunks by descending score and keeps at most k of them.
// Ties keep their incoming order.
func Rank(chunks []entity.RetrievedChunk, k int) []entity.RetrievedChunk {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})
	if k > 0 && len(chunks) > k {
		chunks = chunks[:k]
	}
	return chunks
}

// Merge combines result sets by chunk id, keeping the higher score of duplicates
func Merge(sets ...[]entity.RetrievedChunk) []entity.RetrievedChunk {
	index := make(map[string]int)
	var merged []entity.RetrievedChunk

	for _, set := range sets {
		for _, c := range set {
			if i, ok := index[c.ID]; ok {
				if c.Score > merged[i].Score {
					merged[i] = c
				}
				continue
			}
			index[c.ID] = len(merged)
			merged = append(merged, c)
		}
	}

	return merged
}

// NamespaceOf reads the namespace tag from chunk metadata
func NamespaceOf(metadata map[string]string) string {
	if metadata == nil {
		return ""
	}
	return metadata[entity.MetadataNamespace]
}

// DocumentMetadata copies doc metadata and stamps the namespace on it
func DocumentMetadata(namespace string, doc entity.Document) map[string]string {
	md := make(map[string]string, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		md[k] = v
	}
	if doc.Title != "" {
		md["title"] = doc.Title
	}
	md[entity.MetadataNamespace] = namespace
	return md
}
