package chromem

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/vectorstore"
	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

var _ vectorstore.Store = &Store{}

type Config struct {
	// Path enables on-disk persistence; empty keeps the index in memory
	Path       string
	Compress   bool
	Collection string
	TopK       int
}

// Store keeps every namespace in one chromem collection, tagged through metadata
type Store struct {
	mu       sync.RWMutex
	db       *chromem.DB
	col      *chromem.Collection
	embedder vectorstore.Embedder
	topK     int
	logger   *zap.Logger
}

func New(cfg Config, embedder vectorstore.Embedder, logger *zap.Logger) (*Store, error) {
	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path != "" {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}
	if cfg.TopK <= 0 {
		cfg.TopK = vectorstore.DefaultTopK
	}

	embedFn := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}

	col, err := db.GetOrCreateCollection(cfg.Collection, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", cfg.Collection, err)
	}

	return &Store{
		db:       db,
		col:      col,
		embedder: embedder,
		topK:     cfg.TopK,
		logger:   logger,
	}, nil
}

func (s *Store) Retrieve(ctx context.Context, query, namespace string) ([]entity.RetrievedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.col.Count()
	if count == 0 {
		return nil, nil
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var where map[string]string
	if namespace != "" {
		where = map[string]string{entity.MetadataNamespace: namespace}
	}

	k := min(s.topK, count)

	var results []chromem.Result
	// A namespace filter can leave fewer candidates than k; step down until the query fits.
	for attemptK := k; attemptK > 0; attemptK-- {
		results, err = s.col.QueryEmbedding(ctx, embedding, attemptK, where, nil)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	chunks := make([]entity.RetrievedChunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, entity.RetrievedChunk{
			ID:        r.ID,
			Content:   r.Content,
			Score:     float64(r.Similarity),
			Namespace: vectorstore.NamespaceOf(r.Metadata),
			Metadata:  r.Metadata,
		})
	}

	return vectorstore.Rank(chunks, s.topK), nil
}

func (s *Store) AddDocuments(ctx context.Context, namespace string, docs []entity.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		chromemDocs[i] = chromem.Document{
			ID:        id,
			Content:   d.Content,
			Metadata:  vectorstore.DocumentMetadata(namespace, d),
			Embedding: vectors[i],
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.col.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}

	ctxzap.Info(ctx, "documents indexed", zap.Int("count", len(docs)), zap.Int("collection_size", s.col.Count()))
	return nil
}

func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	if namespace == "" {
		return entity.ErrNamespaceRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.col.Count() == 0 {
		return nil
	}

	if err := s.col.Delete(ctx, map[string]string{entity.MetadataNamespace: namespace}, nil); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}

	ctxzap.Info(ctx, "namespace documents deleted", zap.Int("collection_size", s.col.Count()))
	return nil
}
