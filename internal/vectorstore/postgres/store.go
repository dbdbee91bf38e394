package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neuraltalk/chat-backend/internal/entity"
	pkgRetry "github.com/neuraltalk/chat-backend/internal/pkg/retry"
	"github.com/neuraltalk/chat-backend/internal/vectorstore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	similarityQuery = `SELECT id::text, content, metadata, similarity FROM match_documents($1::vector, $2, $3::jsonb)`
	keywordQuery    = `SELECT id::text, content, metadata, similarity FROM kw_match_documents($1, $2, $3::jsonb)`
	insertDocument  = `INSERT INTO documents (id, content, metadata, embedding) VALUES ($1, $2, $3::jsonb, $4::vector)
		ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`
	deleteNamespace = `DELETE FROM documents WHERE metadata ->> 'namespace' = $1`

	embedBatchSize = 64
)

var _ vectorstore.Store = &Store{}

type Config struct {
	// SimilarityK and KeywordK bound each search before the merge
	SimilarityK int
	KeywordK    int
	TopK        int
	WriteRetry  *pkgRetry.RetryConfig
}

// Store is a hybrid retriever over a pgvector table: similarity and keyword
// searches run concurrently and are merged by chunk id.
type Store struct {
	db       *pgxpool.Pool
	embedder vectorstore.Embedder
	cfg      Config
	logger   *zap.Logger
}

func New(db *pgxpool.Pool, embedder vectorstore.Embedder, cfg Config, logger *zap.Logger) *Store {
	if cfg.TopK <= 0 {
		cfg.TopK = vectorstore.DefaultTopK
	}
	if cfg.SimilarityK <= 0 {
		cfg.SimilarityK = cfg.TopK
	}
	return &Store{
		db:       db,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *Store) Retrieve(ctx context.Context, query, namespace string) ([]entity.RetrievedChunk, error) {
	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	filter, err := namespaceFilter(namespace)
	if err != nil {
		return nil, err
	}

	var similar, keyword []entity.RetrievedChunk

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		similar, err = s.search(gctx, similarityQuery, vectorLiteral(embedding), s.cfg.SimilarityK, filter)
		if err != nil {
			return fmt.Errorf("similarity search: %w", err)
		}
		return nil
	})
	if s.cfg.KeywordK > 0 {
		g.Go(func() error {
			var err error
			keyword, err = s.search(gctx, keywordQuery, query, s.cfg.KeywordK, filter)
			if err != nil {
				return fmt.Errorf("keyword search: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	chunks := vectorstore.Rank(vectorstore.Merge(similar, keyword), s.cfg.TopK)

	ctxzap.Debug(ctx, "hybrid search finished",
		zap.Int("similarity_hits", len(similar)),
		zap.Int("keyword_hits", len(keyword)),
		zap.Int("returned", len(chunks)),
	)

	return chunks, nil
}

func (s *Store) search(ctx context.Context, sql string, arg any, k int, filter []byte) ([]entity.RetrievedChunk, error) {
	rows, err := s.db.Query(ctx, sql, arg, k, string(filter))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []entity.RetrievedChunk
	for rows.Next() {
		var (
			id, content string
			rawMeta     map[string]any
			score       float64
		)
		if err := rows.Scan(&id, &content, &rawMeta, &score); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		md := stringMetadata(rawMeta)
		chunks = append(chunks, entity.RetrievedChunk{
			ID:        id,
			Content:   content,
			Score:     score,
			Namespace: vectorstore.NamespaceOf(md),
			Metadata:  md,
		})
	}

	return chunks, rows.Err()
}

func (s *Store) AddDocuments(ctx context.Context, namespace string, docs []entity.Document) error {
	if len(docs) == 0 {
		return nil
	}

	for start := 0; start < len(docs); start += embedBatchSize {
		end := min(start+embedBatchSize, len(docs))
		batchDocs := docs[start:end]

		texts := make([]string, len(batchDocs))
		for i, d := range batchDocs {
			texts[i] = d.Content
		}

		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed documents: %w", err)
		}

		batch := &pgx.Batch{}
		for i, d := range batchDocs {
			id := d.ID
			if id == "" {
				id = uuid.NewString()
			}
			md, err := json.Marshal(vectorstore.DocumentMetadata(namespace, d))
			if err != nil {
				return fmt.Errorf("marshal metadata: %w", err)
			}
			batch.Queue(insertDocument, id, d.Content, string(md), vectorLiteral(vectors[i]))
		}

		err = pkgRetry.Do(ctx, s.cfg.WriteRetry, "insert documents", func(ctx context.Context) error {
			return s.db.SendBatch(ctx, batch).Close()
		})
		if err != nil {
			return fmt.Errorf("insert documents: %w", err)
		}
	}

	ctxzap.Info(ctx, "documents indexed", zap.Int("count", len(docs)))
	return nil
}

func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	if namespace == "" {
		return entity.ErrNamespaceRequired
	}

	tag, err := s.db.Exec(ctx, deleteNamespace, namespace)
	if err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}

	ctxzap.Info(ctx, "documents deleted", zap.Int64("count", tag.RowsAffected()))
	return nil
}

// namespaceFilter builds the jsonb containment filter; {} matches every row.
func namespaceFilter(namespace string) ([]byte, error) {
	filter := map[string]string{}
	if namespace != "" {
		filter[entity.MetadataNamespace] = namespace
	}
	b, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}
	return b, nil
}

// vectorLiteral renders a pgvector text literal such as [0.1,0.2]
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v) * 10)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func stringMetadata(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	md := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			md[k] = val
		default:
			md[k] = fmt.Sprint(val)
		}
	}
	return md
}
