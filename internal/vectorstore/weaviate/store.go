package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/entity"
	pkgRetry "github.com/neuraltalk/chat-backend/internal/pkg/retry"
	"github.com/neuraltalk/chat-backend/internal/vectorstore"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.uber.org/zap"
)

const (
	propContent   = "content"
	propNamespace = "namespace"
	propTitle     = "title"

	batchSize = 100
)

var _ vectorstore.Store = &Store{}

type Config struct {
	Host       string
	Scheme     string
	APIKey     string
	Class      string
	TopK       int
	WriteRetry *pkgRetry.RetryConfig
}

// Store searches a weaviate class with client-side vectors (vectorizer "none")
type Store struct {
	client   *weaviate.Client
	embedder vectorstore.Embedder
	cfg      Config
	logger   *zap.Logger
}

func New(cfg Config, embedder vectorstore.Embedder, logger *zap.Logger) (*Store, error) {
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	if cfg.Class == "" {
		cfg.Class = "Document"
	}
	if cfg.TopK <= 0 {
		cfg.TopK = vectorstore.DefaultTopK
	}

	wcfg := weaviate.Config{
		Host:   cfg.Host,
		Scheme: cfg.Scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	return &Store{
		client:   client,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// EnsureSchema creates the document class when it does not exist yet
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.Schema().ClassGetter().WithClassName(s.cfg.Class).Do(ctx); err == nil {
		return nil
	}

	class := &models.Class{
		Class:       s.cfg.Class,
		Description: "Chunks of tenant documents used for retrieval",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: propContent, DataType: []string{"text"}},
			{Name: propNamespace, DataType: []string{"text"}, Tokenization: "field"},
			{Name: propTitle, DataType: []string{"text"}},
		},
	}

	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", s.cfg.Class, err)
	}

	ctxzap.Info(ctx, "weaviate class created", zap.String("class", s.cfg.Class))
	return nil
}

type getResponse struct {
	Get map[string][]struct {
		Content    string `json:"content"`
		Namespace  string `json:"namespace"`
		Title      string `json:"title"`
		Additional struct {
			ID        string  `json:"id"`
			Certainty float64 `json:"certainty"`
		} `json:"_additional"`
	} `json:"Get"`
}

func (s *Store) Retrieve(ctx context.Context, query, namespace string) ([]entity.RetrievedChunk, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	fields := []graphql.Field{
		{Name: propContent},
		{Name: propNamespace},
		{Name: propTitle},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "id"},
			{Name: "certainty"},
		}},
	}

	get := s.client.GraphQL().Get().
		WithClassName(s.cfg.Class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(s.cfg.TopK)

	if namespace != "" {
		get = get.WithWhere(namespaceWhere(namespace))
	}

	result, err := get.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search: %w", err)
	}
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("weaviate search: %s", strings.Join(msgs, "; "))
	}

	raw, err := json.Marshal(result.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal graphql data: %w", err)
	}
	var parsed getResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse graphql data: %w", err)
	}

	hits := parsed.Get[s.cfg.Class]
	chunks := make([]entity.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		md := map[string]string{entity.MetadataNamespace: h.Namespace}
		if h.Title != "" {
			md[propTitle] = h.Title
		}
		chunks = append(chunks, entity.RetrievedChunk{
			ID:        h.Additional.ID,
			Content:   h.Content,
			Score:     h.Additional.Certainty,
			Namespace: h.Namespace,
			Metadata:  md,
		})
	}

	return vectorstore.Rank(chunks, s.cfg.TopK), nil
}

func (s *Store) AddDocuments(ctx context.Context, namespace string, docs []entity.Document) error {
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Content
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed documents: %w", err)
		}

		objects := make([]*models.Object, len(batch))
		for i, d := range batch {
			id := d.ID
			if id == "" {
				id = uuid.NewString()
			}
			objects[i] = &models.Object{
				Class: s.cfg.Class,
				ID:    strfmt.UUID(id),
				Properties: map[string]any{
					propContent:   d.Content,
					propNamespace: namespace,
					propTitle:     d.Title,
				},
				Vector: vectors[i],
			}
		}

		err = pkgRetry.Do(ctx, s.cfg.WriteRetry, "weaviate batch", func(ctx context.Context) error {
			resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
			if err != nil {
				return err
			}
			for _, obj := range resp {
				if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
					return pkgRetry.Unrecoverable(fmt.Errorf("object %s: %s", obj.ID, obj.Result.Errors.Error[0].Message))
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("batch import: %w", err)
		}
	}

	ctxzap.Info(ctx, "documents indexed", zap.Int("count", len(docs)))
	return nil
}

func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	if namespace == "" {
		return entity.ErrNamespaceRequired
	}

	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(s.cfg.Class).
		WithWhere(namespaceWhere(namespace)).
		WithOutput("minimal").
		Do(ctx)
	if err != nil {
		return fmt.Errorf("delete by namespace: %w", err)
	}

	ctxzap.Info(ctx, "namespace documents deleted")
	return nil
}

func namespaceWhere(namespace string) *filters.WhereBuilder {
	return filters.Where().
		WithPath([]string{propNamespace}).
		WithOperator(filters.Equal).
		WithValueString(namespace)
}
