package builder

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neuraltalk/chat-backend/internal/chain"
	"github.com/neuraltalk/chat-backend/internal/config"
	"github.com/neuraltalk/chat-backend/internal/integration/embedding"
	"github.com/neuraltalk/chat-backend/internal/integration/llm"
	"github.com/neuraltalk/chat-backend/internal/pkg/logger"
	"github.com/neuraltalk/chat-backend/internal/repository"
	"github.com/neuraltalk/chat-backend/internal/store"
	"github.com/neuraltalk/chat-backend/internal/vectorstore"
	"github.com/neuraltalk/chat-backend/internal/vectorstore/chromem"
	"github.com/neuraltalk/chat-backend/internal/vectorstore/postgres"
	"github.com/neuraltalk/chat-backend/internal/vectorstore/weaviate"
	"go.uber.org/zap"
)

// components holds what every binary shares: configuration, logger and the optional database
type components struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *pgxpool.Pool
	closers []func(ctx context.Context) error
}

// needsDatabase decides from the configuration whether the binary talks to PostgreSQL
type needsDatabase func(cfg *config.Config) bool

// serverNeedsDatabase covers the vector backend, the store driver and the server-side routes
func serverNeedsDatabase(cfg *config.Config) bool {
	return cfg.NeedsDatabase()
}

// clientNeedsDatabase ignores the vector backend, which only the server uses
func clientNeedsDatabase(cfg *config.Config) bool {
	return cfg.StoreCfg.Driver == config.StoreDriverPostgres || cfg.DatabaseURL != ""
}

// configLoader reads the configuration. Servers parse -env themselves; the CLI passes its cobra flag.
type configLoader func() (*config.Config, error)

func newComponents(ctx context.Context, component string, load configLoader, needsDB needsDatabase) (*components, error) {
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	log = log.With(zap.String("component", component))

	log.Info("Building "+component,
		zap.String("environment", cfg.Environment),
		zap.Bool("mocks", cfg.EnableMocks),
	)

	db, err := openDatabase(ctx, cfg, needsDB(cfg), log)
	if err != nil {
		return nil, err
	}

	return &components{cfg: cfg, logger: log, db: db}, nil
}

// close releases resources in reverse order of acquisition
func (c *components) close(ctx context.Context) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			c.logger.Error("failed to release resource", zap.Error(err))
		}
	}
	if c.db != nil {
		c.logger.Info("Closing database connections")
		c.db.Close()
	}
	_ = c.logger.Sync()
}

func (c *components) languageModel() chain.LanguageModel {
	if c.cfg.EnableMocks {
		c.logger.Info("Using mock language model")
		return llm.NewMockConnector(c.logger)
	}
	return llm.NewConnector(c.cfg.OpenAICfg, c.cfg.ChainCfg.Temperature, c.logger)
}

func (c *components) embedder() vectorstore.Embedder {
	if c.cfg.EnableMocks {
		c.logger.Info("Using mock embedder")
		return embedding.NewMockConnector(c.cfg.VectorCfg.EmbeddingDims, c.logger)
	}
	return embedding.NewConnector(c.cfg.OpenAICfg, c.logger)
}

// vectorStore builds the configured retrieval backend
func (c *components) vectorStore(ctx context.Context) (vectorstore.Store, error) {
	vcfg := c.cfg.VectorCfg
	embedder := c.embedder()

	c.logger.Info("Initializing vector store", zap.String("backend", string(vcfg.Backend)))

	switch vcfg.Backend {
	case config.VectorBackendPostgres:
		return postgres.New(c.db, embedder, postgres.Config{
			SimilarityK: vcfg.TopK,
			KeywordK:    vcfg.KeywordK,
			TopK:        vcfg.TopK,
			WriteRetry:  &vcfg.WriteRetry,
		}, c.logger), nil

	case config.VectorBackendChromem:
		return chromem.New(chromem.Config{
			Path:       vcfg.ChromemPath,
			Compress:   vcfg.ChromemCompress,
			Collection: vcfg.CollectionPrefix,
			TopK:       vcfg.TopK,
		}, embedder, c.logger)

	case config.VectorBackendWeaviate:
		s, err := weaviate.New(weaviate.Config{
			Host:       vcfg.WeaviateHost,
			Scheme:     vcfg.WeaviateScheme,
			APIKey:     vcfg.WeaviateAPIKey,
			Class:      vcfg.WeaviateClass,
			TopK:       vcfg.TopK,
			WriteRetry: &vcfg.WriteRetry,
		}, embedder, c.logger)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure weaviate schema: %w", err)
		}
		return s, nil
	}

	return nil, fmt.Errorf("unknown vector backend %q", vcfg.Backend)
}

// conversationStore builds the client-side conversation store.
// The local store is flushed on close.
func (c *components) conversationStore() (store.ConversationStore, error) {
	scfg := c.cfg.StoreCfg

	switch scfg.Driver {
	case config.StoreDriverPostgres:
		c.logger.Info("Using PostgreSQL conversation store")
		return store.NewPostgresStore(repository.NewConversationPostgres(c.db), &scfg.Retry), nil

	case config.StoreDriverLocal:
		c.logger.Info("Using local conversation store", zap.String("file", scfg.File))
		s, err := store.NewLocalStore(scfg.File, &scfg.Retry, c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, s.Flush)
		return s, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", scfg.Driver)
}
