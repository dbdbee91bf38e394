package document

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/validator"
	"github.com/neuraltalk/chat-backend/internal/vectorstore"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"
)

const (
	metadataChunk  = "chunk"
	metadataSource = "source_id"
)

var separators = []string{"\n\n", "\n", ". ", " ", ""}

type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// DocumentUsecase splits source documents into chunks and indexes them per namespace
type DocumentUsecase struct {
	indexer   vectorstore.Indexer
	splitter  textsplitter.TextSplitter
	validator *validator.Validator
	logger    *zap.Logger
}

func NewUsecase(indexer vectorstore.Indexer, validator *validator.Validator, cfg Config, logger *zap.Logger) *DocumentUsecase {
	return &DocumentUsecase{
		indexer: indexer,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
			textsplitter.WithSeparators(separators),
		),
		validator: validator,
		logger:    logger,
	}
}

func (uc *DocumentUsecase) IndexDocuments(
	ctx context.Context,
	namespace string,
	req *entity.IndexDocumentsRequest,
) (*entity.IndexDocumentsResponse, error) {
	if err := validator.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if err := uc.validator.ValidateIndexDocuments(req); err != nil {
		return nil, err
	}

	var chunks []entity.Document
	for _, doc := range req.Documents {
		docChunks, err := uc.split(doc)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, docChunks...)
	}

	if err := uc.indexer.AddDocuments(ctx, namespace, chunks); err != nil {
		return nil, fmt.Errorf("index documents: %w", err)
	}

	ctxzap.Info(ctx, "documents indexed",
		zap.Int("documents", len(req.Documents)),
		zap.Int("chunks", len(chunks)),
	)

	return &entity.IndexDocumentsResponse{
		Namespace: namespace,
		Documents: len(req.Documents),
		Chunks:    len(chunks),
	}, nil
}

func (uc *DocumentUsecase) DeleteDocuments(ctx context.Context, namespace string) error {
	if err := validator.ValidateNamespace(namespace); err != nil {
		return err
	}

	if err := uc.indexer.DeleteNamespace(ctx, namespace); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}

	ctxzap.Info(ctx, "namespace documents deleted")
	return nil
}

// split turns one document into chunks that share its title and metadata
func (uc *DocumentUsecase) split(doc entity.Document) ([]entity.Document, error) {
	parts, err := uc.splitter.SplitText(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("split document %q: %w", doc.Title, err)
	}

	sourceID := doc.ID
	if sourceID == "" {
		sourceID = uuid.New().String()
	}

	chunks := make([]entity.Document, 0, len(parts))
	for i, part := range parts {
		md := make(map[string]string, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			md[k] = v
		}
		md[metadataSource] = sourceID
		md[metadataChunk] = strconv.Itoa(i)

		chunks = append(chunks, entity.Document{
			ID:       uuid.NewSHA1(uuid.NameSpaceOID, []byte(sourceID+":"+strconv.Itoa(i))).String(),
			Title:    doc.Title,
			Content:  part,
			Metadata: md,
		})
	}

	return chunks, nil
}
