package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/project"
)

const collectionName = "components"

var tracer = otel.Tracer("github.com/fyrsmithlabs/airo/internal/memory")

// Embedder turns text into a vector. langchaingo embedders satisfy it.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// NewOllamaEmbedder embeds through the ollama server at host.
func NewOllamaEmbedder(host, model string) (Embedder, error) {
	llm, err := ollama.New(ollama.WithServerURL(host), ollama.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return embedder, nil
}

// ChromemStore keeps components in a persistent chromem-go database.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     *logging.Logger
}

// NewChromemStore opens (or creates) the database under path.
func NewChromemStore(path string, embedder Embedder, logger *logging.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	expanded, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", expanded, err)
	}

	db, err := chromem.NewPersistentDB(expanded, false)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}
	embed := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", collectionName, err)
	}

	logger.Debug(context.Background(), "component memory opened",
		zap.String("path", expanded),
		zap.Int("documents", collection.Count()),
	)
	return &ChromemStore{db: db, collection: collection, logger: logger}, nil
}

// New returns the store selected by cfg.
func New(cfg config.MemoryConfig, modelHost string, logger *logging.Logger) (Store, error) {
	if !cfg.Enabled {
		return NopStore{}, nil
	}
	embedder, err := NewOllamaEmbedder(modelHost, cfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	return NewChromemStore(cfg.Path, embedder, logger)
}

// Remember stores an artifact, replacing any earlier version of the same
// component within the project.
func (s *ChromemStore) Remember(ctx context.Context, projectID string, artifact project.Artifact) error {
	ctx, span := tracer.Start(ctx, "memory.remember")
	defer span.End()
	span.SetAttributes(attribute.String("component", artifact.Component))

	if strings.TrimSpace(artifact.Source) == "" {
		return nil
	}

	doc := chromem.Document{
		ID: projectID + "/" + artifact.Component,
		Metadata: map[string]string{
			"project_id": projectID,
			"component":  artifact.Component,
			"language":   string(artifact.Language),
			"filename":   artifact.Filename,
		},
		Content: artifact.Source,
	}
	if err := s.collection.AddDocument(ctx, doc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding document: %w", err)
	}
	return nil
}

// Related returns up to n remembered components most similar to query.
func (s *ChromemStore) Related(ctx context.Context, query string, n int) ([]Match, error) {
	ctx, span := tracer.Start(ctx, "memory.related")
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive, got %d", n)
	}

	// chromem requires nResults <= document count.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if n > count {
		n = count
	}

	results, err := s.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying components: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			ProjectID:  r.Metadata["project_id"],
			Component:  r.Metadata["component"],
			Language:   project.Language(r.Metadata["language"]),
			Filename:   r.Metadata["filename"],
			Source:     r.Content,
			Similarity: r.Similarity,
		}
	}
	span.SetAttributes(attribute.Int("results", len(matches)))
	return matches, nil
}

// Count returns the number of remembered components.
func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
