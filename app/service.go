package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/viant/mcp-protocol/schema"
	"go.uber.org/zap"

	"github.com/gqlmcp/graphql-mcp/gql"
	"github.com/gqlmcp/graphql-mcp/retrieval"
	"github.com/gqlmcp/graphql-mcp/server"
	"github.com/gqlmcp/graphql-mcp/toolset"
)

// Service wires the retrieval pipeline, the GraphQL proxy and the protocol
// server from options.
type Service struct {
	options  *Options
	logger   *zap.Logger
	pipeline *retrieval.Pipeline
	source   gql.Source
	server   *server.Server
}

// New builds the service; any wiring failure is fatal to startup.
func New(ctx context.Context, options *Options) (*Service, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	logger, err := newLogger(options.Debug)
	if err != nil {
		return nil, err
	}

	var executorOptions []gql.ExecutorOption
	if len(options.Headers) > 0 {
		executorOptions = append(executorOptions, gql.WithHeaders(options.Headers))
	}
	executor := gql.NewExecutor(options.Endpoint, executorOptions...)

	embedder, err := retrieval.NewOpenAIEmbedder(retrieval.EmbedderConfig{
		BaseURL: options.OpenAIBaseURL,
		APIKey:  options.OpenAIAPIKey,
		Model:   options.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	index, err := retrieval.NewQdrantIndex(retrieval.QdrantConfig{
		Host:       options.QdrantHost,
		Port:       options.QdrantPort,
		APIKey:     options.QdrantAPIKey,
		UseTLS:     options.QdrantUseTLS,
		Collection: options.Collection,
	})
	if err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}
	pipeline := retrieval.NewPipeline(embedder, index, logger,
		retrieval.WithSplitter(newSplitter(options)),
		retrieval.WithDefaultTopK(options.TopK))

	source := gql.IntrospectionSource(executor)
	if options.SchemaLocation != "" {
		source = gql.FileSource(options.SchemaLocation)
	}

	tools := toolset.New(pipeline, executor,
		toolset.WithMutations(options.AllowMutations),
		toolset.WithLogger(logger))

	srv, err := server.New(
		server.WithNewToolset(tools.Factory()),
		server.WithImplementation(schema.Implementation{Name: "graphql-mcp", Version: "0.1.0"}),
		server.WithInstructions("Use search-schema to find relevant schema fragments, then query-graphql to execute queries."),
		server.WithAPIKey(options.APIKey),
		server.WithAddr(options.Addr),
		server.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &Service{
		options:  options,
		logger:   logger,
		pipeline: pipeline,
		source:   source,
		server:   srv,
	}, nil
}

// Reindex fetches the schema text and replaces the vector collection.
func (s *Service) Reindex(ctx context.Context) error {
	text, err := s.source(ctx)
	if err != nil {
		return fmt.Errorf("schema source: %w", err)
	}
	return s.pipeline.Reindex(ctx, text)
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then drains
// sessions and shuts down.
func (s *Service) ListenAndServe(ctx context.Context) error {
	httpServer := s.server.HTTP(ctx, s.options.Addr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.logger.Info("listening", zap.String("addr", httpServer.Addr))

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	s.server.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newSplitter applies the validated chunking options verbatim; zero overlap
// is a deliberate choice, not a request for the default.
func newSplitter(options *Options) *retrieval.Splitter {
	splitter := retrieval.NewSplitter()
	splitter.ChunkSize = options.ChunkSize
	splitter.ChunkOverlap = options.ChunkOverlap
	return splitter
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
