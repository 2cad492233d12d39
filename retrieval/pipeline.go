package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// embedConcurrency caps in-flight embedding calls during a reindex.
	embedConcurrency = 3
	// DefaultTopK bounds a search when the caller does not pass k.
	DefaultTopK = 5
)

// Pipeline composes the splitter, embedder and vector index. Reindex
// replaces the whole collection; Search answers one question.
type Pipeline struct {
	splitter    *Splitter
	embedder    Embedder
	index       VectorIndex
	concurrency int
	defaultTopK int
	logger      *zap.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithSplitter overrides the default splitter.
func WithSplitter(splitter *Splitter) PipelineOption {
	return func(p *Pipeline) {
		p.splitter = splitter
	}
}

// WithConcurrency overrides the embedding fan-out bound.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithDefaultTopK overrides the default search result count.
func WithDefaultTopK(k int) PipelineOption {
	return func(p *Pipeline) {
		if k > 0 {
			p.defaultTopK = k
		}
	}
}

// NewPipeline creates a retrieval pipeline.
func NewPipeline(embedder Embedder, index VectorIndex, logger *zap.Logger, options ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		splitter:    NewSplitter(),
		embedder:    embedder,
		index:       index,
		concurrency: embedConcurrency,
		defaultTopK: DefaultTopK,
		logger:      logger,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Reindex splits schemaText, embeds every chunk with a bounded fan-out and
// replaces the collection with the survivors, keyed 0..N-1 in post-filter
// order. A chunk whose embedding fails is dropped without aborting the
// batch; the previous collection stays untouched unless at least one chunk
// survives.
func (p *Pipeline) Reindex(ctx context.Context, schemaText string) error {
	chunks := p.splitter.Split(schemaText)
	if len(chunks) == 0 {
		return fmt.Errorf("schema text produced no chunks")
	}

	vectors := make([][]float32, len(chunks))
	group := &errgroup.Group{}
	group.SetLimit(p.concurrency)
	for i, chunk := range chunks {
		group.Go(func() error {
			embedded, err := p.embedder.Generate(ctx, []string{chunk})
			if err != nil {
				p.logger.Warn("chunk embedding failed", zap.Int("chunk", i), zap.Error(err))
				return nil
			}
			if len(embedded) == 0 || len(embedded[0]) == 0 {
				p.logger.Warn("chunk embedding empty", zap.Int("chunk", i))
				return nil
			}
			vectors[i] = embedded[0]
			return nil
		})
	}
	_ = group.Wait()

	points := make([]Point, 0, len(chunks))
	for i, vector := range vectors {
		if vector == nil {
			continue
		}
		points = append(points, Point{Ordinal: uint64(len(points)), Text: chunks[i], Vector: vector})
	}
	if len(points) == 0 {
		return fmt.Errorf("no chunks could be embedded")
	}
	if dropped := len(chunks) - len(points); dropped > 0 {
		p.logger.Warn("chunks dropped from index", zap.Int("dropped", dropped), zap.Int("kept", len(points)))
	}

	dimensions := uint64(len(points[0].Vector))
	if err := p.index.Recreate(ctx, dimensions); err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	if err := p.index.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	p.logger.Info("schema reindexed",
		zap.Int("chunks", len(points)),
		zap.Uint64("dimensions", dimensions),
		zap.String("model", p.embedder.Model()))
	return nil
}

// Search embeds question and returns up to k chunk texts ordered by
// decreasing similarity. k <= 0 falls back to the default. Zero hits is a
// normal outcome, reported as an empty slice.
func (p *Pipeline) Search(ctx context.Context, question string, k int) ([]Hit, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question is empty")
	}
	if k <= 0 {
		k = p.defaultTopK
	}
	vectors, err := p.embedder.Generate(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedding service returned no vector")
	}
	hits, err := p.index.Search(ctx, vectors[0], uint64(k))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}
