package app

import "fmt"

// Options are the process configuration, settable by flag or environment.
type Options struct {
	Addr string `short:"a" long:"addr" env:"GRAPHQL_MCP_ADDR" default:":4981" description:"listen address"`

	Endpoint string            `short:"e" long:"endpoint" env:"GRAPHQL_ENDPOINT" description:"GraphQL endpoint URL"`
	Headers  map[string]string `long:"header" env:"GRAPHQL_HEADERS" description:"extra header sent upstream, key:value"`

	SchemaLocation string `short:"s" long:"schema" env:"GRAPHQL_SCHEMA" description:"schema SDL location; introspected from the endpoint when empty"`
	AllowMutations bool   `long:"allow-mutations" env:"ALLOW_MUTATIONS" description:"allow query-graphql to execute mutations"`

	APIKey string `long:"api-key" env:"MCP_API_KEY" description:"shared secret clients must present; empty disables the check"`

	OpenAIBaseURL  string `long:"openai-base-url" env:"OPENAI_BASE_URL" description:"OpenAI-compatible embeddings service URL"`
	OpenAIAPIKey   string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"embeddings service credential"`
	EmbeddingModel string `long:"embedding-model" env:"EMBEDDING_MODEL" default:"text-embedding-3-small" description:"embedding model identifier"`

	QdrantHost   string `long:"qdrant-host" env:"QDRANT_HOST" default:"localhost" description:"Qdrant host"`
	QdrantPort   int    `long:"qdrant-port" env:"QDRANT_PORT" default:"6334" description:"Qdrant gRPC port"`
	QdrantAPIKey string `long:"qdrant-api-key" env:"QDRANT_API_KEY" description:"Qdrant credential"`
	QdrantUseTLS bool   `long:"qdrant-tls" env:"QDRANT_USE_TLS" description:"connect to Qdrant over TLS"`
	Collection   string `long:"collection" env:"QDRANT_COLLECTION" default:"graphql-schema" description:"Qdrant collection name"`

	TopK         int `long:"top-k" env:"SEARCH_TOP_K" default:"5" description:"default search result count"`
	ChunkSize    int `long:"chunk-size" env:"CHUNK_SIZE" default:"800" description:"target chunk size in characters"`
	ChunkOverlap int `long:"chunk-overlap" env:"CHUNK_OVERLAP" default:"80" description:"chunk overlap in characters"`

	Debug bool `long:"debug" env:"DEBUG" description:"verbose logging"`
}

// Validate rejects configurations the process cannot start with.
func (o *Options) Validate() error {
	if o.Endpoint == "" {
		return fmt.Errorf("graphql endpoint is required")
	}
	if o.ChunkSize <= 0 {
		return fmt.Errorf("chunk size %d must be positive", o.ChunkSize)
	}
	if o.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap %d must not be negative", o.ChunkOverlap)
	}
	if o.ChunkOverlap >= o.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", o.ChunkOverlap, o.ChunkSize)
	}
	return nil
}
