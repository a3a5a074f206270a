//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package processor

import (
	"github.com/road-core/rag-content/document/reader"
	"github.com/road-core/rag-content/embedder"
	"github.com/road-core/rag-content/transform"
	"github.com/road-core/rag-content/vectorstore"
)

// Embedder types accepted by the resolver.
const (
	// EmbedderOpenAI selects the OpenAI-compatible embedder. Point it at a
	// local inference server with ModelBaseURL to keep runs offline.
	EmbedderOpenAI = "openai"
	// EmbedderOllama selects the Ollama embedder.
	EmbedderOllama = "ollama"
)

// Vector store types accepted by the resolver.
const (
	// VectorStoreFaiss selects the in-process flat inner-product index.
	VectorStoreFaiss = "faiss"
	// VectorStorePostgres selects the pgvector-backed PostgreSQL store.
	VectorStorePostgres = "postgres"
)

// Default chunking parameters for documentation corpora.
const (
	DefaultChunkSize    = 380
	DefaultChunkOverlap = 0
)

// PostgresConfig holds the PostgreSQL connection parameters for the
// "postgres" vector store type. CLIs populate it from the POSTGRES_*
// environment variables at startup; the processor never reads the
// environment itself.
type PostgresConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
}

// Config is the immutable session configuration of a DocumentProcessor.
// It is consumed once at construction; later mutation has no effect.
type Config struct {
	// ChunkSize is the maximum chunk size in runes. Defaults to 380.
	ChunkSize int

	// ChunkOverlap is the number of runes shared between consecutive
	// chunks. Defaults to 0.
	ChunkOverlap int

	// ModelName is the embedding model name recorded in the index metadata
	// and requested from the embedding backend.
	ModelName string

	// EmbedderType selects the embedding backend: "openai" (default) or
	// "ollama".
	EmbedderType string

	// ModelBaseURL overrides the embedding API endpoint. Use it to target
	// a local OpenAI-compatible inference server.
	ModelBaseURL string

	// NumWorkers is the number of concurrent document loader workers.
	// Values less than or equal to 1 load files sequentially.
	NumWorkers int

	// VectorStoreType selects the storage backend: "faiss" (default) or
	// "postgres". Any other value is a configuration error.
	VectorStoreType string

	// TableName is the PostgreSQL table holding the index. Only used by
	// the "postgres" vector store type.
	TableName string

	// Postgres holds the connection parameters for the "postgres" vector
	// store type.
	Postgres *PostgresConfig
}

// withDefaults returns a copy of the config with unset fields defaulted.
func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.EmbedderType == "" {
		c.EmbedderType = EmbedderOpenAI
	}
	if c.VectorStoreType == "" {
		c.VectorStoreType = VectorStoreFaiss
	}
	return c
}

// Option represents a functional option for constructing a DocumentProcessor.
type Option func(*options)

type options struct {
	embedder    embedder.Embedder
	vectorStore vectorstore.VectorStore
}

// WithEmbedder injects an embedder instead of building one from the config.
func WithEmbedder(e embedder.Embedder) Option {
	return func(o *options) {
		o.embedder = e
	}
}

// WithVectorStore injects a vector store instead of building one from the
// config. The backend label is taken from the store when it exposes one.
func WithVectorStore(vs vectorstore.VectorStore) Option {
	return func(o *options) {
		o.vectorStore = vs
	}
}

// ProcessOption represents a functional option for one Process call.
type ProcessOption func(*processOptions)

type processOptions struct {
	requiredExtensions []string
	readerOverrides    map[string]reader.Reader
	transformers       []transform.Transformer
}

// WithRequiredExtensions restricts the call to files with the given
// extensions.
func WithRequiredExtensions(extensions ...string) ProcessOption {
	return func(o *processOptions) {
		o.requiredExtensions = append(o.requiredExtensions, extensions...)
	}
}

// WithReaderOverride forces files with the given extension through the
// supplied reader instead of the registered one. Used for runbooks read as
// flat text regardless of their markdown extension.
func WithReaderOverride(extension string, rd reader.Reader) ProcessOption {
	return func(o *processOptions) {
		if o.readerOverrides == nil {
			o.readerOverrides = make(map[string]reader.Reader)
		}
		o.readerOverrides[extension] = rd
	}
}

// WithTransformers applies document transformers around reading, e.g. to
// clean up converter artifacts before chunking.
func WithTransformers(transformers ...transform.Transformer) ProcessOption {
	return func(o *processOptions) {
		o.transformers = append(o.transformers, transformers...)
	}
}
