//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package processor orchestrates the document-to-index pipeline: it loads
// documentation trees through the directory source, chunks them with the
// session chunking parameters, filters out degenerate chunks, embeds the
// survivors and persists the resulting vector index together with a
// metadata sidecar.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/road-core/rag-content/chunking"
	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/embedder"
	ollamaembedder "github.com/road-core/rag-content/embedder/ollama"
	openaiembedder "github.com/road-core/rag-content/embedder/openai"
	"github.com/road-core/rag-content/log"
	"github.com/road-core/rag-content/metadata"
	"github.com/road-core/rag-content/source"
	"github.com/road-core/rag-content/source/dir"
	"github.com/road-core/rag-content/vectorstore"
	"github.com/road-core/rag-content/vectorstore/flat"
	"github.com/road-core/rag-content/vectorstore/pgvector"
)

// dimensionProbeText is embedded once at construction to discover the
// output dimension of the configured embedding model.
const dimensionProbeText = "random text"

// metadataFile is the name of the index metadata sidecar.
const metadataFile = "metadata.json"

// DocumentProcessor accumulates validated document chunks across Process
// calls and turns them into one persisted vector index on Save. A processor
// owns its session state exclusively and expects sequential invocation:
// Process and Save must not be called concurrently, and Process after Save
// is a caller error.
type DocumentProcessor struct {
	config    Config
	embedder  embedder.Embedder
	store     vectorstore.VectorStore
	backend   string
	dimension int

	fixedChunking    chunking.Strategy
	markdownChunking chunking.Strategy

	goodNodes        []*document.TextNode
	numEmbeddedFiles int
	startTime        time.Time
}

// New resolves the session configuration into a ready processor: it builds
// the embedder, probes its output dimension and constructs the vector store
// sized to it. Configuration errors (unknown embedder or vector store type,
// unreachable backend) fail here, before any document is touched.
func New(cfg *Config, opts ...Option) (*DocumentProcessor, error) {
	var option options
	for _, opt := range opts {
		opt(&option)
	}

	var config Config
	if cfg != nil {
		config = *cfg
	}
	config = config.withDefaults()

	p := &DocumentProcessor{
		config: config,
		fixedChunking: chunking.NewFixedSizeChunking(
			chunking.WithChunkSize(config.ChunkSize),
			chunking.WithOverlap(config.ChunkOverlap),
		),
		markdownChunking: chunking.NewMarkdownChunking(
			chunking.WithMarkdownChunkSize(config.ChunkSize),
			chunking.WithMarkdownOverlap(config.ChunkOverlap),
		),
		startTime: time.Now(),
	}

	if option.embedder != nil {
		p.embedder = option.embedder
	} else {
		emb, err := NewEmbedder(config)
		if err != nil {
			return nil, err
		}
		p.embedder = emb
	}

	embedding, err := p.embedder.GetEmbedding(context.Background(), dimensionProbeText)
	if err != nil {
		return nil, fmt.Errorf("failed to probe embedding dimension: %w", err)
	}
	if len(embedding) == 0 {
		return nil, errors.New("embedding model returned an empty vector")
	}
	p.dimension = len(embedding)

	if option.vectorStore != nil {
		p.store = option.vectorStore
		p.backend = backendLabel(option.vectorStore, config.VectorStoreType)
	} else {
		store, label, err := buildVectorStore(config, p.dimension)
		if err != nil {
			return nil, err
		}
		p.store = store
		p.backend = label
	}

	log.Debugf("Document processor ready: embedder=%s, dimension=%d, vector store=%s",
		config.EmbedderType, p.dimension, p.backend)
	return p, nil
}

// NewEmbedder constructs the embedding backend selected by the config. It
// is exported so query tools can embed with the same model the index was
// built with, without going through a full document processor.
func NewEmbedder(config Config) (embedder.Embedder, error) {
	switch config.EmbedderType {
	case EmbedderOpenAI:
		var opts []openaiembedder.Option
		if config.ModelName != "" {
			opts = append(opts, openaiembedder.WithModel(config.ModelName))
		}
		if config.ModelBaseURL != "" {
			opts = append(opts, openaiembedder.WithBaseURL(config.ModelBaseURL))
		}
		return openaiembedder.New(opts...), nil
	case EmbedderOllama:
		var opts []ollamaembedder.Option
		if config.ModelName != "" {
			opts = append(opts, ollamaembedder.WithModel(config.ModelName))
		}
		if config.ModelBaseURL != "" {
			opts = append(opts, ollamaembedder.WithHost(config.ModelBaseURL))
		}
		return ollamaembedder.New(opts...), nil
	default:
		return nil, fmt.Errorf("invalid embedder type: %s", config.EmbedderType)
	}
}

// buildVectorStore constructs the storage backend selected by the config
// and returns it with its metadata label. The set of backends is closed;
// unknown types fail instead of silently falling back.
func buildVectorStore(config Config, dimension int) (vectorstore.VectorStore, string, error) {
	switch config.VectorStoreType {
	case VectorStoreFaiss:
		return flat.New(flat.WithDimension(dimension)), flat.BackendName, nil
	case VectorStorePostgres:
		opts := []pgvector.Option{pgvector.WithIndexDimension(dimension)}
		if config.TableName != "" {
			opts = append(opts, pgvector.WithTable(config.TableName))
		}
		if pg := config.Postgres; pg != nil {
			if pg.User != "" {
				opts = append(opts, pgvector.WithUser(pg.User))
			}
			if pg.Password != "" {
				opts = append(opts, pgvector.WithPassword(pg.Password))
			}
			if pg.Host != "" {
				opts = append(opts, pgvector.WithHost(pg.Host))
			}
			if pg.Port > 0 {
				opts = append(opts, pgvector.WithPort(pg.Port))
			}
			if pg.Database != "" {
				opts = append(opts, pgvector.WithDatabase(pg.Database))
			}
		}
		store, err := pgvector.New(opts...)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create pgvector store: %w", err)
		}
		return store, pgvector.BackendName, nil
	default:
		return nil, "", fmt.Errorf("invalid vector store type: %s", config.VectorStoreType)
	}
}

// backendLabel resolves the label recorded in the index metadata for an
// injected store.
func backendLabel(store vectorstore.VectorStore, storeType string) string {
	if backender, ok := store.(interface{ Backend() string }); ok {
		return backender.Backend()
	}
	return storeType
}

// Process loads every supported file under docsDir, populating per-file
// metadata through mp, chunks the resulting documents with the session
// chunking parameters and accumulates the valid chunks. It can be called
// multiple times against different directories before Save; later calls
// append their nodes after earlier ones.
func (p *DocumentProcessor) Process(ctx context.Context, docsDir string, mp *metadata.Processor, opts ...ProcessOption) error {
	var option processOptions
	for _, opt := range opts {
		opt(&option)
	}

	// Chunking happens below with the session parameters, so readers run
	// with chunking disabled and return whole-file documents.
	srcOpts := []dir.Option{
		dir.WithChunk(false),
		dir.WithNumWorkers(p.config.NumWorkers),
	}
	if mp != nil {
		srcOpts = append(srcOpts, dir.WithMetadataCallback(mp.Populate))
	}
	if len(option.requiredExtensions) > 0 {
		srcOpts = append(srcOpts, dir.WithRequiredExtensions(option.requiredExtensions))
	}
	for ext, rdr := range option.readerOverrides {
		srcOpts = append(srcOpts, dir.WithReaderOverride(ext, rdr))
	}
	if len(option.transformers) > 0 {
		srcOpts = append(srcOpts, dir.WithTransformers(option.transformers...))
	}

	docs, err := dir.New([]string{docsDir}, srcOpts...).ReadDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load documents from %s: %w", docsDir, err)
	}

	var nodes []document.Node
	for _, doc := range docs {
		chunks, err := p.chunkDocument(doc)
		if err != nil {
			log.Warnf("Failed to chunk document %s: %v", doc.Name, err)
			continue
		}
		nodes = append(nodes, chunks...)
	}

	goodNodes := filterValidNodes(nodes)
	p.goodNodes = append(p.goodNodes, goodNodes...)
	p.numEmbeddedFiles += len(docs)

	log.Infof("Processed %d documents from %s: %d nodes kept", len(docs), docsDir, len(goodNodes))
	return nil
}

// chunkDocument splits one document with the session chunking parameters.
// Markdown files go through header-aware chunking, everything else through
// fixed-size windows.
func (p *DocumentProcessor) chunkDocument(doc *document.Document) ([]document.Node, error) {
	ext, _ := doc.Metadata[source.MetaFileExt].(string)
	switch ext {
	case ".md", ".markdown":
		return p.markdownChunking.Chunk(doc)
	default:
		return p.fixedChunking.Chunk(doc)
	}
}

// NodeCount returns the number of valid nodes accumulated so far.
func (p *DocumentProcessor) NodeCount() int {
	return len(p.goodNodes)
}

// EmbeddedFileCount returns the number of documents loaded so far.
func (p *DocumentProcessor) EmbeddedFileCount() int {
	return p.numEmbeddedFiles
}

// Save embeds every accumulated node, tags the index with indexID and
// persists it to outputDir together with a metadata.json sidecar. The
// index is written first and the sidecar second, with no rollback in
// between: when persistence fails the output directory must be treated as
// inconsistent. Save is meant to be called once per processor; calling it
// again re-embeds and overwrites both artifacts, with execution time still
// measured from construction.
func (p *DocumentProcessor) Save(ctx context.Context, indexID, outputDir string) error {
	outputDir = sanitizeOutputDir(outputDir)
	if err := p.saveIndex(ctx, indexID, outputDir); err != nil {
		return err
	}
	return p.saveMetadata(indexID, outputDir)
}

// saveIndex embeds the accumulated nodes into the vector store and persists
// the store when it supports directory persistence.
func (p *DocumentProcessor) saveIndex(ctx context.Context, indexID, outputDir string) error {
	log.Infof("Building index %q with %d nodes", indexID, len(p.goodNodes))
	for _, node := range p.goodNodes {
		embedding, err := p.embedder.GetEmbedding(ctx, node.Text)
		if err != nil {
			return fmt.Errorf("failed to embed node %s: %w", node.ID, err)
		}
		if err := p.store.Add(ctx, node, embedding); err != nil {
			return fmt.Errorf("failed to store node %s: %w", node.ID, err)
		}
	}
	if tagger, ok := p.store.(interface{ SetIndexID(string) }); ok {
		tagger.SetIndexID(indexID)
	}
	if persister, ok := p.store.(vectorstore.Persister); ok {
		if err := persister.Persist(outputDir); err != nil {
			return fmt.Errorf("failed to persist index: %w", err)
		}
	}
	return nil
}

// indexMetadata is the metadata.json sidecar describing a persisted index.
type indexMetadata struct {
	ExecutionTime      float64 `json:"execution-time"`
	LLM                string  `json:"llm"`
	EmbeddingModel     string  `json:"embedding-model"`
	IndexID            string  `json:"index-id"`
	VectorDB           string  `json:"vector-db"`
	EmbeddingDimension int     `json:"embedding-dimension"`
	Chunk              int     `json:"chunk"`
	Overlap            int     `json:"overlap"`
	TotalEmbeddedFiles int     `json:"total-embedded-files"`
}

// saveMetadata writes the metadata.json sidecar next to the index.
func (p *DocumentProcessor) saveMetadata(indexID, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	metadata := indexMetadata{
		ExecutionTime:      time.Since(p.startTime).Seconds(),
		LLM:                "None",
		EmbeddingModel:     p.config.ModelName,
		IndexID:            indexID,
		VectorDB:           p.backend,
		EmbeddingDimension: p.dimension,
		Chunk:              p.config.ChunkSize,
		Overlap:            p.config.ChunkOverlap,
		TotalEmbeddedFiles: p.numEmbeddedFiles,
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal index metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, metadataFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write index metadata: %w", err)
	}
	return nil
}

// Close releases the vector store resources.
func (p *DocumentProcessor) Close() error {
	return p.store.Close()
}

// sanitizeOutputDir normalizes the output directory path, resolving ".."
// segments against an absolute root and trimming the leading separators so
// the artifacts always land in a directory relative to the working
// directory. An empty result degrades to ".".
func sanitizeOutputDir(dir string) string {
	sanitized := strings.TrimLeft(filepath.Clean("/"+dir), "/")
	if sanitized == "" {
		return "."
	}
	return sanitized
}
