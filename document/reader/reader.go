//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package reader defines the interface for document readers.
// This interface allows reading from any io.Reader source, such as files.
package reader

import (
	"io"

	"github.com/road-core/rag-content/chunking"
	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/log"
	"github.com/road-core/rag-content/transform"
)

// Config holds configuration for readers.
type Config struct {
	Chunk                  bool
	ChunkSize              int
	ChunkOverlap           int
	CustomChunkingStrategy chunking.Strategy
	Transformers           []transform.Transformer
}

// Option is a functional option for configuring readers.
type Option func(*Config)

// WithChunk enables or disables document chunking.
func WithChunk(enabled bool) Option {
	return func(c *Config) {
		c.Chunk = enabled
	}
}

// WithChunkSize sets the chunk size for chunking strategies that support it.
// This will be passed to the reader's default chunking strategy builder.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		c.ChunkSize = size
		c.Chunk = true
	}
}

// WithChunkOverlap sets the chunk overlap for chunking strategies that support it.
// This will be passed to the reader's default chunking strategy builder.
func WithChunkOverlap(overlap int) Option {
	return func(c *Config) {
		c.ChunkOverlap = overlap
		c.Chunk = true
	}
}

// WithCustomChunkingStrategy sets a custom chunking strategy, overriding the
// reader's default. Use this when you need full control over the chunking
// behavior.
func WithCustomChunkingStrategy(strategy chunking.Strategy) Option {
	return func(c *Config) {
		c.CustomChunkingStrategy = strategy
		c.Chunk = true
	}
}

// WithTransformers sets transformers applied around chunking: Preprocess
// before, Postprocess after.
func WithTransformers(transformers ...transform.Transformer) Option {
	return func(c *Config) {
		c.Transformers = append(c.Transformers, transformers...)
	}
}

// BuildChunkingStrategy builds a chunking strategy from config.
// If a custom strategy is set, it returns that. Otherwise, it calls the
// provided default builder with chunk size/overlap parameters.
func BuildChunkingStrategy(config *Config, defaultBuilder func(chunkSize, overlap int) chunking.Strategy) chunking.Strategy {
	if config.CustomChunkingStrategy != nil {
		return config.CustomChunkingStrategy
	}
	return defaultBuilder(config.ChunkSize, config.ChunkOverlap)
}

// ChunkDocuments applies the strategy to each document and converts the
// resulting text nodes back into per-chunk documents. Image nodes carry no
// embeddable text and are dropped here; pipelines that need them chunk
// documents directly instead of going through a reader.
func ChunkDocuments(docs []*document.Document, strategy chunking.Strategy) ([]*document.Document, error) {
	var result []*document.Document
	for _, doc := range docs {
		nodes, err := strategy.Chunk(doc)
		if err != nil {
			return nil, err
		}
		for _, node := range nodes {
			tn, ok := node.(*document.TextNode)
			if !ok {
				log.Debugf("skipping non-text chunk %s of document %s", node.GetID(), doc.Name)
				continue
			}
			result = append(result, &document.Document{
				ID:        tn.ID,
				Name:      doc.Name,
				Content:   tn.Text,
				Metadata:  tn.Metadata,
				CreatedAt: doc.CreatedAt,
				UpdatedAt: doc.UpdatedAt,
			})
		}
	}
	return result, nil
}

// Reader interface for different document readers.
type Reader interface {
	// ReadFromReader reads content from an io.Reader and returns a list of documents.
	// The name parameter is used to identify the source (e.g., filename).
	ReadFromReader(name string, r io.Reader) ([]*document.Document, error)

	// ReadFromFile reads content from a file path and returns a list of documents.
	ReadFromFile(filePath string) ([]*document.Document, error)

	// Name returns the name of this reader.
	Name() string

	// SupportedExtensions returns the file extensions this reader supports.
	// Extensions should include the dot prefix (e.g., ".pdf", ".txt").
	SupportedExtensions() []string
}
