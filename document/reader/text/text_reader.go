//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package text provides plain text document reader implementation.
package text

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/road-core/rag-content/chunking"
	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/document/reader"
	"github.com/road-core/rag-content/transform"
)

// supportedExtensions defines the file extensions supported by this reader.
var supportedExtensions = []string{".txt", ".text"}

// init registers the text reader with the global registry.
func init() {
	reader.RegisterReader(supportedExtensions, New)
}

// Reader reads plain text documents and applies chunking strategies.
type Reader struct {
	chunk            bool
	chunkingStrategy chunking.Strategy
	transformers     []transform.Transformer
}

// New creates a new text reader with the given options.
// Text reader uses fixed-size chunking by default.
func New(opts ...reader.Option) reader.Reader {
	config := &reader.Config{
		Chunk: true,
	}
	for _, opt := range opts {
		opt(config)
	}

	strategy := reader.BuildChunkingStrategy(config, buildDefaultChunkingStrategy)

	return &Reader{
		chunk:            config.Chunk,
		chunkingStrategy: strategy,
		transformers:     config.Transformers,
	}
}

// buildDefaultChunkingStrategy builds the default chunking strategy for the
// text reader.
func buildDefaultChunkingStrategy(chunkSize, overlap int) chunking.Strategy {
	var opts []chunking.Option
	if chunkSize > 0 {
		opts = append(opts, chunking.WithChunkSize(chunkSize))
	}
	if overlap > 0 {
		opts = append(opts, chunking.WithOverlap(overlap))
	}
	return chunking.NewFixedSizeChunking(opts...)
}

// ReadFromReader reads text content from an io.Reader and returns a list of documents.
func (r *Reader) ReadFromReader(name string, rd io.Reader) ([]*document.Document, error) {
	content, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	return r.process(document.New(string(content), name))
}

// ReadFromFile reads text content from a file path and returns a list of documents.
func (r *Reader) ReadFromFile(filePath string) ([]*document.Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	fileName := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	return r.process(document.New(string(content), fileName))
}

// process applies transformers and chunking to the freshly read document.
func (r *Reader) process(doc *document.Document) ([]*document.Document, error) {
	docs, err := transform.ApplyPreprocess([]*document.Document{doc}, r.transformers...)
	if err != nil {
		return nil, fmt.Errorf("failed to apply preprocess: %w", err)
	}

	if r.chunk {
		if r.chunkingStrategy == nil {
			r.chunkingStrategy = chunking.NewFixedSizeChunking()
		}
		docs, err = reader.ChunkDocuments(docs, r.chunkingStrategy)
		if err != nil {
			return nil, err
		}
	}

	docs, err = transform.ApplyPostprocess(docs, r.transformers...)
	if err != nil {
		return nil, fmt.Errorf("failed to apply postprocess: %w", err)
	}
	return docs, nil
}

// Name returns the name of this reader.
func (r *Reader) Name() string {
	return "TextReader"
}

// SupportedExtensions returns the file extensions this reader supports.
func (r *Reader) SupportedExtensions() []string {
	return supportedExtensions
}
