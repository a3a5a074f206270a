//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package markdown provides markdown document reader implementation.
package markdown

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
var supportedExtensions = []string{".md", ".markdown"}

// init registers the markdown reader with the global registry.
func init() {
	reader.RegisterReader(supportedExtensions, New)
}

// Reader reads markdown documents and applies chunking strategies.
type Reader struct {
	chunk            bool
	chunkingStrategy chunking.Strategy
	transformers     []transform.Transformer
}

// New creates a new markdown reader with the given options.
// Markdown reader uses header-aware markdown chunking by default.
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
// markdown reader.
func buildDefaultChunkingStrategy(chunkSize, overlap int) chunking.Strategy {
	var opts []chunking.MarkdownOption
	if chunkSize > 0 {
		opts = append(opts, chunking.WithMarkdownChunkSize(chunkSize))
	}
	if overlap > 0 {
		opts = append(opts, chunking.WithMarkdownOverlap(overlap))
	}
	return chunking.NewMarkdownChunking(opts...)
}

// ReadFromReader reads markdown content from an io.Reader and returns a list of documents.
func (r *Reader) ReadFromReader(name string, rd io.Reader) ([]*document.Document, error) {
	content, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	return r.process(document.New(string(content), name))
}

// ReadFromFile reads markdown content from a file path and returns a list of documents.
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
			r.chunkingStrategy = chunking.NewMarkdownChunking()
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
	return "MarkdownReader"
}

// SupportedExtensions returns the file extensions this reader supports.
func (r *Reader) SupportedExtensions() []string {
	return supportedExtensions
}
