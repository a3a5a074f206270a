//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package dir provides directory-based document source implementation.
package dir

import (
	"github.com/road-core/rag-content/chunking"
	"github.com/road-core/rag-content/document/reader"
	"github.com/road-core/rag-content/transform"
)

// Option represents a functional option for configuring directory sources.
type Option func(*Source)

// WithName sets the name of the directory source.
func WithName(name string) Option {
	return func(s *Source) {
		s.name = name
	}
}

// WithMetadata sets the metadata for the directory source.
// The metadata is attached to every document the source produces.
func WithMetadata(metadata map[string]any) Option {
	return func(s *Source) {
		for k, v := range metadata {
			s.metadata[k] = v
		}
	}
}

// WithMetadataValue adds a single metadata key-value pair.
func WithMetadataValue(key string, value any) Option {
	return func(s *Source) {
		if s.metadata == nil {
			s.metadata = make(map[string]any)
		}
		s.metadata[key] = value
	}
}

// WithRequiredExtensions restricts the source to files with the given
// extensions. Extensions are matched case-insensitively and may be given
// with or without the leading dot. When empty, every extension with a
// registered reader is accepted.
func WithRequiredExtensions(extensions []string) Option {
	return func(s *Source) {
		s.requiredExtensions = extensions
	}
}

// WithExcludePatterns sets glob patterns for files to skip. Patterns are
// matched against the slash-separated path relative to the walked root and
// support ** for matching across directories.
//
// Example:
//
//	source := dir.New(paths, dir.WithExcludePatterns("**/_attributes/**", "drafts/*.md"))
func WithExcludePatterns(patterns ...string) Option {
	return func(s *Source) {
		s.excludePatterns = append(s.excludePatterns, patterns...)
	}
}

// WithRecursive sets whether to process subdirectories recursively.
func WithRecursive(recursive bool) Option {
	return func(s *Source) {
		s.recursive = recursive
	}
}

// WithMetadataCallback sets a callback invoked once per file. The returned
// map is merged into the metadata of every document read from that file,
// after the file-level metadata, so callback values win on key collisions.
func WithMetadataCallback(callback func(filePath string) map[string]any) Option {
	return func(s *Source) {
		s.metadataCallback = callback
	}
}

// WithReaderOverride forces files with the given extension to be processed
// by the supplied reader instead of the one registered for the extension.
func WithReaderOverride(extension string, rd reader.Reader) Option {
	return func(s *Source) {
		if s.readerOverrides == nil {
			s.readerOverrides = make(map[string]reader.Reader)
		}
		s.readerOverrides[normalizeExtension(extension)] = rd
	}
}

// WithNumWorkers sets the number of workers used to read files concurrently.
// Values less than or equal to 1 read files sequentially.
func WithNumWorkers(numWorkers int) Option {
	return func(s *Source) {
		s.numWorkers = numWorkers
	}
}

// WithChunk sets whether readers split documents into chunks.
func WithChunk(chunk bool) Option {
	return func(s *Source) {
		s.chunk = chunk
	}
}

// WithChunkSize sets the chunk size for the reader's default chunking strategy.
func WithChunkSize(size int) Option {
	return func(s *Source) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets the chunk overlap for the reader's default chunking strategy.
func WithChunkOverlap(overlap int) Option {
	return func(s *Source) {
		s.chunkOverlap = overlap
	}
}

// WithCustomChunkingStrategy sets a custom chunking strategy for document splitting.
// This overrides the reader's default chunking strategy.
// Note: Most readers have their own optimal chunking strategy.
func WithCustomChunkingStrategy(strategy chunking.Strategy) Option {
	return func(s *Source) {
		s.customChunkingStrategy = strategy
	}
}

// WithTransformers sets transformers for document processing.
// Transformers are applied before and after chunking.
//
// Example:
//
//	source := dir.New(paths, dir.WithTransformers(
//	    transform.NewCharFilter("\n", "\t"),
//	    transform.NewCharDedup(" "),
//	))
func WithTransformers(transformers ...transform.Transformer) Option {
	return func(s *Source) {
		s.transformers = append(s.transformers, transformers...)
	}
}
