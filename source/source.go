//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package source defines the interface for document sources.
package source

import (
	"context"

	"github.com/road-core/rag-content/document"
)

// Source types
const (
	TypeDir = "dir"
)

const metaPrefix = "rag_content_"

// Metadata keys attached by sources and chunking strategies.
const (
	MetaSource     = metaPrefix + "source"
	MetaSourceName = metaPrefix + "source_name"
	MetaFilePath   = metaPrefix + "file_path"
	MetaFileName   = metaPrefix + "file_name"
	MetaFileExt    = metaPrefix + "file_ext"
	MetaFileSize   = metaPrefix + "file_size"
	MetaModifiedAt = metaPrefix + "modified_at"
	MetaFileCount  = metaPrefix + "file_count"
	MetaChunkIndex = metaPrefix + "chunk_index"
	MetaChunkSize  = metaPrefix + "chunk_size"
	MetaHeaderPath = metaPrefix + "header_path"
)

// Source represents a document source that can provide documents.
type Source interface {
	// ReadDocuments reads and returns the documents of this source.
	ReadDocuments(ctx context.Context) ([]*document.Document, error)

	// Name returns a human-readable name for this source.
	Name() string

	// Type returns the type of this source (e.g., "dir").
	Type() string

	// GetMetadata returns the metadata associated with this source.
	GetMetadata() map[string]any
}
