//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package vectorstore provides interfaces and implementations for vector
// storage and retrieval.
package vectorstore

import (
	"context"

	"github.com/road-core/rag-content/document"
)

// SearchMode defines how a store matches documents for a query.
type SearchMode int

const (
	// SearchModeVector performs pure vector similarity search.
	SearchModeVector SearchMode = iota
	// SearchModeKeyword performs keyword search.
	SearchModeKeyword
	// SearchModeHybrid combines vector and keyword search.
	SearchModeHybrid
	// SearchModeFilter returns documents matching the filter only.
	SearchModeFilter
)

// VectorStore defines the interface for vector storage operations.
// Stores that do not support a requested search mode return an error
// naming the mode.
type VectorStore interface {
	// Add stores a node with its embedding vector. Adding an existing ID
	// replaces the stored node.
	Add(ctx context.Context, node *document.TextNode, embedding []float64) error

	// Search performs a search and returns scored results ordered by
	// descending score.
	Search(ctx context.Context, query *SearchQuery) (*SearchResult, error)

	// Count returns the number of stored nodes matching the options.
	Count(ctx context.Context, opts ...CountOption) (int, error)

	// DeleteByFilter removes nodes matching the delete options.
	DeleteByFilter(ctx context.Context, opts ...DeleteOption) error

	// Close releases resources held by the store.
	Close() error
}

// Persister is implemented by stores that serialize their contents to an
// output directory.
type Persister interface {
	Persist(dir string) error
}

// SearchQuery represents a search request.
type SearchQuery struct {
	// Vector is the query embedding for vector search.
	Vector []float64
	// Query is the raw query text, used by keyword and hybrid modes.
	Query string
	// Filter restricts candidates before scoring.
	Filter *SearchFilter
	// Limit caps the number of results. Non-positive means no limit.
	Limit int
	// MinScore drops results scoring below it.
	MinScore float64
	// SearchMode selects the matching strategy.
	SearchMode SearchMode
}

// SearchFilter restricts search candidates by ID and exact metadata match.
type SearchFilter struct {
	IDs      []string
	Metadata map[string]any
}

// ScoredNode pairs a stored node with its similarity score.
type ScoredNode struct {
	Node  *document.TextNode
	Score float64
}

// SearchResult holds the scored results of a search.
type SearchResult struct {
	Results []*ScoredNode
}

// DeleteConfig holds the configuration for delete operations.
type DeleteConfig struct {
	// DocumentIDs restricts the delete to the given IDs.
	DocumentIDs []string
	// Filter restricts the delete to nodes with matching metadata.
	Filter map[string]any
	// DeleteAll removes every stored node when true.
	DeleteAll bool
}

// DeleteOption configures a delete operation.
type DeleteOption func(*DeleteConfig)

// WithDeleteDocumentIDs restricts the delete to the given document IDs.
func WithDeleteDocumentIDs(ids []string) DeleteOption {
	return func(c *DeleteConfig) {
		c.DocumentIDs = ids
	}
}

// WithDeleteFilter restricts the delete to nodes whose metadata matches.
func WithDeleteFilter(filter map[string]any) DeleteOption {
	return func(c *DeleteConfig) {
		c.Filter = filter
	}
}

// WithDeleteAll removes all stored nodes.
func WithDeleteAll(deleteAll bool) DeleteOption {
	return func(c *DeleteConfig) {
		c.DeleteAll = deleteAll
	}
}

// ApplyDeleteOptions applies delete options and returns the configuration.
func ApplyDeleteOptions(opts ...DeleteOption) *DeleteConfig {
	config := &DeleteConfig{}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// CountConfig holds the configuration for count operations.
type CountConfig struct {
	// Filter restricts the count to nodes with matching metadata.
	Filter map[string]any
}

// CountOption configures a count operation.
type CountOption func(*CountConfig)

// WithCountFilter restricts the count to nodes whose metadata matches.
func WithCountFilter(filter map[string]any) CountOption {
	return func(c *CountConfig) {
		c.Filter = filter
	}
}

// ApplyCountOptions applies count options and returns the configuration.
func ApplyCountOptions(opts ...CountOption) *CountConfig {
	config := &CountConfig{}
	for _, opt := range opts {
		opt(config)
	}
	return config
}
