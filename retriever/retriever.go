//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package retriever turns a query string into scored chunks from a vector
// store: it embeds the query text and runs a vector similarity search,
// optionally dropping results under a score threshold.
package retriever

import (
	"context"
	"errors"
	"fmt"

	"github.com/road-core/rag-content/embedder"
	"github.com/road-core/rag-content/vectorstore"
)

// Query is a retrieval request.
type Query struct {
	// Text is the query text to embed and search with.
	Text string
	// Limit caps the number of returned nodes. Non-positive uses the
	// store default.
	Limit int
	// MinScore drops results scoring below it. Zero falls back to the
	// retriever-level threshold.
	MinScore float64
	// Filter restricts candidates before scoring.
	Filter *QueryFilter
}

// QueryFilter restricts retrieval to specific node IDs or metadata values.
type QueryFilter struct {
	DocumentIDs []string
	Metadata    map[string]any
}

// Result holds the scored nodes of one retrieval.
type Result struct {
	Nodes []*vectorstore.ScoredNode
}

// Retriever performs embed-then-search retrieval against a vector store.
type Retriever struct {
	embedder embedder.Embedder
	store    vectorstore.VectorStore
	minScore float64
}

// Option configures the retriever.
type Option func(*Retriever)

// WithEmbedder sets the embedder used for query texts.
func WithEmbedder(e embedder.Embedder) Option {
	return func(r *Retriever) {
		r.embedder = e
	}
}

// WithVectorStore sets the vector store searched for matching nodes.
func WithVectorStore(vs vectorstore.VectorStore) Option {
	return func(r *Retriever) {
		r.store = vs
	}
}

// WithMinScore sets the default similarity threshold applied to every
// query that does not carry its own.
func WithMinScore(score float64) Option {
	return func(r *Retriever) {
		r.minScore = score
	}
}

// New creates a retriever with the given options. An embedder and a vector
// store are required for Retrieve to succeed.
func New(opts ...Option) *Retriever {
	r := &Retriever{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve embeds the query text and returns the best-scoring stored nodes
// in descending score order.
func (r *Retriever) Retrieve(ctx context.Context, query *Query) (*Result, error) {
	if query == nil {
		return nil, errors.New("query is required")
	}
	if r.embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if r.store == nil {
		return nil, errors.New("vector store is required")
	}

	embedding, err := r.embedder.GetEmbedding(ctx, query.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	minScore := query.MinScore
	if minScore == 0 {
		minScore = r.minScore
	}

	searchQuery := &vectorstore.SearchQuery{
		Vector:     embedding,
		Query:      query.Text,
		Limit:      query.Limit,
		MinScore:   minScore,
		SearchMode: vectorstore.SearchModeVector,
	}
	if query.Filter != nil {
		searchQuery.Filter = &vectorstore.SearchFilter{
			IDs:      query.Filter.DocumentIDs,
			Metadata: query.Filter.Metadata,
		}
	}

	result, err := r.store.Search(ctx, searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}
	return &Result{Nodes: result.Results}, nil
}

// Close releases the underlying vector store resources.
func (r *Retriever) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}
