//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package flat provides an in-memory vector store with exact inner-product
// search. The store serializes to a directory of JSON files so an index
// built offline can be shipped and reopened read-only.
package flat

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/vectorstore"
)

// BackendName identifies the flat inner-product index in persisted metadata.
const BackendName = "faiss.IndexFlatIP"

const defaultSearchLimit = 10

// Store is an in-memory flat vector index using exact inner-product scoring.
// All operations are safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	dimension int
	indexID   string
	slots     map[string]int
	nodes     []*document.TextNode
	vectors   [][]float64
}

var (
	_ vectorstore.VectorStore = (*Store)(nil)
	_ vectorstore.Persister   = (*Store)(nil)
)

// Option configures the flat store.
type Option func(*Store)

// WithDimension fixes the embedding dimension. Vectors of any other length
// are rejected by Add.
func WithDimension(dimension int) Option {
	return func(s *Store) {
		s.dimension = dimension
	}
}

// New creates an empty flat store. If no dimension is configured, the first
// added embedding fixes it.
func New(opts ...Option) *Store {
	s := &Store{
		slots: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetIndexID sets the index identifier recorded in the persisted manifest.
func (s *Store) SetIndexID(indexID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexID = indexID
}

// IndexID returns the index identifier.
func (s *Store) IndexID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexID
}

// Dimension returns the embedding dimension, or zero if not yet fixed.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Backend returns the backend label written to index metadata.
func (s *Store) Backend() string {
	return BackendName
}

// Add stores a node with its embedding. Adding an existing ID replaces the
// stored node and vector.
func (s *Store) Add(ctx context.Context, node *document.TextNode, embedding []float64) error {
	if node == nil {
		return errors.New("node is required")
	}
	if len(embedding) == 0 {
		return errors.New("embedding is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension == 0 {
		s.dimension = len(embedding)
	} else if len(embedding) != s.dimension {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}

	vector := make([]float64, len(embedding))
	copy(vector, embedding)

	if slot, ok := s.slots[node.ID]; ok {
		s.nodes[slot] = node
		s.vectors[slot] = vector
		return nil
	}

	s.slots[node.ID] = len(s.nodes)
	s.nodes = append(s.nodes, node)
	s.vectors = append(s.vectors, vector)
	return nil
}

// Search scores stored nodes against the query vector and returns results
// ordered by descending score.
func (s *Store) Search(ctx context.Context, query *vectorstore.SearchQuery) (*vectorstore.SearchResult, error) {
	if query == nil {
		return nil, errors.New("query is required")
	}

	switch query.SearchMode {
	case vectorstore.SearchModeVector:
		return s.searchVector(query)
	case vectorstore.SearchModeFilter:
		return s.searchFilter(query)
	case vectorstore.SearchModeKeyword:
		return nil, errors.New("keyword search is not supported by the flat store")
	case vectorstore.SearchModeHybrid:
		return nil, errors.New("hybrid search is not supported by the flat store")
	default:
		return nil, fmt.Errorf("unsupported search mode: %d", query.SearchMode)
	}
}

func (s *Store) searchVector(query *vectorstore.SearchQuery) (*vectorstore.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.nodes) == 0 {
		return &vectorstore.SearchResult{Results: []*vectorstore.ScoredNode{}}, nil
	}
	if len(query.Vector) == 0 {
		return nil, errors.New("empty query vector is not supported")
	}
	if len(query.Vector) != s.dimension {
		return nil, fmt.Errorf("query vector dimension mismatch: expected %d, got %d", s.dimension, len(query.Vector))
	}

	scored := make([]*vectorstore.ScoredNode, 0, len(s.nodes))
	for i, node := range s.nodes {
		if !s.matchesSearchFilter(node, query.Filter) {
			continue
		}
		score := innerProduct(query.Vector, s.vectors[i])
		if query.MinScore > 0 && score < query.MinScore {
			continue
		}
		scored = append(scored, &vectorstore.ScoredNode{Node: node, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return &vectorstore.SearchResult{Results: scored}, nil
}

func (s *Store) searchFilter(query *vectorstore.SearchQuery) (*vectorstore.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]*vectorstore.ScoredNode, 0)
	for _, node := range s.nodes {
		if !s.matchesSearchFilter(node, query.Filter) {
			continue
		}
		scored = append(scored, &vectorstore.ScoredNode{Node: node, Score: 1.0})
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return &vectorstore.SearchResult{Results: scored}, nil
}

// Count returns the number of stored nodes matching the count options.
func (s *Store) Count(ctx context.Context, opts ...vectorstore.CountOption) (int, error) {
	config := vectorstore.ApplyCountOptions(opts...)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(config.Filter) == 0 {
		return len(s.nodes), nil
	}
	count := 0
	for _, node := range s.nodes {
		if metadataMatches(node, config.Filter) {
			count++
		}
	}
	return count, nil
}

// DeleteByFilter removes nodes matching the delete options. At least one
// criterion is required.
func (s *Store) DeleteByFilter(ctx context.Context, opts ...vectorstore.DeleteOption) error {
	config := vectorstore.ApplyDeleteOptions(opts...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if config.DeleteAll {
		s.slots = make(map[string]int)
		s.nodes = nil
		s.vectors = nil
		return nil
	}
	if len(config.DocumentIDs) == 0 && len(config.Filter) == 0 {
		return errors.New("no delete criteria specified")
	}

	idSet := make(map[string]struct{}, len(config.DocumentIDs))
	for _, id := range config.DocumentIDs {
		idSet[id] = struct{}{}
	}

	keptNodes := make([]*document.TextNode, 0, len(s.nodes))
	keptVectors := make([][]float64, 0, len(s.vectors))
	slots := make(map[string]int)
	for i, node := range s.nodes {
		if s.shouldDelete(node, idSet, config.Filter) {
			continue
		}
		slots[node.ID] = len(keptNodes)
		keptNodes = append(keptNodes, node)
		keptVectors = append(keptVectors, s.vectors[i])
	}
	s.slots = slots
	s.nodes = keptNodes
	s.vectors = keptVectors
	return nil
}

// Close releases resources. The flat store holds none.
func (s *Store) Close() error {
	return nil
}

func (s *Store) shouldDelete(node *document.TextNode, idSet map[string]struct{}, filter map[string]any) bool {
	if len(idSet) > 0 {
		if _, ok := idSet[node.ID]; !ok {
			return false
		}
	}
	if len(filter) > 0 && !metadataMatches(node, filter) {
		return false
	}
	return true
}

func (s *Store) matchesSearchFilter(node *document.TextNode, filter *vectorstore.SearchFilter) bool {
	if filter == nil {
		return true
	}
	if len(filter.IDs) > 0 {
		found := false
		for _, id := range filter.IDs {
			if node.ID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return metadataMatches(node, filter.Metadata)
}

// metadataMatches reports whether the node metadata contains every filter
// key with an equal value.
func metadataMatches(node *document.TextNode, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := node.Metadata[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func innerProduct(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
