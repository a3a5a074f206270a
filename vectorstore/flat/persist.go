//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package flat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/road-core/rag-content/document"
)

const (
	vectorStoreFile = "vector_store.json"
	indexStoreFile  = "index_store.json"
)

// storeRecord is the persisted form of one stored node.
type storeRecord struct {
	ID          string         `json:"id"`
	Text        string         `json:"text"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	SourceDocID string         `json:"source_doc_id,omitempty"`
	Vector      []float64      `json:"vector"`
}

// storeSnapshot is the persisted form of the whole store.
type storeSnapshot struct {
	Records []storeRecord `json:"records"`
}

// indexManifest describes a persisted index. The requested index ID is
// checked against it on open.
type indexManifest struct {
	IndexID   string `json:"index-id"`
	Backend   string `json:"backend"`
	Dimension int    `json:"dimension"`
	Count     int    `json:"count"`
}

// Persist writes the store contents and the index manifest into dir.
func (s *Store) Persist(dir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	snapshot := storeSnapshot{Records: make([]storeRecord, 0, len(s.nodes))}
	for i, node := range s.nodes {
		snapshot.Records = append(snapshot.Records, storeRecord{
			ID:          node.ID,
			Text:        node.Text,
			Metadata:    node.Metadata,
			SourceDocID: node.SourceDocID,
			Vector:      s.vectors[i],
		})
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal vector store: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, vectorStoreFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write vector store: %w", err)
	}

	manifest := indexManifest{
		IndexID:   s.indexID,
		Backend:   BackendName,
		Dimension: s.dimension,
		Count:     len(s.nodes),
	}
	data, err = json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, indexStoreFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write index manifest: %w", err)
	}
	return nil
}

// Open loads a persisted store from dir and verifies that it holds the
// requested index.
func Open(dir, indexID string) (*Store, error) {
	data, err := os.ReadFile(filepath.Join(dir, indexStoreFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read index manifest: %w", err)
	}
	var manifest indexManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse index manifest: %w", err)
	}
	if manifest.IndexID != indexID {
		return nil, fmt.Errorf("index id mismatch: requested %q, found %q", indexID, manifest.IndexID)
	}

	data, err = os.ReadFile(filepath.Join(dir, vectorStoreFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read vector store: %w", err)
	}
	var snapshot storeSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse vector store: %w", err)
	}

	s := New(WithDimension(manifest.Dimension))
	s.indexID = manifest.IndexID
	for _, record := range snapshot.Records {
		if manifest.Dimension > 0 && len(record.Vector) != manifest.Dimension {
			return nil, fmt.Errorf("vector dimension mismatch for record %s: expected %d, got %d",
				record.ID, manifest.Dimension, len(record.Vector))
		}
		node := &document.TextNode{
			ID:          record.ID,
			Text:        record.Text,
			Metadata:    record.Metadata,
			SourceDocID: record.SourceDocID,
		}
		s.slots[node.ID] = len(s.nodes)
		s.nodes = append(s.nodes, node)
		s.vectors = append(s.vectors, record.Vector)
	}
	return s, nil
}
