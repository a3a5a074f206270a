//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package chunking provides document chunking strategies.
// A strategy splits one document into nodes: text chunks sized for
// embedding, plus image nodes for content that carries no embeddable text.
package chunking

import (
	"errors"
	"strings"

	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/internal/encoding"
	"github.com/road-core/rag-content/source"
)

// Chunking errors.
var (
	// ErrNilDocument is returned when the document to chunk is nil.
	ErrNilDocument = errors.New("document is nil")
	// ErrEmptyDocument is returned when the document content is empty or
	// whitespace-only.
	ErrEmptyDocument = errors.New("document content is empty")
)

// Default chunking parameters.
const (
	defaultChunkSize = 1024
	defaultOverlap   = 0
)

// Strategy splits a document into nodes.
type Strategy interface {
	// Chunk splits the document and returns the resulting nodes in
	// document order.
	Chunk(doc *document.Document) ([]document.Node, error)
}

// Verify interface compliance.
var _ Strategy = (*FixedSizeChunking)(nil)

// FixedSizeChunking splits documents into fixed-size rune windows with an
// optional overlap between consecutive windows.
type FixedSizeChunking struct {
	chunkSize int
	overlap   int
}

// Option is a functional option for configuring FixedSizeChunking.
type Option func(*FixedSizeChunking)

// WithChunkSize sets the maximum size of each chunk in runes.
func WithChunkSize(size int) Option {
	return func(fc *FixedSizeChunking) {
		fc.chunkSize = size
	}
}

// WithOverlap sets the number of runes shared between consecutive chunks.
func WithOverlap(overlap int) Option {
	return func(fc *FixedSizeChunking) {
		fc.overlap = overlap
	}
}

// NewFixedSizeChunking creates a fixed-size chunking strategy with options.
func NewFixedSizeChunking(opts ...Option) *FixedSizeChunking {
	fc := &FixedSizeChunking{
		chunkSize: defaultChunkSize,
		overlap:   defaultOverlap,
	}
	for _, opt := range opts {
		opt(fc)
	}
	if fc.chunkSize <= 0 {
		fc.chunkSize = defaultChunkSize
	}
	// Overlap must leave forward progress between windows.
	if fc.overlap < 0 || fc.overlap >= fc.chunkSize {
		fc.overlap = min(defaultOverlap, fc.chunkSize-1)
	}
	return fc
}

// Chunk splits the document into fixed-size windows.
func (fc *FixedSizeChunking) Chunk(doc *document.Document) ([]document.Node, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if doc.IsEmpty() {
		return nil, ErrEmptyDocument
	}

	content := cleanText(doc.Content)
	runes := []rune(content)
	step := fc.chunkSize - fc.overlap

	var nodes []document.Node
	index := 1
	for start := 0; start < len(runes); start += step {
		end := start + fc.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		text := string(runes[start:end])
		if strings.TrimSpace(text) != "" {
			nodes = append(nodes, newChunkNode(doc, text, index, nil))
			index++
		}
		if end == len(runes) {
			break
		}
	}
	return nodes, nil
}

// cleanText normalizes line endings so chunk boundaries are computed over a
// consistent representation.
func cleanText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.TrimSpace(content)
}

// newChunkNode builds the node for one chunk of doc. Chunks whose content
// is nothing but image references become image nodes; everything else is a
// text node.
func newChunkNode(doc *document.Document, content string, index int, headerPath []string) document.Node {
	metadata := make(map[string]any, len(doc.Metadata)+3)
	for k, v := range doc.Metadata {
		metadata[k] = v
	}
	metadata[source.MetaChunkIndex] = index
	metadata[source.MetaChunkSize] = encoding.RuneCount(content)
	if len(headerPath) > 0 {
		metadata[source.MetaHeaderPath] = strings.Join(headerPath, " > ")
	}

	parentID := doc.ID
	if parentID == "" {
		parentID = doc.Name
	}
	id := document.GenerateNodeID(parentID, index)

	if uri, ok := imageOnlyContent(content); ok {
		return &document.ImageNode{
			ID:          id,
			URI:         uri,
			Metadata:    metadata,
			SourceDocID: doc.ID,
		}
	}
	return &document.TextNode{
		ID:          id,
		Text:        content,
		Metadata:    metadata,
		SourceDocID: doc.ID,
	}
}
