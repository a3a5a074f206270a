//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package document

// Node is one unit produced by a chunking strategy and considered for
// storage in a vector index.
type Node interface {
	// GetID returns the unique identifier of the node.
	GetID() string

	// GetMetadata returns the metadata attached to the node.
	GetMetadata() map[string]any
}

// Verify that both node types implement the Node interface.
var (
	_ Node = (*TextNode)(nil)
	_ Node = (*ImageNode)(nil)
)

// TextNode is a text-bearing chunk of a document.
type TextNode struct {
	// ID is the unique identifier of the node.
	ID string

	// Text is the chunk content.
	Text string

	// Metadata carries the parent document metadata plus chunk-specific keys.
	Metadata map[string]any

	// SourceDocID is the ID of the document this node was chunked from.
	SourceDocID string
}

// GetID implements the Node interface.
func (n *TextNode) GetID() string { return n.ID }

// GetMetadata implements the Node interface.
func (n *TextNode) GetMetadata() map[string]any { return n.Metadata }

// ImageNode is a non-text chunk referencing an image extracted during
// markdown chunking. Image nodes carry no embeddable text and are filtered
// out before embedding.
type ImageNode struct {
	// ID is the unique identifier of the node.
	ID string

	// URI is the image location as written in the source document.
	URI string

	// Metadata carries the parent document metadata plus chunk-specific keys.
	Metadata map[string]any

	// SourceDocID is the ID of the document this node was chunked from.
	SourceDocID string
}

// GetID implements the Node interface.
func (n *ImageNode) GetID() string { return n.ID }

// GetMetadata implements the Node interface.
func (n *ImageNode) GetMetadata() map[string]any { return n.Metadata }
