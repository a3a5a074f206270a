//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package document defines the document and node types that flow through the
// ingestion pipeline: readers produce documents, chunking strategies split
// them into nodes, and vector stores persist the surviving nodes.
package document

import (
	"strings"
	"time"
)

// Document represents one raw unit of content loaded from a file.
// The loader attaches metadata at load time; afterwards the document is
// treated as immutable.
type Document struct {
	// ID is the unique identifier of the document.
	ID string

	// Name is a human-readable name, usually the file name without extension.
	Name string

	// Content is the full text content of the document.
	Content string

	// Metadata carries additional information about the document, such as
	// its source path and callback-provided keys.
	Metadata map[string]any

	// CreatedAt is the time when the document was created.
	CreatedAt time.Time

	// UpdatedAt is the time when the document was last updated.
	UpdatedAt time.Time
}

// IsEmpty reports whether the document content is empty or whitespace-only.
func (d *Document) IsEmpty() bool {
	return strings.TrimSpace(d.Content) == ""
}

// New creates a document with the given content and name, generating an ID
// and initializing empty metadata.
func New(content, name string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:        GenerateDocumentID(name, content),
		Name:      name,
		Content:   content,
		Metadata:  make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
