//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package transform provides document content transformers applied around
// chunking: Preprocess runs on whole documents before they are split,
// Postprocess runs on the resulting pieces.
package transform

import (
	"time"

	"github.com/road-core/rag-content/document"
)

// Transformer mutates document content around the chunking step.
type Transformer interface {
	// Preprocess transforms documents before chunking.
	Preprocess(docs []*document.Document) ([]*document.Document, error)

	// Postprocess transforms documents after chunking.
	Postprocess(docs []*document.Document) ([]*document.Document, error)

	// Name returns the name of this transformer.
	Name() string
}

// ApplyPreprocess runs every transformer's Preprocess in order.
func ApplyPreprocess(docs []*document.Document, transformers ...Transformer) ([]*document.Document, error) {
	var err error
	for _, t := range transformers {
		docs, err = t.Preprocess(docs)
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// ApplyPostprocess runs every transformer's Postprocess in order.
func ApplyPostprocess(docs []*document.Document, transformers ...Transformer) ([]*document.Document, error) {
	var err error
	for _, t := range transformers {
		docs, err = t.Postprocess(docs)
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// processedDoc returns a copy of original carrying the transformed content.
// Metadata is copied so transformers never alias the original map.
func processedDoc(original *document.Document, content string) *document.Document {
	metadata := make(map[string]any, len(original.Metadata))
	for k, v := range original.Metadata {
		metadata[k] = v
	}
	return &document.Document{
		ID:        original.ID,
		Name:      original.Name,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: original.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
}
