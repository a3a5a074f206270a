//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package transform

import (
	"strings"

	"github.com/road-core/rag-content/document"
)

// Verify interface compliance.
var _ Transformer = (*CharFilter)(nil)

// CharFilter removes specific characters or strings from document content.
// Useful for stripping control characters emitted by document converters.
type CharFilter struct {
	replacer *strings.Replacer
}

// NewCharFilter creates a CharFilter that removes the specified characters
// or strings.
//
// Example:
//
//	filter := transform.NewCharFilter("\r", "​")
func NewCharFilter(charsToRemove ...string) *CharFilter {
	args := make([]string, 0, len(charsToRemove)*2)
	for _, char := range charsToRemove {
		if char == "" {
			continue
		}
		args = append(args, char, "")
	}
	return &CharFilter{
		replacer: strings.NewReplacer(args...),
	}
}

// Preprocess applies the character filter to documents before chunking.
func (cf *CharFilter) Preprocess(docs []*document.Document) ([]*document.Document, error) {
	result := make([]*document.Document, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		result = append(result, processedDoc(doc, cf.replacer.Replace(doc.Content)))
	}
	return result, nil
}

// Postprocess returns documents unchanged.
func (cf *CharFilter) Postprocess(docs []*document.Document) ([]*document.Document, error) {
	return docs, nil
}

// Name returns the name of this transformer.
func (cf *CharFilter) Name() string {
	return "CharFilter"
}
