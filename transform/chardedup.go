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
	"regexp"

	"github.com/road-core/rag-content/document"
)

// Verify interface compliance.
var _ Transformer = (*CharDedup)(nil)

// CharDedup collapses consecutive repeated characters or strings into a
// single occurrence. For example, "\n\n\n\n" becomes "\n" and "   "
// becomes " ".
type CharDedup struct {
	patterns     []*regexp.Regexp
	replacements []string
}

// NewCharDedup creates a CharDedup that collapses consecutive occurrences
// of the specified strings.
//
// Example:
//
//	dedup := transform.NewCharDedup("\n", " ")
func NewCharDedup(charsToDedup ...string) *CharDedup {
	patterns := make([]*regexp.Regexp, 0, len(charsToDedup))
	replacements := make([]string, 0, len(charsToDedup))
	for _, char := range charsToDedup {
		if char == "" {
			continue
		}
		escaped := regexp.QuoteMeta(char)
		patterns = append(patterns, regexp.MustCompile("("+escaped+"){2,}"))
		replacements = append(replacements, char)
	}
	return &CharDedup{
		patterns:     patterns,
		replacements: replacements,
	}
}

// Preprocess applies the deduplication to documents before chunking.
func (cd *CharDedup) Preprocess(docs []*document.Document) ([]*document.Document, error) {
	result := make([]*document.Document, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		content := doc.Content
		for i, pattern := range cd.patterns {
			content = pattern.ReplaceAllLiteralString(content, cd.replacements[i])
		}
		result = append(result, processedDoc(doc, content))
	}
	return result, nil
}

// Postprocess returns documents unchanged.
func (cd *CharDedup) Postprocess(docs []*document.Document) ([]*document.Document, error) {
	return docs, nil
}

// Name returns the name of this transformer.
func (cd *CharDedup) Name() string {
	return "CharDedup"
}
