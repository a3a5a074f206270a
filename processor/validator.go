//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package processor

import (
	"unicode"

	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/log"
)

// filterValidNodes keeps the text nodes whose content includes at least one
// whitespace rune. Whitespace-free chunks are extraction artifacts (stray
// tokens, separators) that pollute the index, and non-text nodes carry no
// embeddable content at all. Order-preserving; nodes are not mutated.
func filterValidNodes(nodes []document.Node) []*document.TextNode {
	goodNodes := make([]*document.TextNode, 0, len(nodes))
	for _, node := range nodes {
		if textNode, ok := node.(*document.TextNode); ok && hasWhitespace(textNode.Text) {
			goodNodes = append(goodNodes, textNode)
			continue
		}
		log.Debugf("Skipping node without whitespace: %#v", node)
	}
	return goodNodes
}

// hasWhitespace reports whether the text contains a whitespace rune.
func hasWhitespace(text string) bool {
	for _, r := range text {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
