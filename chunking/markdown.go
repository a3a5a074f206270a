//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package chunking

import (
	"bytes"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/internal/encoding"
)

// Verify interface compliance.
var _ Strategy = (*MarkdownChunking)(nil)

// chunkCounter provides thread-safe sequential chunk numbering.
type chunkCounter struct {
	next int
	mu   sync.Mutex
}

// Next returns the next chunk number.
func (c *chunkCounter) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.next
	c.next++
	return n
}

// MarkdownChunking implements a chunking strategy for markdown documents.
// It splits along header boundaries first, falling back to paragraph
// merging and finally fixed-size splitting for oversized sections.
type MarkdownChunking struct {
	chunkSize int
	overlap   int
	md        goldmark.Markdown
}

// MarkdownOption represents a functional option for configuring MarkdownChunking.
type MarkdownOption func(*MarkdownChunking)

// WithMarkdownChunkSize sets the maximum size of each chunk in runes.
func WithMarkdownChunkSize(size int) MarkdownOption {
	return func(mc *MarkdownChunking) {
		mc.chunkSize = size
	}
}

// WithMarkdownOverlap sets the number of runes to overlap between chunks.
func WithMarkdownOverlap(overlap int) MarkdownOption {
	return func(mc *MarkdownChunking) {
		mc.overlap = overlap
	}
}

// NewMarkdownChunking creates a new markdown chunking strategy with options.
func NewMarkdownChunking(opts ...MarkdownOption) *MarkdownChunking {
	mc := &MarkdownChunking{
		chunkSize: defaultChunkSize,
		overlap:   defaultOverlap,
		md:        goldmark.New(),
	}
	for _, opt := range opts {
		opt(mc)
	}
	if mc.chunkSize <= 0 {
		mc.chunkSize = defaultChunkSize
	}
	if mc.overlap < 0 || mc.overlap >= mc.chunkSize {
		mc.overlap = min(defaultOverlap, mc.chunkSize-1)
	}
	return mc
}

// Chunk splits the document using markdown-aware chunking.
func (m *MarkdownChunking) Chunk(doc *document.Document) ([]document.Node, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if doc.IsEmpty() {
		return nil, ErrEmptyDocument
	}

	content := cleanText(doc.Content)

	// Small documents become a single node.
	if encoding.RuneCount(content) <= m.chunkSize {
		return []document.Node{newChunkNode(doc, content, 1, nil)}, nil
	}

	counter := &chunkCounter{next: 1}
	nodes := m.splitRecursively(content, doc, nil, counter)

	if m.overlap > 0 {
		nodes = m.applyOverlap(nodes)
	}
	return nodes, nil
}

// headerSection represents a section split off at a specific header level.
type headerSection struct {
	Header  string // the header line, e.g. "## Title"
	Content string // the content under this header
	Level   int    // header level 1-6, 0 for preamble content
	Title   string // header text without markers
}

// splitRecursively splits content by headers, then paragraphs, then fixed
// size, tracking the header path from the document root.
func (m *MarkdownChunking) splitRecursively(
	content string,
	originalDoc *document.Document,
	headerPath []string,
	counter *chunkCounter,
) []document.Node {
	if encoding.RuneCount(content) <= m.chunkSize {
		return []document.Node{newChunkNode(originalDoc, content, counter.Next(), headerPath)}
	}

	// Try splitting by headers from level 1 to 6.
	for level := 1; level <= 6; level++ {
		sections := m.splitByHeader(content, level)
		if len(sections) <= 1 {
			continue
		}

		var nodes []document.Node
		for _, section := range sections {
			if strings.TrimSpace(section.Content) == "" {
				continue
			}

			fullContent := section.Content
			if section.Header != "" {
				fullContent = section.Header + "\n\n" + section.Content
			}

			sectionPath := headerPath
			if section.Title != "" {
				sectionPath = append(append([]string{}, headerPath...), section.Title)
			}

			if encoding.RuneCount(fullContent) <= m.chunkSize {
				nodes = append(nodes, newChunkNode(originalDoc, fullContent, counter.Next(), sectionPath))
			} else {
				nodes = append(nodes, m.splitRecursively(fullContent, originalDoc, sectionPath, counter)...)
			}
		}
		return nodes
	}

	// No headers at any level: merge paragraphs into chunk-sized nodes.
	paragraphs := strings.Split(content, "\n\n")
	if len(paragraphs) > 1 {
		if nodes := m.mergeParagraphs(paragraphs, originalDoc, headerPath, counter); len(nodes) > 0 {
			return nodes
		}
	}

	// Terminal case: fixed-size split prevents unbounded recursion.
	var nodes []document.Node
	for _, piece := range encoding.SafeSplitBySize(content, m.chunkSize) {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		nodes = append(nodes, newChunkNode(originalDoc, piece, counter.Next(), headerPath))
	}
	return nodes
}

// splitByHeader splits content at ATX headers of the given level using the
// goldmark AST. An empty result means no headers exist at this level.
func (m *MarkdownChunking) splitByHeader(content string, level int) []headerSection {
	src := []byte(content)
	root := m.md.Parser().Parse(text.NewReader(src))

	var sections []headerSection
	lastPos := 0
	var open *headerSection

	ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok || heading.Level != level {
			return ast.WalkContinue, nil
		}

		title := extractText(heading, src)
		lineStart := headingLineStart(heading, src)
		if lineStart < lastPos {
			// Position recovery failed; clamp so ranges stay valid. The
			// resulting empty section is dropped below.
			lineStart = lastPos
		}

		if open != nil {
			open.Content = string(src[lastPos:lineStart])
			if strings.TrimSpace(open.Content) != "" {
				sections = append(sections, *open)
			}
		} else if lastPos == 0 && lineStart > 0 {
			// Preamble before the first header.
			before := string(src[:lineStart])
			if strings.TrimSpace(before) != "" {
				sections = append(sections, headerSection{Content: before})
			}
		}

		open = &headerSection{
			Header: strings.Repeat("#", level) + " " + title,
			Level:  level,
			Title:  title,
		}
		lastPos = headingContentStart(heading, src, lineStart)
		return ast.WalkContinue, nil
	})

	if open != nil {
		open.Content = string(src[lastPos:])
		if strings.TrimSpace(open.Content) != "" {
			sections = append(sections, *open)
		}
	}
	return sections
}

// headingLineStart returns the byte offset of the start of the heading
// line, including the # markers. Returns 0 when no position is available.
func headingLineStart(heading *ast.Heading, src []byte) int {
	var pos int
	if heading.Lines().Len() > 0 {
		pos = heading.Lines().At(0).Start
	} else {
		pos = firstTextSegmentStart(heading)
	}
	if pos < 0 {
		return 0
	}
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// headingContentStart returns the byte offset just after the heading line.
func headingContentStart(heading *ast.Heading, src []byte, lineStart int) int {
	if heading.Lines().Len() > 0 {
		pos := heading.Lines().At(heading.Lines().Len() - 1).Stop
		if pos < len(src) && src[pos] == '\n' {
			pos++
		}
		return pos
	}
	pos := lineStart
	for pos < len(src) && src[pos] != '\n' {
		pos++
	}
	if pos < len(src) {
		pos++
	}
	return pos
}

// firstTextSegmentStart finds the source offset of the first text segment
// under node. Returns -1 if the node has no text descendants.
func firstTextSegmentStart(node ast.Node) int {
	start := -1
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if textNode, ok := n.(*ast.Text); ok {
			start = textNode.Segment.Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return start
}

// extractText extracts the plain text content from an AST node.
func extractText(node ast.Node, src []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			buf.Write(v.Text(src))
		case *ast.String:
			buf.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// mergeParagraphs packs consecutive paragraphs into chunk-sized nodes.
func (m *MarkdownChunking) mergeParagraphs(
	paragraphs []string,
	originalDoc *document.Document,
	headerPath []string,
	counter *chunkCounter,
) []document.Node {
	var nodes []document.Node
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			nodes = append(nodes, newChunkNode(originalDoc, current.String(), counter.Next(), headerPath))
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		paraSize := encoding.RuneCount(para)
		currentSize := encoding.RuneCount(current.String())

		if currentSize > 0 && currentSize+paraSize+2 > m.chunkSize {
			flush()
		}

		if paraSize > m.chunkSize {
			flush()
			for _, piece := range encoding.SafeSplitBySize(para, m.chunkSize) {
				nodes = append(nodes, newChunkNode(originalDoc, piece, counter.Next(), headerPath))
			}
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return nodes
}

// applyOverlap prepends the tail of the previous text chunk to each text
// chunk. Image nodes pass through unchanged.
func (m *MarkdownChunking) applyOverlap(nodes []document.Node) []document.Node {
	if len(nodes) <= 1 {
		return nodes
	}

	out := []document.Node{nodes[0]}
	var prevText string
	if tn, ok := nodes[0].(*document.TextNode); ok {
		prevText = tn.Text
	}

	for i := 1; i < len(nodes); i++ {
		tn, ok := nodes[i].(*document.TextNode)
		if !ok {
			out = append(out, nodes[i])
			continue
		}

		tail := encoding.SafeOverlap(prevText, m.overlap)
		content := tn.Text
		if tail != "" {
			content = tail + "\n\n" + tn.Text
		}

		metadata := make(map[string]any, len(tn.Metadata))
		for k, v := range tn.Metadata {
			metadata[k] = v
		}
		metadata["overlapped_content_size"] = encoding.RuneCount(content)

		out = append(out, &document.TextNode{
			ID:          tn.ID,
			Text:        content,
			Metadata:    metadata,
			SourceDocID: tn.SourceDocID,
		})
		prevText = tn.Text
	}
	return out
}

// markdownImagePattern matches inline markdown image references.
var markdownImagePattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)[^)]*\)`)

// imageOnlyContent reports whether content consists solely of markdown
// image references (plus whitespace), returning the first image URI.
func imageOnlyContent(content string) (string, bool) {
	matches := markdownImagePattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return "", false
	}
	stripped := markdownImagePattern.ReplaceAllString(content, "")
	if strings.TrimSpace(stripped) != "" {
		return "", false
	}
	return matches[0][1], true
}
