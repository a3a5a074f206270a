//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package pdf provides PDF document reader implementation.
// Only the text layer is extracted; scanned pages without a text layer
// produce empty documents.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/road-core/rag-content/chunking"
	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/document/reader"
	"github.com/road-core/rag-content/transform"
)

// supportedExtensions defines the file extensions supported by this reader.
var supportedExtensions = []string{".pdf"}

// init registers the PDF reader with the global registry.
func init() {
	reader.RegisterReader(supportedExtensions, New)
}

// Reader reads PDF documents and applies chunking strategies.
type Reader struct {
	chunk            bool
	chunkingStrategy chunking.Strategy
	transformers     []transform.Transformer
}

// New creates a new PDF reader with the given options.
// PDF reader uses fixed-size chunking by default.
func New(opts ...reader.Option) reader.Reader {
	config := &reader.Config{
		Chunk: true,
	}
	for _, opt := range opts {
		opt(config)
	}

	strategy := reader.BuildChunkingStrategy(config, buildDefaultChunkingStrategy)

	return &Reader{
		chunk:            config.Chunk,
		chunkingStrategy: strategy,
		transformers:     config.Transformers,
	}
}

// buildDefaultChunkingStrategy builds the default chunking strategy for the
// PDF reader.
func buildDefaultChunkingStrategy(chunkSize, overlap int) chunking.Strategy {
	var opts []chunking.Option
	if chunkSize > 0 {
		opts = append(opts, chunking.WithChunkSize(chunkSize))
	}
	if overlap > 0 {
		opts = append(opts, chunking.WithOverlap(overlap))
	}
	return chunking.NewFixedSizeChunking(opts...)
}

// ReadFromReader reads PDF content from an io.Reader and returns a list of documents.
func (r *Reader) ReadFromReader(name string, rd io.Reader) ([]*document.Document, error) {
	content, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF content: %w", err)
	}
	text, err := extractText(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	return r.process(document.New(text, name))
}

// ReadFromFile reads PDF content from a file path and returns a list of documents.
func (r *Reader) ReadFromFile(filePath string) ([]*document.Document, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	text, err := extractText(file, fileInfo.Size())
	if err != nil {
		return nil, err
	}

	fileName := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	return r.process(document.New(text, fileName))
}

// extractText parses the PDF held by rs and extracts its text layer.
func extractText(rs io.ReaderAt, size int64) (string, error) {
	pdfReader, err := pdf.NewReader(rs, size)
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}
	return extractTextFromPDFReader(pdfReader)
}

// extractTextFromPDFReader extracts text from all pages of the PDF.
// Pages without a text layer are skipped.
func extractTextFromPDFReader(pdfReader *pdf.Reader) (string, error) {
	var allText strings.Builder
	totalPages := pdfReader.NumPage()

	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := pdfReader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || text == "" {
			continue
		}
		if allText.Len() > 0 {
			allText.WriteString("\n")
		}
		allText.WriteString(text)
	}
	return allText.String(), nil
}

// process applies transformers and chunking to the freshly read document.
func (r *Reader) process(doc *document.Document) ([]*document.Document, error) {
	docs, err := transform.ApplyPreprocess([]*document.Document{doc}, r.transformers...)
	if err != nil {
		return nil, fmt.Errorf("failed to apply preprocess: %w", err)
	}

	if r.chunk {
		if r.chunkingStrategy == nil {
			r.chunkingStrategy = chunking.NewFixedSizeChunking()
		}
		docs, err = reader.ChunkDocuments(docs, r.chunkingStrategy)
		if err != nil {
			return nil, err
		}
	}

	docs, err = transform.ApplyPostprocess(docs, r.transformers...)
	if err != nil {
		return nil, fmt.Errorf("failed to apply postprocess: %w", err)
	}
	return docs, nil
}

// Name returns the name of this reader.
func (r *Reader) Name() string {
	return "PDFReader"
}

// SupportedExtensions returns the file extensions this reader supports.
func (r *Reader) SupportedExtensions() []string {
	return supportedExtensions
}
