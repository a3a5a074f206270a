//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package pdf

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"

	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/document/reader"
)

// newTestPDF programmatically generates a small PDF containing the text
// "Hello World" using fpdf. Generating ensures the file is well-formed
// and parsable by ledongthuc/pdf, avoiding brittle handcrafted bytes.
func newTestPDF(t *testing.T) []byte {
	t.Helper()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Cell(40, 10, "Hello World")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("failed to generate test PDF: %v", err)
	}
	return buf.Bytes()
}

func TestReader_ReadFromReader(t *testing.T) {
	data := newTestPDF(t)

	rdr := New(reader.WithChunk(false))
	docs, err := rdr.ReadFromReader("sample", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadFromReader failed: %v", err)
	}
	if len(docs) == 0 {
		t.Fatalf("expected at least one document, got 0")
	}
	if !strings.Contains(docs[0].Content, "Hello World") {
		t.Fatalf("extracted content does not contain expected text; got: %q", docs[0].Content)
	}
}

func TestReader_ReadFromFile(t *testing.T) {
	data := newTestPDF(t)

	path := filepath.Join(t.TempDir(), "sample.pdf")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	rdr := New(reader.WithChunk(false))
	docs, err := rdr.ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile failed: %v", err)
	}
	if len(docs) == 0 {
		t.Fatalf("expected at least one document, got 0")
	}
	if docs[0].Name != "sample" {
		t.Fatalf("unexpected document name: %s", docs[0].Name)
	}
	if !strings.Contains(docs[0].Content, "Hello World") {
		t.Fatalf("extracted content does not contain expected text; got: %q", docs[0].Content)
	}
}

// errChunker always fails, used to exercise the error path.
type errChunker struct{}

func (errChunker) Chunk(doc *document.Document) ([]document.Node, error) {
	return nil, errors.New("chunk err")
}

func TestReader_ChunkError(t *testing.T) {
	data := newTestPDF(t)
	rdr := New(reader.WithCustomChunkingStrategy(errChunker{}))
	_, err := rdr.ReadFromReader("x", bytes.NewReader(data))
	if err == nil {
		t.Fatalf("expected chunk error")
	}
}

func TestReader_ErrorHandling(t *testing.T) {
	rdr := New(reader.WithChunk(false))

	invalidData := []byte("not a pdf")
	if _, err := rdr.ReadFromReader("invalid", bytes.NewReader(invalidData)); err == nil {
		t.Fatalf("expected error for invalid PDF data")
	}

	if _, err := rdr.ReadFromFile("/non/existent/file.pdf"); err == nil {
		t.Fatalf("expected error for non-existent file")
	}
}

func TestReader_Helpers(t *testing.T) {
	rdr := New().(*Reader)
	if rdr.Name() != "PDFReader" {
		t.Fatalf("Name() mismatch")
	}
	exts := rdr.SupportedExtensions()
	if len(exts) != 1 || exts[0] != ".pdf" {
		t.Fatalf("unexpected supported extensions: %v", exts)
	}
}

func TestReader_RegisteredInRegistry(t *testing.T) {
	if _, ok := reader.GetReader(".pdf"); !ok {
		t.Fatalf("expected .pdf to be registered")
	}
}
