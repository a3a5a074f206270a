//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package markdown

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/road-core/rag-content/document/reader"
)

func TestMarkdownReader_Read_NoChunk(t *testing.T) {
	data := "# Title\n\nBody text."

	rdr := New(reader.WithChunk(false))

	docs, err := rdr.ReadFromReader("doc", strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Content != data {
		t.Errorf("content mismatch")
	}
	if rdr.Name() != "MarkdownReader" {
		t.Errorf("unexpected reader name %q", rdr.Name())
	}
}

func TestMarkdownReader_ChunksByHeaders(t *testing.T) {
	data := `# First

Some content in the first section that needs a few more words.

# Second

Content of the second section, also padded out a little bit here.`

	rdr := New(reader.WithChunkSize(70))

	docs, err := rdr.ReadFromReader("doc", strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) < 2 {
		t.Fatalf("expected header-based chunks, got %d document(s)", len(docs))
	}
}

func TestMarkdownReader_ReadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.md")
	if err := os.WriteFile(path, []byte("# Guide\n\ncontent"), 0o644); err != nil {
		t.Fatal(err)
	}

	rdr := New(reader.WithChunk(false))
	docs, err := rdr.ReadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Name != "guide" {
		t.Errorf("expected name 'guide', got %q", docs[0].Name)
	}
}

func TestMarkdownReader_SupportedExtensions(t *testing.T) {
	rdr := New()
	exts := rdr.SupportedExtensions()

	want := map[string]bool{".md": false, ".markdown": false}
	for _, ext := range exts {
		if _, ok := want[ext]; ok {
			want[ext] = true
		}
	}
	for ext, found := range want {
		if !found {
			t.Errorf("expected extension %q", ext)
		}
	}
}

func TestMarkdownReader_RegisteredInRegistry(t *testing.T) {
	r, ok := reader.GetReader(".md")
	if !ok {
		t.Fatal("markdown reader not registered for .md")
	}
	if r.Name() != "MarkdownReader" {
		t.Errorf("unexpected reader %q", r.Name())
	}
}
