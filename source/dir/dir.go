//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package dir

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/panjf2000/ants/v2"

	"github.com/road-core/rag-content/chunking"
	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/document/reader"
	"github.com/road-core/rag-content/log"
	"github.com/road-core/rag-content/source"
	"github.com/road-core/rag-content/transform"

	// Import readers to trigger their init() functions for registration.
	_ "github.com/road-core/rag-content/document/reader/markdown"
	_ "github.com/road-core/rag-content/document/reader/pdf"
	_ "github.com/road-core/rag-content/document/reader/text"
)

const defaultName = "directory_source"

// Source implements the source.Source interface for local directory trees.
// Roots may name directories or individual files; directories are walked in
// lexical order so repeated runs produce documents in a stable order.
type Source struct {
	roots                  []string
	name                   string
	metadata               map[string]any
	recursive              bool
	requiredExtensions     []string
	excludePatterns        []string
	metadataCallback       func(filePath string) map[string]any
	readerOverrides        map[string]reader.Reader
	numWorkers             int
	chunk                  bool
	chunkSize              int
	chunkOverlap           int
	customChunkingStrategy chunking.Strategy
	transformers           []transform.Transformer

	mu        sync.Mutex
	fileCount int
}

var _ source.Source = (*Source)(nil)

// New creates a new directory source with the given root paths and options.
func New(roots []string, opts ...Option) *Source {
	s := &Source{
		roots:     roots,
		name:      defaultName,
		metadata:  make(map[string]any),
		recursive: true,
		chunk:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the name of the source.
func (s *Source) Name() string {
	return s.name
}

// Type returns the type of the source.
func (s *Source) Type() string {
	return source.TypeDir
}

// ReadDocuments walks the configured roots and reads every matching file
// through its registered reader.
func (s *Source) ReadDocuments(ctx context.Context) ([]*document.Document, error) {
	files, err := s.collectFiles()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.fileCount = len(files)
	s.mu.Unlock()

	if len(files) == 0 {
		return nil, nil
	}
	if s.numWorkers > 1 {
		return s.readFilesParallel(ctx, files)
	}
	return s.readFilesSerial(ctx, files)
}

// GetMetadata returns the source-level metadata, including the number of
// files found by the last ReadDocuments call.
func (s *Source) GetMetadata() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	metadata := make(map[string]any, len(s.metadata)+1)
	for k, v := range s.metadata {
		metadata[k] = v
	}
	metadata[source.MetaFileCount] = s.fileCount
	return metadata
}

// collectFiles gathers all candidate file paths under the roots in a
// deterministic order.
func (s *Source) collectFiles() ([]string, error) {
	supported, err := s.supportedExtensions()
	if err != nil {
		return nil, err
	}

	var files []string
	for _, root := range s.roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to access path %s: %w", root, err)
		}
		if !info.IsDir() {
			if s.isCandidate(filepath.Dir(root), root, supported) {
				files = append(files, root)
			}
			continue
		}
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if !s.recursive && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if s.isCandidate(root, path, supported) {
				files = append(files, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("failed to walk directory %s: %w", root, walkErr)
		}
	}
	sort.Strings(files)
	return files, nil
}

// supportedExtensions returns the set of extensions this source accepts.
func (s *Source) supportedExtensions() (map[string]bool, error) {
	supported := make(map[string]bool)
	if len(s.requiredExtensions) > 0 {
		for _, ext := range s.requiredExtensions {
			supported[normalizeExtension(ext)] = true
		}
		return supported, nil
	}
	registered := reader.GetRegisteredExtensions()
	if len(registered) == 0 {
		return nil, fmt.Errorf("no document readers registered")
	}
	for _, ext := range registered {
		supported[ext] = true
	}
	return supported, nil
}

// isCandidate reports whether path should be read.
func (s *Source) isCandidate(root, path string, supported map[string]bool) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if !supported[ext] {
		log.Debugf("Skipping file with unsupported extension: %s", path)
		return false
	}
	if s.isExcluded(root, path) {
		log.Debugf("Skipping excluded file: %s", path)
		return false
	}
	return true
}

// isExcluded matches the path (relative to root, slash-separated) against
// the exclude patterns.
func (s *Source) isExcluded(root, path string) bool {
	if len(s.excludePatterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.excludePatterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// readFilesSerial reads files one at a time preserving walk order.
func (s *Source) readFilesSerial(ctx context.Context, files []string) ([]*document.Document, error) {
	var docs []*document.Document
	for _, filePath := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		docs = append(docs, s.readFile(filePath)...)
	}
	return docs, nil
}

// readFilesParallel fans file reads out to a worker pool. Results land in
// indexed slots so document order still follows walk order.
func (s *Source) readFilesParallel(ctx context.Context, files []string) ([]*document.Document, error) {
	pool, err := ants.NewPool(s.numWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to create file worker pool: %w", err)
	}
	defer pool.Release()

	results := make([][]*document.Document, len(files))
	var wg sync.WaitGroup
	for i, filePath := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		wg.Add(1)
		// Capture loop variables for the closure.
		idx := i
		path := filePath
		if err := pool.Submit(func() {
			defer wg.Done()
			results[idx] = s.readFile(path)
		}); err != nil {
			wg.Done()
			log.Warnf("Failed to submit read task for file %s: %v", path, err)
		}
	}
	wg.Wait()

	var docs []*document.Document
	for _, fileDocs := range results {
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}

// readFile reads a single file through its reader. Failures are logged and
// skipped so one bad file does not abort the whole source.
func (s *Source) readFile(filePath string) []*document.Document {
	ext := strings.ToLower(filepath.Ext(filePath))
	rdr, ok := s.readerForExtension(ext)
	if !ok {
		log.Debugf("No reader registered for extension %s, skipping file: %s", ext, filePath)
		return nil
	}
	docs, err := rdr.ReadFromFile(filePath)
	if err != nil {
		log.Warnf("Failed to read file %s: %v", filePath, err)
		return nil
	}
	s.enrichMetadata(docs, filePath)
	return docs
}

// readerForExtension resolves the reader for an extension, preferring
// per-extension overrides over the registry.
func (s *Source) readerForExtension(ext string) (reader.Reader, bool) {
	if rdr, ok := s.readerOverrides[ext]; ok {
		return rdr, true
	}
	return reader.GetReader(ext, s.readerOpts()...)
}

// readerOpts translates the source configuration into reader options.
func (s *Source) readerOpts() []reader.Option {
	var opts []reader.Option
	if s.customChunkingStrategy != nil {
		opts = append(opts, reader.WithCustomChunkingStrategy(s.customChunkingStrategy))
	}
	if s.chunkSize > 0 {
		opts = append(opts, reader.WithChunkSize(s.chunkSize))
	}
	if s.chunkOverlap > 0 {
		opts = append(opts, reader.WithChunkOverlap(s.chunkOverlap))
	}
	if len(s.transformers) > 0 {
		opts = append(opts, reader.WithTransformers(s.transformers...))
	}
	// Applied last so an explicit WithChunk(false) on the source wins over
	// the chunk-enabling size options above.
	opts = append(opts, reader.WithChunk(s.chunk))
	return opts
}

// enrichMetadata attaches source, file and callback metadata to each document.
func (s *Source) enrichMetadata(docs []*document.Document, filePath string) {
	var fileSize int64
	var modifiedAt time.Time
	if info, err := os.Stat(filePath); err == nil {
		fileSize = info.Size()
		modifiedAt = info.ModTime().UTC()
	}

	var callbackMeta map[string]any
	if s.metadataCallback != nil {
		callbackMeta = s.metadataCallback(filePath)
	}

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}
		for k, v := range s.metadata {
			doc.Metadata[k] = v
		}
		doc.Metadata[source.MetaSource] = source.TypeDir
		doc.Metadata[source.MetaSourceName] = s.name
		doc.Metadata[source.MetaFilePath] = filePath
		doc.Metadata[source.MetaFileName] = filepath.Base(filePath)
		doc.Metadata[source.MetaFileExt] = strings.ToLower(filepath.Ext(filePath))
		doc.Metadata[source.MetaFileSize] = fileSize
		doc.Metadata[source.MetaModifiedAt] = modifiedAt.Format(time.RFC3339)
		for k, v := range callbackMeta {
			doc.Metadata[k] = v
		}
	}
}

// normalizeExtension lowercases an extension and ensures the leading dot.
func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
